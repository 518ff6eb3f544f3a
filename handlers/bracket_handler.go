package handlers

import (
	"net/http"

	"github.com/courtflow/scheduler/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// ResolveBracket godoc
// @Summary Preview the bracket shape for a phase specification
// @Description Pure computation: derives bracket size, byes, rounds and the
// encounter skeleton without touching stored data.
// @Tags brackets
// @Accept json
// @Produce json
// @Param body body services.ResolveBracketInput true "Phase shape and unit count or seeded unit IDs"
// @Success 200 {object} brackets.Resolution
// @Failure 400 {object} map[string]string "Not enough units or unresolvable phase type"
// @Security BearerAuth
// @Router /brackets/resolve [post]
func (h *BracketHandler) ResolveBracket(w http.ResponseWriter, r *http.Request) {
	var input services.ResolveBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resolution, err := h.bracketService.ResolveBracket(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution, nil)
}

type expandPhaseInput struct {
	UnitIDs []int `json:"unit_ids"`
}

// ExpandPhase godoc
// @Summary Materialize a division phase into persisted encounters
// @Description Replaces any previous skeleton for the phase. Byes are created
// completed; winner-feeds-into links are wired in the same transaction.
// @Tags brackets
// @Accept json
// @Produce json
// @Param divisionID path int true "Division ID"
// @Param phaseID path int true "Phase ID"
// @Param body body expandPhaseInput true "Seeded unit IDs"
// @Success 201 {array} models.Encounter
// @Security BearerAuth
// @Router /divisions/{divisionID}/phases/{phaseID}/expand [post]
func (h *BracketHandler) ExpandPhase(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input expandPhaseInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	encounters, err := h.bracketService.ExpandPhase(r.Context(), divisionID, phaseID, input.UnitIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"encounters": encounters}, nil)
}
