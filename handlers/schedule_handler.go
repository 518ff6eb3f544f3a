package handlers

import (
	"net/http"
	"time"

	"github.com/courtflow/scheduler/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(ss services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: ss}
}

// GetGrid godoc
// @Summary Load the full schedule grid for an event
// @Tags schedule
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} models.ScheduleGrid
// @Security BearerAuth
// @Router /events/{eventID}/grid [get]
func (h *ScheduleHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	grid, err := h.scheduleService.LoadGrid(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid, nil)
}

type allocateInput struct {
	ClearExisting bool `json:"clear_existing"`
}

// AutoAllocate godoc
// @Summary Run an automatic allocation pass for an event
// @Description Greedy earliest-slot placement of unassigned encounters.
// Returns 409 when another run is already in progress for the event.
// @Tags schedule
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body allocateInput false "Run options"
// @Success 200 {object} schedule.AllocationResult
// @Failure 409 {object} map[string]string "Allocation already in flight"
// @Security BearerAuth
// @Router /events/{eventID}/schedule/allocate [post]
func (h *ScheduleHandler) AutoAllocate(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := allocateInput{}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	result, err := h.scheduleService.AutoAllocate(r.Context(), eventID, input.ClearExisting)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

type moveEncounterInput struct {
	CourtID   *int       `json:"court_id"`
	StartTime *time.Time `json:"start_time"`
}

// MoveEncounter godoc
// @Summary Manually move or clear an encounter's slot
// @Description The move is applied even when it overlaps other encounters;
// the response carries the conflicts as a warning. A null court and start
// time clears the assignment.
// @Tags schedule
// @Accept json
// @Produce json
// @Param encounterID path int true "Encounter ID"
// @Param body body moveEncounterInput true "Target slot"
// @Success 200 {object} services.MoveResult
// @Security BearerAuth
// @Router /encounters/{encounterID}/move [post]
func (h *ScheduleHandler) MoveEncounter(w http.ResponseWriter, r *http.Request) {
	encounterID, err := getIDFromURL(r, "encounterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input moveEncounterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.scheduleService.MoveEncounter(r.Context(), encounterID, input.CourtID, input.StartTime)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

// DetectConflicts godoc
// @Summary List all court and unit overlaps on an event's schedule
// @Tags schedule
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {array} models.Conflict
// @Security BearerAuth
// @Router /events/{eventID}/conflicts [get]
func (h *ScheduleHandler) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conflicts, err := h.scheduleService.DetectConflicts(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"conflicts": conflicts}, nil)
}

type clearScheduleInput struct {
	DivisionID *int `json:"division_id"`
}

// ClearSchedule godoc
// @Summary Clear assignments for an event, optionally scoped to a division
// @Tags schedule
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body clearScheduleInput false "Optional division scope"
// @Success 204
// @Security BearerAuth
// @Router /events/{eventID}/schedule [delete]
func (h *ScheduleHandler) ClearSchedule(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := clearScheduleInput{}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	if err := h.scheduleService.ClearSchedule(r.Context(), eventID, input.DivisionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportGrid godoc
// @Summary Export the event schedule as CSV to object storage
// @Tags schedule
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]string "Public URL of the export"
// @Security BearerAuth
// @Router /events/{eventID}/schedule/export [post]
func (h *ScheduleHandler) ExportGrid(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	url, err := h.scheduleService.ExportGrid(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"url": url}, nil)
}
