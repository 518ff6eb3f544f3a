package handlers

import (
	"net/http"

	"github.com/courtflow/scheduler/services"
)

type TimeBlockHandler struct {
	timeBlockService services.TimeBlockService
}

func NewTimeBlockHandler(ts services.TimeBlockService) *TimeBlockHandler {
	return &TimeBlockHandler{timeBlockService: ts}
}

// CreateTimeBlock godoc
// @Summary Reserve courts for a division during a window
// @Tags timeblocks
// @Accept json
// @Produce json
// @Param body body services.CreateTimeBlockInput true "Block definition"
// @Success 201 {object} models.TimeBlockAllocation
// @Failure 400 {object} map[string]string "Window outside the event grid or inverted"
// @Security BearerAuth
// @Router /timeblocks [post]
func (h *TimeBlockHandler) CreateTimeBlock(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTimeBlockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	block, err := h.timeBlockService.CreateTimeBlock(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, block, nil)
}

func (h *TimeBlockHandler) GetTimeBlock(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "blockID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	block, err := h.timeBlockService.GetTimeBlock(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block, nil)
}

func (h *TimeBlockHandler) ListTimeBlocks(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	blocks, err := h.timeBlockService.ListTimeBlocks(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"blocks": blocks}, nil)
}

func (h *TimeBlockHandler) DeleteTimeBlock(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "blockID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.timeBlockService.DeleteTimeBlock(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
