package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtflow/scheduler/services"
)

type TemplateHandler struct {
	templateService services.TemplateService
}

func NewTemplateHandler(ts services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: ts}
}

// CreateTemplate godoc
// @Summary Create a tournament structure template
// @Tags templates
// @Accept json
// @Produce json
// @Param body body services.CreateTemplateInput true "Template definition"
// @Success 201 {object} models.Template
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Name already in use"
// @Security BearerAuth
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTemplateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tpl, err := h.templateService.CreateTemplate(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl, nil)
}

func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tpl, err := h.templateService.GetTemplate(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl, nil)
}

func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateTemplateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tpl, err := h.templateService.UpdateTemplate(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl, nil)
}

func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.templateService.DeleteTemplate(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateTemplate godoc
// @Summary Validate a template without activating it
// @Tags templates
// @Produce json
// @Param templateID path int true "Template ID"
// @Success 200 {object} services.ValidationReport
// @Security BearerAuth
// @Router /templates/{templateID}/validate [post]
func (h *TemplateHandler) ValidateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.templateService.Validate(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report, nil)
}

// ActivateTemplate godoc
// @Summary Activate a template
// @Description Marks the template usable by divisions. Fails with 422 and the
// violation list when fatal violations remain.
// @Tags templates
// @Produce json
// @Param templateID path int true "Template ID"
// @Success 200 {object} services.ValidationReport
// @Failure 422 {object} services.ValidationReport
// @Security BearerAuth
// @Router /templates/{templateID}/activate [post]
func (h *TemplateHandler) ActivateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.templateService.Activate(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotValid) && report != nil {
			// The violation list tells the operator what blocked activation.
			writeJSON(w, http.StatusUnprocessableEntity, report, nil)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report, nil)
}

// AutoGenerateRules godoc
// @Summary Derive default advancement rules between consecutive phases
// @Tags templates
// @Produce json
// @Param templateID path int true "Template ID"
// @Param persist query bool false "Replace the stored rules with the generated set"
// @Success 200 {array} models.AdvancementRule
// @Security BearerAuth
// @Router /templates/{templateID}/rules/auto [post]
func (h *TemplateHandler) AutoGenerateRules(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	persist, _ := strconv.ParseBool(r.URL.Query().Get("persist"))

	rules, err := h.templateService.AutoGenerateRules(r.Context(), id, persist)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"rules": rules, "persisted": persist}, nil)
}

func (h *TemplateHandler) InsertPhase(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PhaseInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	position, _ := strconv.Atoi(r.URL.Query().Get("position"))

	tpl, err := h.templateService.InsertPhase(r.Context(), id, input, position)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl, nil)
}

func (h *TemplateHandler) RemovePhase(w http.ResponseWriter, r *http.Request) {
	templateID, err := getIDFromURL(r, "templateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tpl, err := h.templateService.RemovePhase(r.Context(), templateID, phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl, nil)
}
