package services

import "errors"

// Sentinel errors shared by the services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed   = errors.New("validation failed")
	ErrTemplateNotValid   = errors.New("template has fatal validation violations")
	ErrTemplateNameTaken  = errors.New("template name is already in use")
	ErrCourtLabelTaken    = errors.New("court label is already in use")
	ErrInvalidTimeWindow  = errors.New("block end time must be after start time")
	ErrNotEnoughUnits     = errors.New("at least two units are required")
	ErrPhaseNotResolvable = errors.New("phase type cannot be resolved into encounters")
	ErrDivisionNoTemplate = errors.New("division has no template assigned")

	// Concurrency
	ErrAllocationInFlight = errors.New("an allocation run is already in progress for this event")

	// Entity lookups
	ErrTemplateNotFound   = errors.New("template not found")
	ErrPhaseNotFound      = errors.New("phase not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrDivisionNotFound   = errors.New("division not found")
	ErrEncounterNotFound  = errors.New("encounter not found")
	ErrCourtNotFound      = errors.New("court not found")
	ErrCourtGroupNotFound = errors.New("court group not found")
	ErrTimeBlockNotFound  = errors.New("time block not found")
)
