// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTemplate = errors.New("message template cannot be empty")
	ErrMissingChurch = errors.New("church id is required")
	ErrMissingPhone  = errors.New("phone is required")
	ErrEmptyTarget   = errors.New("distribution target is empty")
)

// ErrCampaignNotFound is returned when no delivery records carry the id.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrPersistenceFailure aborts a broadcast before any dispatch.
type ErrPersistenceFailure struct {
	CampaignID string
	Err        error
}

func (e *ErrPersistenceFailure) Error() string {
	return fmt.Sprintf("persisting delivery records for campaign %s: %v", e.CampaignID, e.Err)
}

func (e *ErrPersistenceFailure) Unwrap() error { return e.Err }

func NewPersistenceFailure(campaignID string, err error) error {
	return &ErrPersistenceFailure{CampaignID: campaignID, Err: err}
}

// ErrInvalidTarget wraps a distribution target that could not be parsed.
type ErrInvalidTarget struct {
	Target string
	Err    error
}

func (e *ErrInvalidTarget) Error() string {
	return fmt.Sprintf("invalid distribution target %q: %v", e.Target, e.Err)
}

func (e *ErrInvalidTarget) Unwrap() error { return e.Err }

func NewInvalidTarget(target string, err error) error {
	return &ErrInvalidTarget{Target: target, Err: err}
}

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	var invalid *ErrInvalidTarget
	return errors.As(err, &invalid) ||
		errors.Is(err, ErrEmptyTemplate) ||
		errors.Is(err, ErrMissingChurch) ||
		errors.Is(err, ErrMissingPhone) ||
		errors.Is(err, ErrEmptyTarget)
}
