// Package rollback resolves and checks the target of a deployment rollback
// before the request is sent to the deployment service.
package rollback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/pkg/models"
)

// Policy controls how strictly a rollback target is checked
type Policy int

const (
	// ValidateAppVersion only allows targets built for the same app version
	// as the most recent release.
	ValidateAppVersion Policy = iota
	// Unchecked only requires the target label to exist.
	Unchecked
)

func (p Policy) String() string {
	if p == Unchecked {
		return "unchecked"
	}
	return "validate-app-version"
}

// ParsePolicy accepts "validate" or "unchecked"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "validate", "validate-app-version", "":
		return ValidateAppVersion, nil
	case "unchecked", "none":
		return Unchecked, nil
	default:
		return 0, fmt.Errorf("invalid rollback policy %q (want validate or unchecked)", s)
	}
}

var (
	ErrEmptyHistory    = errors.New("deployment has no release history")
	ErrLabelNotFound   = errors.New("label not found in deployment history")
	ErrVersionMismatch = errors.New("cannot roll back to a different app version")
)

// LabelNotFoundError names the label that was missing
type LabelNotFoundError struct {
	Label string
}

func (e *LabelNotFoundError) Error() string {
	return fmt.Sprintf("label %s not found in deployment history", e.Label)
}

func (e *LabelNotFoundError) Unwrap() error {
	return ErrLabelNotFound
}

// VersionMismatchError reports the app versions that disagreed
type VersionMismatchError struct {
	Label   string
	Current string
	Target  string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s: current %s, target %s (%s)", ErrVersionMismatch, e.Current, e.Target, e.Label)
}

func (e *VersionMismatchError) Unwrap() error {
	return ErrVersionMismatch
}

// ValidateTarget returns the history entry for label if a rollback to it is
// allowed under policy. The history is ordered newest first before the most
// recent release is read, so callers may pass it in any order.
func ValidateTarget(entries []models.HistoryEntry, label string, policy Policy) (models.HistoryEntry, error) {
	if len(entries) == 0 {
		return models.HistoryEntry{}, ErrEmptyHistory
	}

	newestFirst, err := history.Sort(entries, history.DefaultSortSpec())
	if err != nil {
		return models.HistoryEntry{}, err
	}

	target, found := findLabel(newestFirst, label)
	if !found {
		return models.HistoryEntry{}, &LabelNotFoundError{Label: label}
	}

	if policy == Unchecked {
		return target, nil
	}

	current := newestFirst[0].AppVersion
	if target.AppVersion != current {
		return models.HistoryEntry{}, &VersionMismatchError{
			Label:   label,
			Current: current,
			Target:  target.AppVersion,
		}
	}

	return target, nil
}

// Previous returns the release before the most recent one, the target the
// service picks when no label is given. ok is false for fewer than two releases.
func Previous(entries []models.HistoryEntry) (models.HistoryEntry, bool) {
	if len(entries) < 2 {
		return models.HistoryEntry{}, false
	}
	newestFirst, err := history.Sort(entries, history.DefaultSortSpec())
	if err != nil {
		return models.HistoryEntry{}, false
	}
	return newestFirst[1], true
}

func findLabel(entries []models.HistoryEntry, label string) (models.HistoryEntry, bool) {
	for _, e := range entries {
		if e.Label == label {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}
