// Package history orders the release history of a deployment for display.
package history

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/humanzai/cpdash/pkg/models"
)

// SortField selects the history column rows are ordered by
type SortField int

const (
	SortByUploadTime SortField = iota
	SortByLabel
	SortByMandatory
	SortByDisabled
	SortByRollout
)

// Direction is the order applied to the selected field
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// ErrInvalidSortField is returned for a sort field outside the known set
var ErrInvalidSortField = errors.New("invalid sort field")

// InvalidSortFieldError carries the rejected field name or value
type InvalidSortFieldError struct {
	Field string
}

func (e *InvalidSortFieldError) Error() string {
	return fmt.Sprintf("%s: %q (want one of %s)", ErrInvalidSortField, e.Field, strings.Join(FieldNames(), ", "))
}

func (e *InvalidSortFieldError) Unwrap() error {
	return ErrInvalidSortField
}

// ErrInvalidDirection is returned for a direction other than asc or desc
var ErrInvalidDirection = errors.New("invalid sort direction")

// InvalidDirectionError carries the rejected direction name or value
type InvalidDirectionError struct {
	Direction string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("%s: %q (want asc or desc)", ErrInvalidDirection, e.Direction)
}

func (e *InvalidDirectionError) Unwrap() error {
	return ErrInvalidDirection
}

// fieldNames maps each field to the name used by the deployment service payload
var fieldNames = map[SortField]string{
	SortByLabel:      "label",
	SortByUploadTime: "uploadTime",
	SortByMandatory:  "isMandatory",
	SortByDisabled:   "isDisabled",
	SortByRollout:    "rollout",
}

// aliases accepted on the command line in addition to the payload names
var aliases = map[string]SortField{
	"date":      SortByUploadTime,
	"time":      SortByUploadTime,
	"uploaded":  SortByUploadTime,
	"mandatory": SortByMandatory,
	"status":    SortByDisabled,
	"disabled":  SortByDisabled,
}

func (f SortField) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("SortField(%d)", int(f))
}

// FieldNames returns the payload names of every sortable field in column order
func FieldNames() []string {
	return []string{"label", "uploadTime", "isMandatory", "isDisabled", "rollout"}
}

// ParseSortField resolves a field name (case-insensitive) or alias
func ParseSortField(name string) (SortField, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for field, fieldName := range fieldNames {
		if strings.ToLower(fieldName) == key {
			return field, nil
		}
	}
	if field, ok := aliases[key]; ok {
		return field, nil
	}
	return 0, &InvalidSortFieldError{Field: name}
}

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts asc/ascending and desc/descending
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return 0, &InvalidDirectionError{Direction: s}
	}
}

// SortSpec is the column and direction the history table is ordered by
type SortSpec struct {
	Field     SortField
	Direction Direction
}

// DefaultSortSpec orders by upload time, newest first
func DefaultSortSpec() SortSpec {
	return SortSpec{Field: SortByUploadTime, Direction: Descending}
}

// Toggle returns the spec after selecting field as a column header.
// Selecting the current field while ascending flips to descending; any other
// selection sorts ascending by the chosen field.
func (s SortSpec) Toggle(field SortField) SortSpec {
	if s.Field == field && s.Direction == Ascending {
		return SortSpec{Field: field, Direction: Descending}
	}
	return SortSpec{Field: field, Direction: Ascending}
}

func (s SortSpec) String() string {
	return s.Field.String() + " " + s.Direction.String()
}

// Sort returns a stably ordered copy of entries. The input slice is never
// modified. Entries that compare equal keep their input order in both
// directions.
func Sort(entries []models.HistoryEntry, spec SortSpec) ([]models.HistoryEntry, error) {
	compare, ok := comparators[spec.Field]
	if !ok {
		return nil, &InvalidSortFieldError{Field: spec.Field.String()}
	}
	if spec.Direction != Ascending && spec.Direction != Descending {
		return nil, &InvalidDirectionError{Direction: spec.Direction.String()}
	}

	sorted := make([]models.HistoryEntry, len(entries))
	copy(sorted, entries)

	if spec.Direction == Descending {
		slices.SortStableFunc(sorted, func(a, b models.HistoryEntry) int {
			return compare(b, a)
		})
	} else {
		slices.SortStableFunc(sorted, compare)
	}

	return sorted, nil
}

type comparator func(a, b models.HistoryEntry) int

var comparators = map[SortField]comparator{
	SortByLabel: func(a, b models.HistoryEntry) int {
		return NaturalCompare(a.Label, b.Label)
	},
	SortByUploadTime: func(a, b models.HistoryEntry) int {
		return compareInt64(a.UploadTime, b.UploadTime)
	},
	SortByMandatory: func(a, b models.HistoryEntry) int {
		return compareBool(a.IsMandatory, b.IsMandatory)
	},
	SortByDisabled: func(a, b models.HistoryEntry) int {
		return compareBool(a.IsDisabled, b.IsDisabled)
	},
	SortByRollout: func(a, b models.HistoryEntry) int {
		return compareRollout(a.Rollout, b.Rollout)
	},
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// false sorts before true
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// An ungated (nil) rollout sorts before every numeric rollout
func compareRollout(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareInt64(int64(*a), int64(*b))
}
