// Package release builds the metadata update sent when an operator edits the
// latest release of a deployment.
package release

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/humanzai/cpdash/pkg/models"
)

var (
	ErrAppVersionRequired = errors.New("app version is required")
	ErrRolloutRange       = errors.New("rollout must be between 0 and 100")
)

// Form holds the editable fields of a release, prefilled from a history row
type Form struct {
	AppVersion    string
	Description   string
	IsMandatory   bool
	IsDisabled    bool
	Rollout       *int
	EnableRollout bool

	storedAppVersion string
}

// FormFromEntry prefills a form from the release being edited
func FormFromEntry(e models.HistoryEntry) Form {
	f := Form{
		AppVersion:    e.AppVersion,
		Description:   e.Description,
		IsMandatory:   e.IsMandatory,
		IsDisabled:    e.IsDisabled,
		EnableRollout: e.Rollout != nil,

		storedAppVersion: e.AppVersion,
	}
	if e.Rollout != nil {
		r := *e.Rollout
		f.Rollout = &r
	}
	return f
}

// SetRolloutEnabled toggles rollout gating. Enabling starts at 0 and
// disabling clears the value.
func (f *Form) SetRolloutEnabled(enabled bool) {
	f.EnableRollout = enabled
	if enabled {
		zero := 0
		f.Rollout = &zero
		return
	}
	f.Rollout = nil
}

// SetRollout sets the rollout percentage and enables gating
func (f *Form) SetRollout(pct int) {
	f.EnableRollout = true
	f.Rollout = &pct
}

// Payload validates the form and returns the update to send. A zero or
// disabled rollout is left out of the payload. The app version is only
// checked when it differs from the stored one, which is sent back as is.
func (f Form) Payload() (models.ReleaseUpdate, error) {
	if strings.TrimSpace(f.AppVersion) == "" {
		return models.ReleaseUpdate{}, ErrAppVersionRequired
	}
	if f.AppVersion != f.storedAppVersion {
		if err := ValidateAppVersion(f.AppVersion); err != nil {
			return models.ReleaseUpdate{}, err
		}
	}

	update := models.ReleaseUpdate{
		AppVersion:  strings.TrimSpace(f.AppVersion),
		Description: f.Description,
		IsMandatory: f.IsMandatory,
		IsDisabled:  f.IsDisabled,
	}

	if f.EnableRollout && f.Rollout != nil {
		r := *f.Rollout
		if r < 0 || r > 100 {
			return models.ReleaseUpdate{}, fmt.Errorf("%w, got %d", ErrRolloutRange, r)
		}
		if r != 0 {
			update.Rollout = &r
		}
	}

	return update, nil
}

// ValidateAppVersion accepts a target binary version range: an exact
// version ("1.2.3"), comparators joined by spaces or commas (">=1.2.7 <1.3.0",
// ">= 1.0, < 2.0", "~> 1.2"), caret and tilde ranges ("^1.2.3", "~1.2"),
// wildcards ("1.2.x", "1.*"), hyphen ranges ("1.2.3 - 1.2.7") and any of
// those joined with "||".
func ValidateAppVersion(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return ErrAppVersionRequired
	}

	for _, alt := range strings.Split(v, "||") {
		if !validRange(strings.TrimSpace(alt)) {
			return fmt.Errorf("invalid app version %q", v)
		}
	}
	return nil
}

// comparators are checked longest first
var comparators = []string{">=", "<=", "!=", "~>", ">", "<", "=", "^", "~"}

func validRange(r string) bool {
	if r == "" {
		return false
	}

	if lo, hi, ok := strings.Cut(r, " - "); ok {
		return validVersion(strings.TrimSpace(lo)) && validVersion(strings.TrimSpace(hi))
	}

	fields := strings.Fields(strings.ReplaceAll(r, ",", " "))
	for i := 0; i < len(fields); i++ {
		term := fields[i]
		op := comparatorPrefix(term)
		rest := term[len(op):]
		if op != "" && rest == "" {
			// "~> 1.2" spells the comparator and version as two fields
			if i+1 >= len(fields) || comparatorPrefix(fields[i+1]) != "" {
				return false
			}
			i++
			rest = fields[i]
		}
		if !validVersion(rest) {
			return false
		}
	}
	return true
}

func comparatorPrefix(term string) string {
	for _, op := range comparators {
		if strings.HasPrefix(term, op) {
			return op
		}
	}
	return ""
}

// validVersion parses a single version, treating x, X and * parts as zero
func validVersion(v string) bool {
	if v == "" {
		return false
	}
	parts := strings.Split(v, ".")
	for i, p := range parts {
		if p == "x" || p == "X" || p == "*" {
			parts[i] = "0"
		}
	}
	_, err := version.NewVersion(strings.Join(parts, "."))
	return err == nil
}

// DetailRow is one line of the release summary shown before editing
type DetailRow struct {
	Label string
	Value string
}

// Details describes the release being edited
func Details(app, deployment string, e models.HistoryEntry) []DetailRow {
	rollout := "N/A"
	if e.Rollout != nil && *e.Rollout != 0 {
		rollout = strconv.Itoa(*e.Rollout)
	}

	return []DetailRow{
		{"App Name", app},
		{"Deployment Name", deployment},
		{"App Version", orNA(e.AppVersion)},
		{"Description", orNA(e.Description)},
		{"Mandatory", yesNo(e.IsMandatory)},
		{"Rollout", rollout},
		{"Disabled", yesNo(e.IsDisabled)},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
