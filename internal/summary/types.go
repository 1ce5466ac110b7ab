package summary

import (
	"strconv"
	"time"

	"github.com/humanzai/cpdash/pkg/models"
)

// DeploymentKey identifies a deployment of an app
type DeploymentKey struct {
	App        string
	Deployment string
}

func (k DeploymentKey) String() string {
	return k.App + "/" + k.Deployment
}

// DeploymentSummary represents aggregated journal data for one deployment
type DeploymentSummary struct {
	Key         DeploymentKey
	ActionCount int
	Failed      int
	Kinds       map[models.ActionKind]int
	FirstTime   int64 // Unix timestamp
	LastTime    int64 // Unix timestamp
}

// Duration returns the time span between first and last action in seconds
func (s *DeploymentSummary) Duration() int64 {
	return s.LastTime - s.FirstTime
}

// FormatDuration returns a human-readable duration string
// Examples: "8h 12m", "45m", "30s", "0s"
func (s *DeploymentSummary) FormatDuration() string {
	duration := s.Duration()

	if duration == 0 {
		return "0s"
	}

	hours := duration / 3600
	minutes := (duration % 3600) / 60
	seconds := duration % 60

	if hours > 0 {
		if minutes > 0 {
			return withSuffix(hours, "h") + " " + withSuffix(minutes, "m")
		}
		return withSuffix(hours, "h")
	}

	if minutes > 0 {
		return withSuffix(minutes, "m")
	}

	return withSuffix(seconds, "s")
}

func withSuffix(value int64, suffix string) string {
	return strconv.FormatInt(value, 10) + suffix
}

// FormatTimeSpan returns the time range as "HH:MM - HH:MM"
func (s *DeploymentSummary) FormatTimeSpan() string {
	return time.Unix(s.FirstTime, 0).Format("15:04") + " - " + time.Unix(s.LastTime, 0).Format("15:04")
}
