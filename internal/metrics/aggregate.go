// Package metrics derives install totals and shares from a deployment's
// per-label metrics payload.
package metrics

import (
	"math"

	"github.com/humanzai/cpdash/pkg/models"
)

// ClampNonNegative returns the counter value, or 0 when it is missing or
// not positive.
func ClampNonNegative(v *int64) int64 {
	if v == nil || *v <= 0 {
		return 0
	}
	return *v
}

// Aggregate sums the active installs across every label in the payload.
// Missing entries and non-positive counters contribute nothing.
func Aggregate(byLabel map[string]*models.MetricsEntry) models.AggregatedMetrics {
	var agg models.AggregatedMetrics
	for _, entry := range byLabel {
		if entry == nil {
			continue
		}
		agg.Active += ClampNonNegative(entry.Active)
	}
	return agg
}

// Percentage returns part as a whole-number percentage of whole, rounded
// half away from zero (12.5 becomes 13) and kept within [0, 100]. A
// non-positive whole yields 0.
func Percentage(part, whole int64) int64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part >= whole {
		return 100
	}
	return int64(math.Round(float64(part) * 100 / float64(whole)))
}

// RolloutPercentage returns the rollout as displayed. ok is false when the
// release is not rollout-gated or the rollout is zero, which render as N/A.
func RolloutPercentage(rollout *int) (pct int64, ok bool) {
	if rollout == nil || *rollout == 0 {
		return 0, false
	}
	return Percentage(int64(*rollout), 100), true
}

// Share is one label's portion of the deployment's active installs
type Share struct {
	Active  int64
	Total   int64
	Percent int64
}

// ActiveShare computes the share for label. ok is false when the payload has
// no entry for the label.
func ActiveShare(label string, byLabel map[string]*models.MetricsEntry, agg models.AggregatedMetrics) (Share, bool) {
	entry, found := byLabel[label]
	if !found || entry == nil {
		return Share{}, false
	}

	active := ClampNonNegative(entry.Active)
	return Share{
		Active:  active,
		Total:   agg.Active,
		Percent: Percentage(active, agg.Active),
	}, true
}
