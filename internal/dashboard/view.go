// Package dashboard turns fetched deployment data into the rows and text
// tables cpdash displays.
package dashboard

import (
	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/internal/metrics"
	"github.com/humanzai/cpdash/pkg/models"
)

// Row is one release as displayed, with its share of active installs
type Row struct {
	Entry    models.HistoryEntry
	Metrics  *models.MetricsEntry // nil when the service reported nothing for the label
	Share    metrics.Share
	HasShare bool
}

// View is a deployment's history ordered for display
type View struct {
	App        string
	Deployment string
	Spec       history.SortSpec
	Rows       []Row
	Aggregated models.AggregatedMetrics
	HasMetrics bool
}

// BuildView orders entries by spec and attaches per-label metrics. A nil
// metrics payload produces a view without install columns.
func BuildView(app, deployment string, entries []models.HistoryEntry, byLabel map[string]*models.MetricsEntry, spec history.SortSpec) (*View, error) {
	sorted, err := history.Sort(entries, spec)
	if err != nil {
		return nil, err
	}

	v := &View{
		App:        app,
		Deployment: deployment,
		Spec:       spec,
		Rows:       make([]Row, 0, len(sorted)),
		HasMetrics: byLabel != nil,
	}
	if v.HasMetrics {
		v.Aggregated = metrics.Aggregate(byLabel)
	}

	for _, e := range sorted {
		row := Row{Entry: e}
		if v.HasMetrics {
			row.Metrics = byLabel[e.Label]
			row.Share, row.HasShare = metrics.ActiveShare(e.Label, byLabel, v.Aggregated)
		}
		v.Rows = append(v.Rows, row)
	}

	return v, nil
}

// Resort returns a copy of the view ordered by spec. Metrics are reused.
func (v *View) Resort(spec history.SortSpec) (*View, error) {
	entries := make([]models.HistoryEntry, len(v.Rows))
	byEntry := make(map[string]Row, len(v.Rows))
	for i, r := range v.Rows {
		entries[i] = r.Entry
		byEntry[r.Entry.Key()] = r
	}

	sorted, err := history.Sort(entries, spec)
	if err != nil {
		return nil, err
	}

	out := *v
	out.Spec = spec
	out.Rows = make([]Row, len(sorted))
	for i, e := range sorted {
		row := byEntry[e.Key()]
		row.Entry = e
		out.Rows[i] = row
	}
	return &out, nil
}

// Latest returns the most recently uploaded release
func (v *View) Latest() (models.HistoryEntry, bool) {
	if len(v.Rows) == 0 {
		return models.HistoryEntry{}, false
	}
	latest := v.Rows[0].Entry
	for _, r := range v.Rows[1:] {
		if r.Entry.UploadTime > latest.UploadTime {
			latest = r.Entry
		}
	}
	return latest, true
}
