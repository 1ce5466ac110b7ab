package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanzai/cpdash/pkg/models"
)

func at(day, hour, minute int) int64 {
	return time.Date(2026, 1, day, hour, minute, 0, 0, time.Local).Unix()
}

func strPtr(s string) *string {
	return &s
}

// sampleActions is in journal order, newest first
func sampleActions() []models.Action {
	return []models.Action{
		{Timestamp: at(14, 16, 5), App: "MyApp", Deployment: "Staging", Kind: models.ActionReleaseUpdate, Status: models.StatusOK},
		{Timestamp: at(14, 9, 40), App: "MyApp", Deployment: "Production", Kind: models.ActionRollback, Label: strPtr("v2"), Status: models.StatusFailed},
		{Timestamp: at(14, 9, 15), App: "MyApp", Deployment: "Production", Kind: models.ActionRollback, Label: strPtr("v1"), Status: models.StatusOK},
		{Timestamp: at(14, 8, 30), App: "Billing", Deployment: "Production", Kind: models.ActionRollbackPrevious, Status: models.StatusOK},
	}
}

func TestGroupByDeployment(t *testing.T) {
	grouped := GroupByDeployment(sampleActions())

	require.Len(t, grouped.Deployments, 3)
	assert.Len(t, grouped.Deployments[DeploymentKey{"MyApp", "Production"}], 2)

	assert.Equal(t, []DeploymentKey{
		{"Billing", "Production"},
		{"MyApp", "Production"},
		{"MyApp", "Staging"},
	}, grouped.Keys())
}

func TestSummarize(t *testing.T) {
	summaries := GroupByDeployment(sampleActions()).Summarize()
	require.Len(t, summaries, 3)

	prod := summaries[1]
	assert.Equal(t, "MyApp/Production", prod.Key.String())
	assert.Equal(t, 2, prod.ActionCount)
	assert.Equal(t, 1, prod.Failed)
	assert.Equal(t, 2, prod.Kinds[models.ActionRollback])
	assert.Equal(t, at(14, 9, 15), prod.FirstTime)
	assert.Equal(t, at(14, 9, 40), prod.LastTime)
	assert.Equal(t, "25m", prod.FormatDuration())
	assert.Equal(t, "09:15 - 09:40", prod.FormatTimeSpan())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name  string
		first int64
		last  int64
		want  string
	}{
		{"zero", 100, 100, "0s"},
		{"seconds", 100, 130, "30s"},
		{"minutes", 0, 45 * 60, "45m"},
		{"hours", 0, 2 * 3600, "2h"},
		{"hours and minutes", 0, 8*3600 + 12*60, "8h 12m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DeploymentSummary{FirstTime: tt.first, LastTime: tt.last}
			assert.Equal(t, tt.want, s.FormatDuration())
		})
	}
}

func TestBucketBy_Hourly(t *testing.T) {
	buckets := BucketBy(sampleActions(), Hourly)

	assert.Equal(t, []int{8, 9, 16}, GetOrderedBuckets(buckets))
	assert.Len(t, buckets[9].Actions, 2)
	assert.Equal(t, 1, buckets[9].Failed)
	assert.Equal(t, at(14, 9, 15), buckets[9].FirstTime)
	assert.Equal(t, at(14, 9, 40), buckets[9].LastTime)
	assert.Equal(t, "9am", buckets[9].FormatLabel())
}

func TestBucketBy_Daily(t *testing.T) {
	actions := append(sampleActions(), models.Action{Timestamp: at(13, 23, 0), App: "MyApp", Deployment: "Production"})
	buckets := BucketBy(actions, Daily)

	ids := GetOrderedBuckets(buckets)
	require.Len(t, ids, 2)
	assert.Len(t, buckets[ids[0]].Actions, 1)
	assert.Len(t, buckets[ids[1]].Actions, 4)
	assert.Equal(t, "Wed Jan 14", buckets[ids[1]].FormatLabel())
}

func TestFormatHour(t *testing.T) {
	assert.Equal(t, "12am", FormatHour(0))
	assert.Equal(t, "8am", FormatHour(8))
	assert.Equal(t, "12pm", FormatHour(12))
	assert.Equal(t, "4pm", FormatHour(16))
}

func TestParseBucketSize(t *testing.T) {
	size, err := ParseBucketSize("day")
	require.NoError(t, err)
	assert.Equal(t, Daily, size)

	_, err = ParseBucketSize("week")
	assert.Error(t, err)
}

func TestFormatSummary_Counts(t *testing.T) {
	output := FormatSummary(GroupByDeployment(sampleActions()), FormatOptions{Date: "2026-01-14", NoColor: true})

	assert.Contains(t, output, "Release Activity - 2026-01-14")
	assert.Contains(t, output, "MyApp/Production  09:15 - 09:40 (25m)\n")
	assert.Contains(t, output, "MyApp/Staging  16:05 - 16:05 (0s)\n")
	assert.Contains(t, output, "  9am ---")
	assert.Contains(t, output, "    2 actions, 1 failed\n")
	assert.Contains(t, output, "Total: 4 actions on 3 deployments, 1 failed")

	// Deployments are listed alphabetically
	assert.Less(t, strings.Index(output, "Billing/Production"), strings.Index(output, "MyApp/Production"))
	assert.Less(t, strings.Index(output, "MyApp/Production"), strings.Index(output, "MyApp/Staging"))
}

func TestFormatSummary_AllActions(t *testing.T) {
	output := FormatSummary(GroupByDeployment(sampleActions()), FormatOptions{Date: "2026-01-14", NoColor: true, AllActions: true})

	// Oldest first within a bucket
	first := strings.Index(output, ":15  rollback v1")
	second := strings.Index(output, ":40  rollback v2 (failed)")
	require.True(t, first > 0 && second > 0)
	assert.Less(t, first, second)
}

func TestFormatSummary_Empty(t *testing.T) {
	output := FormatSummary(GroupByDeployment(nil), FormatOptions{Date: "2026-01-14", NoColor: true})

	assert.Contains(t, output, "No actions found for 2026-01-14")
	assert.NotContains(t, output, "Total:")
}
