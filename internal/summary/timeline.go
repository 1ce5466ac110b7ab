package summary

import (
	"fmt"
	"sort"
	"time"

	"github.com/humanzai/cpdash/pkg/models"
)

// Bucket represents actions in one hour or day with their time range
type Bucket struct {
	BucketSize BucketSize
	BucketID   int // Hour 0-23, or Unix midnight for days
	Actions    []models.Action
	FirstTime  int64 // Unix timestamp of first action
	LastTime   int64 // Unix timestamp of last action
	Failed     int
}

type BucketSize int

const (
	Hourly BucketSize = iota
	Daily
)

// ParseBucketSize accepts "hour" or "day"
func ParseBucketSize(s string) (BucketSize, error) {
	switch s {
	case "hour":
		return Hourly, nil
	case "day":
		return Daily, nil
	default:
		return 0, fmt.Errorf("invalid bucket %q (want hour or day)", s)
	}
}

// GetHour extracts the hour (0-23) from a Unix timestamp
// Uses local timezone for hour calculation
func GetHour(timestamp int64) int {
	return time.Unix(timestamp, 0).Hour()
}

// BucketBy groups actions by hour of the day or by local day
func BucketBy(actions []models.Action, bucketSize BucketSize) map[int]*Bucket {
	buckets := make(map[int]*Bucket)

	for _, a := range actions {
		var bucketID int
		switch bucketSize {
		case Daily:
			t := time.Unix(a.Timestamp, 0)
			year, month, day := t.Date()
			bucketID = int(time.Date(year, month, day, 0, 0, 0, 0, t.Location()).Unix())
		default:
			bucketID = GetHour(a.Timestamp)
		}

		b := buckets[bucketID]
		if b == nil {
			b = &Bucket{
				BucketSize: bucketSize,
				BucketID:   bucketID,
				FirstTime:  a.Timestamp,
				LastTime:   a.Timestamp,
			}
			buckets[bucketID] = b
		}

		b.Actions = append(b.Actions, a)
		b.FirstTime = min(b.FirstTime, a.Timestamp)
		b.LastTime = max(b.LastTime, a.Timestamp)
		if a.Status == models.StatusFailed {
			b.Failed++
		}
	}

	return buckets
}

// GetOrderedBuckets returns bucket IDs that have actions, sorted chronologically
func GetOrderedBuckets(buckets map[int]*Bucket) []int {
	ids := make([]int, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FormatLabel is the heading of a bucket
func (b *Bucket) FormatLabel() string {
	if b.BucketSize == Daily {
		return time.Unix(int64(b.BucketID), 0).Format("Mon Jan 2")
	}
	return FormatHour(b.BucketID)
}

// FormatHour formats an hour as "8am", "2pm", "12pm", "12am"
func FormatHour(hour int) string {
	if hour == 0 {
		return "12am"
	} else if hour < 12 {
		return fmt.Sprintf("%dam", hour)
	} else if hour == 12 {
		return "12pm"
	} else {
		return fmt.Sprintf("%dpm", hour-12)
	}
}
