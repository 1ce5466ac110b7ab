package models

import "time"

// HistoryEntry represents one release pushed to a deployment
type HistoryEntry struct {
	Label       string `json:"label"`
	UploadTime  int64  `json:"uploadTime"` // Epoch milliseconds
	AppVersion  string `json:"appVersion"`
	Description string `json:"description,omitempty"`
	IsMandatory bool   `json:"isMandatory"`
	IsDisabled  bool   `json:"isDisabled"`
	Rollout     *int   `json:"rollout"` // nil when the release is not rollout-gated
	PackageHash string `json:"packageHash,omitempty"`

	Size               int64  `json:"size,omitempty"`
	ReleaseMethod      string `json:"releaseMethod,omitempty"`
	ReleasedBy         string `json:"releasedBy,omitempty"`
	OriginalLabel      string `json:"originalLabel,omitempty"`
	OriginalDeployment string `json:"originalDeployment,omitempty"`
}

// Uploaded returns the upload time as a time.Time
func (h HistoryEntry) Uploaded() time.Time {
	return time.UnixMilli(h.UploadTime)
}

// Key returns a stable identity for the entry. Rows without a package hash
// fall back to the label.
func (h HistoryEntry) Key() string {
	if h.PackageHash == "" {
		return h.Label
	}
	return h.PackageHash + "-" + h.Label
}

// MetricsEntry holds the install counters reported for a single label.
// Every counter may be missing from the payload.
type MetricsEntry struct {
	Active     *int64 `json:"active"`
	Downloaded *int64 `json:"downloaded,omitempty"`
	Installed  *int64 `json:"installed,omitempty"`
	Failed     *int64 `json:"failed,omitempty"`
}

// AggregatedMetrics is derived from a metrics payload and never stored
type AggregatedMetrics struct {
	Active int64 `json:"active"`
}

// App is a managed application and the names of its deployments
type App struct {
	Name        string   `json:"name"`
	Deployments []string `json:"deployments"`
}

// DeploymentKey pairs a deployment name with the key clients use to query it
type DeploymentKey struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// ReleaseUpdate is the editable metadata of the latest release on a deployment
type ReleaseUpdate struct {
	AppVersion  string `json:"appVersion"`
	Description string `json:"description"`
	IsMandatory bool   `json:"isMandatory"`
	IsDisabled  bool   `json:"isDisabled"`
	Rollout     *int   `json:"rollout,omitempty"`
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// ActionKind names a mutating operation issued against the deployment service
type ActionKind string

const (
	ActionRollback         ActionKind = "rollback"
	ActionRollbackPrevious ActionKind = "rollback-previous"
	ActionReleaseUpdate    ActionKind = "release-update"
)

// ActionStatus is the outcome of a journaled action
type ActionStatus string

const (
	StatusOK     ActionStatus = "ok"
	StatusFailed ActionStatus = "failed"
)

// Action is a journal entry for one mutating request
type Action struct {
	ID         string       `json:"id"`
	Timestamp  int64        `json:"timestamp"` // Unix seconds
	App        string       `json:"app"`
	Deployment string       `json:"deployment"`
	Kind       ActionKind   `json:"kind"`
	Label      *string      `json:"label,omitempty"` // Target label, nil when the service picks it
	Detail     string       `json:"detail"`          // JSON request payload
	Status     ActionStatus `json:"status"`
	Error      *string      `json:"error,omitempty"`
	Operator   string       `json:"operator,omitempty"` // Local user who issued the action
}
