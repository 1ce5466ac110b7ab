package rollback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanzai/cpdash/pkg/models"
)

// Input is deliberately oldest first; the most recent release is v3
func sampleHistory() []models.HistoryEntry {
	return []models.HistoryEntry{
		{Label: "v1", UploadTime: 100, AppVersion: "1.0.0"},
		{Label: "v2", UploadTime: 200, AppVersion: "1.1.0"},
		{Label: "v3", UploadTime: 300, AppVersion: "1.1.0"},
	}
}

func TestValidateTarget_SameAppVersion(t *testing.T) {
	target, err := ValidateTarget(sampleHistory(), "v2", ValidateAppVersion)
	require.NoError(t, err)
	assert.Equal(t, "v2", target.Label)
}

func TestValidateTarget_VersionMismatch(t *testing.T) {
	// Given: v1 was built for 1.0.0 while the newest release targets 1.1.0
	_, err := ValidateTarget(sampleHistory(), "v1", ValidateAppVersion)

	// Then: the rollback is refused with a mismatch error
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
	assert.False(t, errors.Is(err, ErrLabelNotFound))

	var mismatch *VersionMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "1.1.0", mismatch.Current)
	assert.Equal(t, "1.0.0", mismatch.Target)
	assert.Contains(t, err.Error(), "current 1.1.0, target 1.0.0")
}

func TestValidateTarget_LabelNotFound(t *testing.T) {
	for _, policy := range []Policy{ValidateAppVersion, Unchecked} {
		_, err := ValidateTarget(sampleHistory(), "v9", policy)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLabelNotFound), "policy %s", policy)
		assert.Contains(t, err.Error(), "v9")
	}
}

func TestValidateTarget_Unchecked(t *testing.T) {
	target, err := ValidateTarget(sampleHistory(), "v1", Unchecked)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", target.AppVersion)
}

func TestValidateTarget_EmptyHistory(t *testing.T) {
	_, err := ValidateTarget(nil, "v1", ValidateAppVersion)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestValidateTarget_DoesNotReorderInput(t *testing.T) {
	entries := sampleHistory()
	_, err := ValidateTarget(entries, "v2", ValidateAppVersion)
	require.NoError(t, err)
	assert.Equal(t, "v1", entries[0].Label)
}

func TestPrevious(t *testing.T) {
	prev, ok := Previous(sampleHistory())
	require.True(t, ok)
	assert.Equal(t, "v2", prev.Label)

	_, ok = Previous(sampleHistory()[:1])
	assert.False(t, ok)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("validate")
	require.NoError(t, err)
	assert.Equal(t, ValidateAppVersion, p)

	p, err = ParsePolicy("UNCHECKED")
	require.NoError(t, err)
	assert.Equal(t, Unchecked, p)

	_, err = ParsePolicy("yolo")
	assert.Error(t, err)
}
