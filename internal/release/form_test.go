package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanzai/cpdash/pkg/models"
)

func TestFormFromEntry(t *testing.T) {
	entry := models.HistoryEntry{
		Label:       "v4",
		AppVersion:  "1.2.0",
		Description: "hotfix",
		IsMandatory: true,
		Rollout:     models.IntPtr(40),
	}

	f := FormFromEntry(entry)
	assert.Equal(t, "1.2.0", f.AppVersion)
	assert.True(t, f.IsMandatory)
	assert.True(t, f.EnableRollout)
	require.NotNil(t, f.Rollout)
	assert.Equal(t, 40, *f.Rollout)

	// The form owns its rollout value
	*f.Rollout = 90
	assert.Equal(t, 40, *entry.Rollout)

	f = FormFromEntry(models.HistoryEntry{AppVersion: "1.0.0"})
	assert.False(t, f.EnableRollout)
	assert.Nil(t, f.Rollout)
}

func TestForm_RolloutToggle(t *testing.T) {
	f := FormFromEntry(models.HistoryEntry{AppVersion: "1.0.0"})

	// When: enabling rollout
	f.SetRolloutEnabled(true)

	// Then: it starts at zero, which is left out of the payload
	require.NotNil(t, f.Rollout)
	assert.Equal(t, 0, *f.Rollout)
	update, err := f.Payload()
	require.NoError(t, err)
	assert.Nil(t, update.Rollout)

	f.SetRollout(30)
	update, err = f.Payload()
	require.NoError(t, err)
	require.NotNil(t, update.Rollout)
	assert.Equal(t, 30, *update.Rollout)

	// When: disabling rollout
	f.SetRolloutEnabled(false)
	update, err = f.Payload()
	require.NoError(t, err)
	assert.Nil(t, update.Rollout)
}

func TestForm_PayloadValidation(t *testing.T) {
	f := FormFromEntry(models.HistoryEntry{AppVersion: "1.0.0"})
	f.SetRollout(101)
	_, err := f.Payload()
	assert.ErrorIs(t, err, ErrRolloutRange)

	f.SetRollout(-1)
	_, err = f.Payload()
	assert.ErrorIs(t, err, ErrRolloutRange)

	f = Form{AppVersion: "  "}
	_, err = f.Payload()
	assert.ErrorIs(t, err, ErrAppVersionRequired)

	f = FormFromEntry(models.HistoryEntry{AppVersion: "1.0.0"})
	f.AppVersion = "latest"
	_, err = f.Payload()
	assert.ErrorContains(t, err, `invalid app version "latest"`)
}

// TestForm_StoredRangeSentUnchanged edits the description of a release whose
// app version is a range
func TestForm_StoredRangeSentUnchanged(t *testing.T) {
	for _, stored := range []string{">=1.2.7 <1.3.0", "1.2.3 - 1.2.7", "1.x || 2.x", "whatever the service stored"} {
		f := FormFromEntry(models.HistoryEntry{AppVersion: stored})
		f.Description = "Fix crash on launch"

		update, err := f.Payload()
		require.NoError(t, err, "stored version %q", stored)
		assert.Equal(t, stored, update.AppVersion)
		assert.Equal(t, "Fix crash on launch", update.Description)
	}
}

func TestValidateAppVersion(t *testing.T) {
	valid := []string{
		"1.2.3", "1.2", "2", ">= 1.0, < 2.0", "~> 1.2", "^1.2.3", "~1.2", "1.2.x", "1.*", " 3.0.0 ",
		">=1.2.7 <1.3.0", "1.2.3 - 1.2.7", "1.x || 2.x", "^1.2.0 || >= 3.0", "*", "1.0.0-beta.1",
	}
	for _, v := range valid {
		assert.NoError(t, ValidateAppVersion(v), "version %q", v)
	}

	invalid := []string{"latest", "1..2", "x.y.z", "^", ">=", "1.x ||", "|| 2.x", "1.2.3 -", "- 1.2", ">= < 2.0"}
	for _, v := range invalid {
		assert.Error(t, ValidateAppVersion(v), "version %q", v)
	}
}

func TestDetails(t *testing.T) {
	rows := Details("MyApp", "Production", models.HistoryEntry{
		AppVersion:  "1.0.0",
		IsMandatory: true,
		Rollout:     models.IntPtr(0),
	})

	want := []DetailRow{
		{"App Name", "MyApp"},
		{"Deployment Name", "Production"},
		{"App Version", "1.0.0"},
		{"Description", "N/A"},
		{"Mandatory", "Yes"},
		{"Rollout", "N/A"},
		{"Disabled", "No"},
	}
	assert.Equal(t, want, rows)
}
