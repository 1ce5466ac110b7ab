package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanzai/cpdash/internal/api"
	"github.com/humanzai/cpdash/internal/api/apitest"
	"github.com/humanzai/cpdash/internal/rollback"
	"github.com/humanzai/cpdash/pkg/models"
)

func newClient(t *testing.T, srv *apitest.Server, token string) *api.Client {
	t.Helper()
	c, err := api.New(srv.URL+"/", token, api.WithTimeout(5*time.Second))
	require.NoError(t, err)
	return c
}

func seed(srv *apitest.Server) {
	srv.AddApp(models.App{Name: "MyApp", Deployments: []string{"Production", "Staging"}})
	srv.SetHistory("MyApp", "Production", []models.HistoryEntry{
		{Label: "v1", UploadTime: 100, AppVersion: "1.0.0", PackageHash: "aaa"},
		{Label: "v2", UploadTime: 200, AppVersion: "1.0.0", PackageHash: "bbb", Rollout: models.IntPtr(50)},
		{Label: "v3", UploadTime: 300, AppVersion: "1.1.0", PackageHash: "ccc"},
	})
	srv.SetMetrics("MyApp", "Production", map[string]*models.MetricsEntry{
		"v1": {Active: models.Int64Ptr(4)},
		"v2": nil,
	})
	srv.SetKeys("MyApp", []models.DeploymentKey{{Name: "Production", Key: "prod-key"}})
}

// countingTransport counts round trips through the shared client
type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestClient_TimeoutLeavesSharedClientUnchanged(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	transport := &countingTransport{}
	shared := &http.Client{Transport: transport}

	c, err := api.New(srv.URL, apitest.Token, api.WithHTTPClient(shared), api.WithTimeout(2*time.Second))
	require.NoError(t, err)

	_, err = c.GetApps(context.Background())
	require.NoError(t, err)

	assert.Zero(t, shared.Timeout)
	assert.Equal(t, 1, transport.calls)
}

func TestClient_GetApps(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	apps, err := newClient(t, srv, apitest.Token).GetApps(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "MyApp", apps[0].Name)
	assert.Equal(t, []string{"Production", "Staging"}, apps[0].Deployments)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	_, err := newClient(t, srv, "wrong").GetApps(context.Background())
	require.Error(t, err)

	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "invalid token", se.Message)
}

func TestClient_GetDeploymentHistory(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	entries, err := newClient(t, srv, apitest.Token).GetDeploymentHistory(context.Background(), "MyApp", "Production")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Nil(t, entries[0].Rollout)
	require.NotNil(t, entries[1].Rollout)
	assert.Equal(t, 50, *entries[1].Rollout)
}

func TestClient_GetDeploymentHistory_NotFound(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	_, err := newClient(t, srv, apitest.Token).GetDeploymentHistory(context.Background(), "MyApp", "Nope")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestClient_GetDeploymentMetrics(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	byLabel, err := newClient(t, srv, apitest.Token).GetDeploymentMetrics(context.Background(), "MyApp", "Production")
	require.NoError(t, err)
	require.Contains(t, byLabel, "v1")
	assert.Equal(t, int64(4), *byLabel["v1"].Active)
	assert.Nil(t, byLabel["v2"])
}

func TestClient_GetDeploymentKeys(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	keys, err := newClient(t, srv, apitest.Token).GetDeploymentKeys(context.Background(), "MyApp")
	require.NoError(t, err)
	assert.Equal(t, []models.DeploymentKey{{Name: "Production", Key: "prod-key"}}, keys)
}

func TestClient_UpdateRelease(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	err := newClient(t, srv, apitest.Token).UpdateRelease(context.Background(), "MyApp", "Production", models.ReleaseUpdate{
		AppVersion:  "1.1.0",
		Description: "fix crash",
		IsMandatory: true,
		Rollout:     models.IntPtr(25),
	})
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/apps/MyApp/deployments/Production/release", reqs[0].Path)
	assert.JSONEq(t, `{"packageInfo":{"appVersion":"1.1.0","description":"fix crash","isMandatory":true,"isDisabled":false,"rollout":25}}`, reqs[0].Body)
}

func TestClient_RollbackToLabel(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)
	srv.SetHistory("MyApp", "Staging", []models.HistoryEntry{
		{Label: "v1", UploadTime: 100, AppVersion: "2.0.0"},
		{Label: "v2", UploadTime: 200, AppVersion: "2.0.0"},
	})

	target, err := newClient(t, srv, apitest.Token).RollbackToLabel(context.Background(), "MyApp", "Staging", "v1", rollback.ValidateAppVersion)
	require.NoError(t, err)
	assert.Equal(t, "v1", target.Label)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/apps/MyApp/deployments/Staging/rollback", reqs[0].Path)
	assert.JSONEq(t, `{"label":"v1"}`, reqs[0].Body)
}

func TestClient_RollbackToLabel_MismatchSendsNothing(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	// v1 targets 1.0.0 while the newest release (v3) targets 1.1.0
	_, err := newClient(t, srv, apitest.Token).RollbackToLabel(context.Background(), "MyApp", "Production", "v1", rollback.ValidateAppVersion)
	require.Error(t, err)
	assert.ErrorIs(t, err, rollback.ErrVersionMismatch)
	assert.Empty(t, srv.Requests(), "no rollback request should be sent")
}

func TestClient_RollbackToLabel_Unchecked(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	_, err := newClient(t, srv, apitest.Token).RollbackToLabel(context.Background(), "MyApp", "Production", "v1", rollback.Unchecked)
	require.NoError(t, err)
	assert.Len(t, srv.Requests(), 1)
}

func TestClient_RollbackToPrevious(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)
	c := newClient(t, srv, apitest.Token)

	require.NoError(t, c.RollbackToPrevious(context.Background(), "MyApp", "Production", ""))
	require.NoError(t, c.RollbackToPrevious(context.Background(), "MyApp", "Production", "v2"))

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/apps/MyApp/deployments/Production/rollback", reqs[0].Path)
	assert.Equal(t, "/apps/MyApp/deployments/Production/rollback/v2", reqs[1].Path)
	assert.Empty(t, reqs[0].Body)
}

func TestClient_ServerErrorMessage(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)
	srv.FailNext("/apps", http.StatusInternalServerError)

	_, err := newClient(t, srv, apitest.Token).GetApps(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500 injected failure")
	assert.False(t, api.IsNotFound(err))
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := apitest.NewServer(t)
	seed(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(t, srv, apitest.Token).GetApps(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
