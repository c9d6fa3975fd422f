package onesignal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"push-manager/core/catalog"
	"push-manager/core/kvstore"
	"push-manager/core/provider"
	"push-manager/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	user     *User
	status   int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		if len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.Body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		user, status := f.user, f.status
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"errors":["boom"]}`))
			return
		}
		if r.Method == http.MethodGet {
			if user == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(user)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setupSession(t *testing.T, api *fakeAPI) *Session {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	client := NewClient(Config{AppID: "app-1", APIKey: "secret", BaseURL: srv.URL})
	return client.Session("visitor-1")
}

func pushUser() *User {
	return &User{
		Identity: map[string]string{"onesignal_id": "os-123", "external_id": "visitor-1"},
		Subscriptions: []Subscription{
			{ID: "email-1", Type: "Email", Enabled: true},
			{ID: "sub-1", Type: "ChromePush", Enabled: true},
		},
	}
}

func TestInit_NotConfigured(t *testing.T) {
	s := NewClient(Config{}).Session("visitor-1")
	assert.ErrorIs(t, s.Init(context.Background()), provider.ErrNotConfigured)
}

func TestInit_UnknownUserIsFine(t *testing.T) {
	api := &fakeAPI{}
	s := setupSession(t, api)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, "/apps/app-1/users/by/external_id/visitor-1", api.last().Path)
	assert.Equal(t, "Key secret", api.last().Auth)

	opted, _ := s.OptedIn(context.Background())
	assert.False(t, opted)
}

func TestInit_ServerErrorIsTemporary(t *testing.T) {
	api := &fakeAPI{status: http.StatusBadGateway}
	s := setupSession(t, api)

	err := s.Init(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Temporary())
}

func TestInit_KnownUserLoadsOptIn(t *testing.T) {
	api := &fakeAPI{user: pushUser()}
	s := setupSession(t, api)

	require.NoError(t, s.Init(context.Background()))
	opted, _ := s.OptedIn(context.Background())
	assert.True(t, opted)
}

func TestRemoteUserID(t *testing.T) {
	api := &fakeAPI{}
	s := setupSession(t, api)

	id, err := s.RemoteUserID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)

	api.mu.Lock()
	api.user = pushUser()
	api.mu.Unlock()

	id, err = s.RemoteUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "os-123", id)
}

func TestEditTags_SingleRequest(t *testing.T) {
	api := &fakeAPI{}
	s := setupSession(t, api)

	err := s.EditTags(context.Background(), "os-123",
		map[string]string{"emergencies": "true"},
		[]string{"events", "weekly_report"})
	require.NoError(t, err)

	api.mu.Lock()
	assert.Len(t, api.requests, 1)
	api.mu.Unlock()

	req := api.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/apps/app-1/users/by/onesignal_id/os-123", req.Path)
	tags := req.Body["properties"].(map[string]any)["tags"].(map[string]any)
	assert.Equal(t, map[string]any{"emergencies": "true", "events": "", "weekly_report": ""}, tags)
}

func TestRemoveTags_EmptyValues(t *testing.T) {
	api := &fakeAPI{}
	s := setupSession(t, api)

	require.NoError(t, s.RemoveTags(context.Background(), "os-123", []string{"events"}))
	tags := api.last().Body["properties"].(map[string]any)["tags"].(map[string]any)
	assert.Equal(t, map[string]any{"events": ""}, tags)
}

func TestOptOut_LooksUpSubscription(t *testing.T) {
	api := &fakeAPI{user: pushUser()}
	s := setupSession(t, api)

	require.NoError(t, s.OptOut(context.Background()))

	req := api.last()
	assert.Equal(t, "/apps/app-1/subscriptions/sub-1", req.Path)
	assert.Equal(t, map[string]any{"enabled": false}, req.Body["subscription"])

	opted, _ := s.OptedIn(context.Background())
	assert.False(t, opted)
}

func TestOptIn_NoPushSubscription(t *testing.T) {
	api := &fakeAPI{}
	s := setupSession(t, api)

	assert.ErrorIs(t, s.OptIn(context.Background()), ErrNoPushSubscription)
}

func TestReports_EmitOnlyOnChange(t *testing.T) {
	s := NewClient(Config{AppID: "a", APIKey: "k"}).Session("visitor-1")

	var subs []bool
	var perms []provider.Permission
	s.OnSubscriptionChange(func(b bool) { subs = append(subs, b) })
	s.OnPermissionChange(func(p provider.Permission) { perms = append(perms, p) })

	s.ReportPermission(provider.PermissionDefault)
	s.ReportPermission(provider.PermissionGranted)
	s.ReportSubscription(true, "sub-9")
	s.ReportSubscription(true, "")
	s.ReportSubscription(false, "")

	assert.Equal(t, []provider.Permission{provider.PermissionGranted}, perms)
	assert.Equal(t, []bool{true, false}, subs)
}

func disablePush(api *fakeAPI) {
	api.mu.Lock()
	defer api.mu.Unlock()
	for i := range api.user.Subscriptions {
		if api.user.Subscriptions[i].ID == "sub-1" {
			api.user.Subscriptions[i].Enabled = false
		}
	}
}

func TestRemoteUserID_KeepsReportedOptIn(t *testing.T) {
	api := &fakeAPI{user: pushUser()}
	s := setupSession(t, api)
	require.NoError(t, s.Init(context.Background()))

	var subs []bool
	s.OnSubscriptionChange(func(b bool) { subs = append(subs, b) })

	disablePush(api)
	_, err := s.RemoteUserID(context.Background())
	require.NoError(t, err)

	opted, _ := s.OptedIn(context.Background())
	assert.True(t, opted, "a lookup must not flip the opt-in flag behind the listeners' back")

	s.ReportSubscription(false, "sub-1")
	assert.Equal(t, []bool{false}, subs)
}

func TestSession_OptOutReachesReconciler(t *testing.T) {
	api := &fakeAPI{user: pushUser()}
	s := setupSession(t, api)
	s.ReportPermission(provider.PermissionGranted)

	rec := reconcile.New(s, kvstore.NewMemory(), catalog.Default(), "visitor-1")
	t.Cleanup(rec.Close)

	ctx := context.Background()
	require.NoError(t, rec.Start(ctx))
	require.NoError(t, rec.SelectCategory(ctx, "emergencies"))

	disablePush(api)
	require.NoError(t, rec.SelectCategory(ctx, "events"))

	s.ReportSubscription(false, "sub-1")

	snap, err := rec.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.Subscription.IsSubscribed)
	assert.Equal(t, reconcile.StateUnsubscribed, snap.Subscription.State)
	assert.Empty(t, snap.Selection.LastAppliedCategoryID)
	assert.Equal(t, "events", snap.Selection.SelectedCategoryID)
}

func TestAPIError(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 429}).Temporary())
	assert.True(t, (&APIError{StatusCode: 503}).Temporary())
	assert.False(t, (&APIError{StatusCode: 400}).Temporary())
	assert.True(t, IsNotFound(&APIError{StatusCode: 404}))
	assert.False(t, IsNotFound(assert.AnError))
}
