package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier[T, R any] struct {
	result R
	calls  int
	err    error
}

func (s *stubQuerier[T, R]) Query(context.Context, T) (R, error) {
	s.calls++
	return s.result, s.err
}

type inertTimer struct{}

func (inertTimer) Stop() bool { return true }

type inertScheduler struct{}

func (inertScheduler) AfterFunc(time.Duration, func()) dashboard.Timer { return inertTimer{} }
func (inertScheduler) Every(time.Duration, func()) dashboard.Timer     { return inertTimer{} }

func TestHandleAddWidget(t *testing.T) {
	add := &stubCommander[commands.WidgetInput]{}
	api := &Handlers{
		API: &CommandExecutor{AddWidgetCommander: add},
		Viewer: func(*http.Request) (dashboard.ViewerContext, error) {
			return dashboard.ViewerContext{UserID: "u1"}, nil
		},
	}
	buf, _ := json.Marshal(map[string]string{"widget_id": "payroll"})
	req := httptest.NewRequest(http.MethodPost, "/widgets", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleAddWidget(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without snapshot query, got %d", rec.Code)
	}
	if add.calls != 1 || add.last.WidgetID != "payroll" || add.last.Viewer.UserID != "u1" {
		t.Fatalf("expected add to execute with viewer, got %+v", add.last)
	}
}

func TestHandleRemoveWidgetReturnsSnapshot(t *testing.T) {
	remove := &stubCommander[commands.WidgetInput]{}
	snapshot := &stubQuerier[dashboard.ViewerContext, dashboard.Snapshot]{result: dashboard.Snapshot{CycleInterval: 30}}
	api := &Handlers{API: &CommandExecutor{RemoveWidgetCommander: remove}, Snapshot: snapshot}
	req := httptest.NewRequest(http.MethodDelete, "/widgets/payroll", nil)
	rec := httptest.NewRecorder()
	api.HandleRemoveWidget(rec, req, "payroll")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if remove.last.WidgetID != "payroll" {
		t.Fatalf("expected widget id propagation")
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.CycleInterval != 30 {
		t.Fatalf("expected snapshot body, got %+v", snap)
	}
}

func TestHandleRejectedOperationMapsToConflict(t *testing.T) {
	del := &stubCommander[commands.PresetIndexInput]{err: fmt.Errorf("%w: delete preset", dashboard.ErrPresetRejected)}
	api := &Handlers{API: &CommandExecutor{DeletePresetCommander: del}}
	rec := httptest.NewRecorder()
	api.HandleDeletePreset(rec, httptest.NewRequest(http.MethodDelete, "/presets/0", nil), "0")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleBadIndex(t *testing.T) {
	api := &Handlers{API: &CommandExecutor{}}
	rec := httptest.NewRecorder()
	api.HandleSwitchPreset(rec, httptest.NewRequest(http.MethodPost, "/presets/x/activate", nil), "x")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUnconfiguredCommand(t *testing.T) {
	api := &Handlers{API: &CommandExecutor{}}
	rec := httptest.NewRecorder()
	api.HandleToggleCycle(rec, httptest.NewRequest(http.MethodPost, "/cycle/toggle", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing commander, got %d", rec.Code)
	}
}

func TestHandleActivityWithoutFeed(t *testing.T) {
	api := &Handlers{}
	rec := httptest.NewRecorder()
	api.HandleActivity(rec, httptest.NewRequest(http.MethodGet, "/activity?limit=5", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty list, got %d %q", rec.Code, rec.Body.String())
	}
	activity := &stubQuerier[queries.ActivityInput, []dashboard.ActivityItem]{result: []dashboard.ActivityItem{{Action: "add"}}}
	api.Activity = activity
	rec = httptest.NewRecorder()
	api.HandleActivity(rec, httptest.NewRequest(http.MethodGet, "/activity?limit=5", nil))
	if activity.calls != 1 {
		t.Fatalf("expected activity query")
	}
}

func TestCommandExecutorAgainstStore(t *testing.T) {
	store := dashboard.NewPresetStore(dashboard.StoreOptions{Scheduler: inertScheduler{}})
	t.Cleanup(func() { _ = store.Close() })
	source := dashboard.StaticStore(store)
	api := &Handlers{
		API:      NewCommandExecutor(source, nil, nil),
		Snapshot: queries.NewSnapshotQuery(source),
	}

	rec := httptest.NewRecorder()
	api.HandleAddPreset(rec, httptest.NewRequest(http.MethodPost, "/presets", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	body := bytes.NewBufferString(`{"name":"Night shift"}`)
	rec = httptest.NewRecorder()
	api.HandleRenamePreset(rec, httptest.NewRequest(http.MethodPut, "/presets/1/name", body), "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Presets[1].Name != "Night shift" {
		t.Fatalf("expected renamed preset, got %q", snap.Presets[1].Name)
	}

	body = bytes.NewBufferString(`{"seconds":2}`)
	rec = httptest.NewRecorder()
	api.HandleSetCycleInterval(rec, httptest.NewRequest(http.MethodPut, "/cycle/interval", body))
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.CycleInterval != dashboard.MinCycleInterval {
		t.Fatalf("expected clamped interval, got %d", snap.CycleInterval)
	}
}

func TestStatusForError(t *testing.T) {
	cases := map[error]int{
		nil:                          http.StatusOK,
		dashboard.ErrMissingViewer:   http.StatusUnauthorized,
		commands.ErrWidgetForbidden:  http.StatusForbidden,
		commands.ErrNameRestricted:   http.StatusUnprocessableEntity,
		dashboard.ErrPresetRejected:  http.StatusConflict,
		dashboard.ErrStoreClosed:     http.StatusServiceUnavailable,
		commands.ErrGuardUnavailable: http.StatusServiceUnavailable,
		errors.New("disk on fire"):   http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusForError(err); got != want {
			t.Fatalf("StatusForError(%v) = %d, want %d", err, got, want)
		}
	}
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestJWTViewerResolver(t *testing.T) {
	secret := []byte("portal-secret")
	resolver := JWTViewerResolver{Secret: secret}
	token := signToken(t, secret, jwt.MapClaims{
		"sub":         "emp-42",
		"permissions": []string{"team.view", "leave.approve"},
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9")

	viewer, err := resolver.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if viewer.UserID != "emp-42" || len(viewer.Permissions) != 2 || viewer.Locale != "es-es" {
		t.Fatalf("unexpected viewer %+v", viewer)
	}
}

func TestJWTViewerResolverRejectsBadTokens(t *testing.T) {
	resolver := JWTViewerResolver{Secret: []byte("right")}
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	if _, err := resolver.Resolve(req); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without header, got %v", err)
	}
	forged := signToken(t, []byte("wrong"), jwt.MapClaims{"sub": "emp-1"})
	req.Header.Set("Authorization", "Bearer "+forged)
	if _, err := resolver.Resolve(req); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for forged token, got %v", err)
	}
	expired := signToken(t, []byte("right"), jwt.MapClaims{"sub": "emp-1", "exp": time.Now().Add(-time.Hour).Unix()})
	req.Header.Set("Authorization", "Bearer "+expired)
	if _, err := resolver.Resolve(req); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestHandlersRejectUnauthenticatedViewer(t *testing.T) {
	resolver := JWTViewerResolver{Secret: []byte("s")}
	api := &Handlers{Viewer: resolver.Resolve}
	rec := httptest.NewRecorder()
	api.HandleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestParseAcceptLanguageHonoursQuality(t *testing.T) {
	if got := ParseAcceptLanguage("fr;q=0.5, de-CH"); got != "de-ch" {
		t.Fatalf("expected highest quality tag, got %q", got)
	}
	if got := ParseAcceptLanguage(""); got != "" {
		t.Fatalf("expected empty locale for empty header, got %q", got)
	}
}
