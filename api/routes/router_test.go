package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/citypulse-backend/internal/evaluation"
	"github.com/angelmondragon/citypulse-backend/internal/notifications"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	pkgAuth "github.com/angelmondragon/citypulse-backend/pkg/auth"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubEvaluator struct{}

func (stubEvaluator) EvaluateLocation(ctx context.Context, req evaluation.LocationRequest) (*triggers.EvaluationResult, error) {
	return &triggers.EvaluationResult{TriggeredList: []triggers.TriggeredInfo{}}, nil
}

func (stubEvaluator) EvaluateType(ctx context.Context, t triggers.Type, req evaluation.LocationRequest) (*triggers.EvaluationResult, error) {
	return &triggers.EvaluationResult{TriggeredList: []triggers.TriggeredInfo{}}, nil
}

type stubStrategies struct{}

func (stubStrategies) Infos() []triggers.StrategyInfo {
	return []triggers.StrategyInfo{{Type: "HIGH_TEMPERATURE", Enabled: true}}
}

func (stubStrategies) Refresh(ctx context.Context) error {
	return nil
}

func (stubStrategies) Toggle(ctx context.Context, t triggers.Type, enabled bool) error {
	return nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Record(ctx context.Context, n *models.NotificationHistory) error {
	return nil
}

func (stubNotificationsService) Settle(ctx context.Context, id uuid.UUID, status enums.NotificationStatus, reason *string) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{Items: []models.NotificationHistory{}}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, Deps{
		DB:            stubPinger{},
		Redis:         stubPinger{},
		Evaluator:     stubEvaluator{},
		Strategies:    stubStrategies{},
		Notifications: stubNotificationsService{},
		Metrics:       prometheus.NewRegistry(),
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutesArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestTriggerRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/triggers/strategies", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestEvaluateRoutesResolveStaticBeforeParam(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.UserRoleUser)

	for _, path := range []string{"/api/v1/triggers/evaluate/location", "/api/v1/triggers/evaluate/HIGH_TEMPERATURE"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"latitude":40.4,"longitude":-3.7}`))
		req.Header.Set("Authorization", "Bearer "+token)
		resp := serve(router, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestHistoryRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.UserRoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/triggers/history?page=0&size=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("history: expected 200 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/triggers/history/"+uuid.NewString()+"/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200 got %d", resp.Code)
	}
}

func TestToggleRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodPut, "/api/admin/v1/triggers/strategies/HIGH_TEMPERATURE/toggle?enabled=false", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	if resp := serve(router, nonAdmin); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPut, "/api/admin/v1/triggers/strategies/HIGH_TEMPERATURE/toggle?enabled=false", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	if resp := serve(router, admin); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := serve(router, req)
	if got := resp.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
