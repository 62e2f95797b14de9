package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
	apiv1 "github.com/ManuelReschke/Paywall/internal/api/v1"
	"github.com/ManuelReschke/Paywall/internal/pkg/config"
	"github.com/ManuelReschke/Paywall/internal/pkg/constants"
	"github.com/ManuelReschke/Paywall/internal/pkg/database"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/ManuelReschke/Paywall/internal/pkg/middleware"
	"github.com/ManuelReschke/Paywall/internal/pkg/unlock"
	"github.com/ManuelReschke/Paywall/internal/pkg/wallet"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	cfg := config.Config{
		AuthMode:        middleware.AuthModeTrustedHeader,
		AdminUser:       "admin",
		AdminPassword:   "secret",
		Unlock:          unlock.DefaultConfig(),
		RateLimitMax:    100,
		RateLimitWindow: time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	factory := repository.NewFactory(db)
	overlays := entitlements.NewResolver(factory.GetVipTierRepository(), nil, time.Minute)
	app := fiber.New()
	InstallRouter(app, Dependencies{
		Config:        cfg,
		Unlock:        unlock.NewService(factory, overlays, cfg.Unlock),
		Wallet:        wallet.NewService(factory, overlays),
		Overlays:      overlays,
		Authenticator: cfg.Authenticator(factory.GetUserRepository()),
		HealthChecks: map[string]Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"cache": func(context.Context) error { return errors.New("not configured") },
		},
	})
	return &testServer{app: app, db: db}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	if strings.HasPrefix(path, constants.APIV1Route+constants.AdminRoute) {
		req.SetBasicAuth("admin", "secret")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) user(t *testing.T, id string, coin int64) {
	t.Helper()
	require.NoError(t, s.db.Create(&models.User{UUID: id, Coin: coin}).Error)
}

func TestRoutesAreDocumented(t *testing.T) {
	srv := newTestServer(t, nil)
	base, err := apiv1.FindBasePath()
	require.NoError(t, err)
	doc, err := apiv1.LoadSpec(context.Background(), filepath.Join(base, constants.OpenAPIFile))
	require.NoError(t, err)

	seen := 0
	for _, r := range srv.app.GetRoutes(true) {
		if r.Method == fiber.MethodHead || !strings.HasPrefix(r.Path, constants.APIV1Route+"/") {
			continue
		}
		seen++
		assert.True(t, apiv1.Documents(doc, r.Method, r.Path), "%s %s is not in the OpenAPI document", r.Method, r.Path)
	}
	assert.GreaterOrEqual(t, seen, 10)
}

func TestUnlockFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.user(t, "u1", 10)
	require.NoError(t, srv.db.Create(&models.ComicChapter{ID: 7, MangaID: 1, Coin: 4}).Error)

	status, body := srv.do(t, http.MethodPost, "/api/v1/unlock/comic_chapter", "u1", fiber.Map{"content_id": 7})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "unlocked", body["status"])
	assert.EqualValues(t, 4, body["charged"])
	assert.EqualValues(t, 6, body["balance"])

	status, body = srv.do(t, http.MethodPost, "/api/v1/unlock/comic_chapter", "u1", fiber.Map{"content_id": 7})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["already_owned"])
	assert.EqualValues(t, 0, body["charged"])

	status, body = srv.do(t, http.MethodGet, "/api/v1/unlock/comic_chapter/7", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["unlocked"])
	assert.Equal(t, true, body["can_access"])

	status, body = srv.do(t, http.MethodGet, "/api/v1/unlock/comic_chapter/works/1/unlocked", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{float64(7)}, body["unlocked_ids"])

	status, body = srv.do(t, http.MethodGet, "/api/v1/wallet", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 6, body["balance"])

	status, body = srv.do(t, http.MethodGet, "/api/v1/wallet/ledger?page_size=5", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	entries, ok := body["entries"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "unlock-comic-chapter", entries[0].(map[string]interface{})["scene"])
}

func TestUnlockStatusCodes(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.user(t, "poor", 1)
	require.NoError(t, srv.db.Create(&models.LongVideo{ID: 1, GoldRequired: 5}).Error)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"insufficient funds", "/api/v1/unlock/long_video", fiber.Map{"content_id": 1}, fiber.StatusPaymentRequired, "insufficient_funds"},
		{"missing item", "/api/v1/unlock/long_video", fiber.Map{"content_id": 99}, fiber.StatusNotFound, "not_found"},
		{"unknown type", "/api/v1/unlock/podcast", fiber.Map{"content_id": 1}, fiber.StatusBadRequest, "invalid_argument"},
		{"zero id", "/api/v1/unlock/long_video", fiber.Map{"content_id": 0}, fiber.StatusBadRequest, "invalid_argument"},
		{"whole on videos", "/api/v1/unlock/long_video/whole", fiber.Map{"work_id": 1}, fiber.StatusBadRequest, "invalid_argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.do(t, http.MethodPost, tt.path, "poor", tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestFreeVipVideoOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.user(t, "u1", 0)
	require.NoError(t, srv.db.Create(&models.LongVideo{ID: 2, IsVip: true}).Error)

	status, body := srv.do(t, http.MethodPost, "/api/v1/unlock/long_video", "u1", fiber.Map{"content_id": 2})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "free", body["status"])
	assert.NotEmpty(t, body["expires_at"])
}

func TestUnlockRequiresIdentity(t *testing.T) {
	srv := newTestServer(t, nil)
	status, body := srv.do(t, http.MethodPost, "/api/v1/unlock/long_video", "", fiber.Map{"content_id": 1})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])
}

func TestWholeUnlockOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.user(t, "u1", 100)
	for id, coin := range map[uint64]int64{1: 10, 2: 20, 3: 0} {
		require.NoError(t, srv.db.Create(&models.NovelChapter{ID: id, NovelID: 3, Coin: coin}).Error)
	}

	status, body := srv.do(t, http.MethodPost, "/api/v1/unlock/novel_chapter/whole", "u1", fiber.Map{"work_id": 3})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.EqualValues(t, 30, body["origin_amount"])
	assert.EqualValues(t, 24, body["paid_amount"])
	assert.EqualValues(t, 2, body["unlocked_count"])

	status, body = srv.do(t, http.MethodPost, "/api/v1/unlock/novel_chapter/whole", "u1", fiber.Map{"work_id": 3})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "nothing_to_unlock", body["status"])
}

func TestPurchaseRateLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.RateLimitMax = 2 })
	srv.user(t, "u1", 0)

	for i := 0; i < 2; i++ {
		status, _ := srv.do(t, http.MethodPost, "/api/v1/unlock/long_video", "u1", fiber.Map{"content_id": 1})
		assert.Equal(t, fiber.StatusNotFound, status)
	}
	status, body := srv.do(t, http.MethodPost, "/api/v1/unlock/long_video", "u1", fiber.Map{"content_id": 1})
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["error"])

	// reads are not throttled
	status, _ = srv.do(t, http.MethodGet, "/api/v1/wallet", "u1", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.user(t, "u1", 0)
	tier := models.VipTier{Name: "gold", BypassVipContent: true}
	require.NoError(t, srv.db.Create(&tier).Error)

	status, body := srv.do(t, http.MethodPost, "/api/v1/admin/wallet/credit", "", fiber.Map{"user_id": "u1", "amount": 50})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.EqualValues(t, 50, body["balance"])

	status, body = srv.do(t, http.MethodPost, "/api/v1/admin/wallet/credit", "", fiber.Map{"user_id": "ghost", "amount": 5})
	assert.Equal(t, fiber.StatusNotFound, status, body)

	status, body = srv.do(t, http.MethodPut, "/api/v1/admin/users/u1/vip-tier", "", fiber.Map{"tier_id": tier.ID})
	require.Equal(t, fiber.StatusOK, status, body)
	overlay, ok := body["overlay"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, overlay["bypass_vip"])
	assert.Equal(t, false, overlay["bypass_coin"])

	status, _ = srv.do(t, http.MethodPut, "/api/v1/admin/users/u1/vip-tier", "", fiber.Map{"tier_id": 999})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = srv.do(t, http.MethodGet, "/api/v1/admin/counters/unlock", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status, "counters need the cache")
	assert.Equal(t, "transient_failure", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/wallet/credit", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesDisabledWithoutPassword(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.AdminPassword = "" })
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/wallet/credit", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	status, body := srv.do(t, http.MethodGet, constants.HealthRoute, "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "not configured", checks["cache"])
}
