package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"genesis-intake/metrics"
	"genesis-intake/models"
	"genesis-intake/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testToken = "s3cret-admin"

type testEnv struct {
	app   *fiber.App
	store *services.GormSubmissionStore
}

func setupTestApp(t *testing.T, publicDir string) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	metals := []string{"gold", "silver"}
	m := metrics.New()
	store := services.NewSubmissionStore(db, metals)
	dispatcher := &services.NotificationDispatcher{
		Mailer:    services.LogMailer{},
		FromEmail: "genesis@example.com",
		BaseURL:   "https://genesis.example.com",
		Metrics:   m,
	}

	app := NewApp(Dependencies{
		Intake:     services.NewIntakeService(store, dispatcher, nil, m),
		Admin:      services.NewAdminService(store, metals, 100, 10, m),
		AdminToken: testToken,
		Metrics:    m,
		PublicDir:  publicDir,
	})
	return &testEnv{app: app, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]any, *http.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out, resp
}

func auth() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testToken}
}

const annBody = `{
	"submission_id": "abc123",
	"timestamp": "2025-03-01T12:00:00.000Z",
	"name": "Ann",
	"email": "ann@example.com",
	"jurisdiction": "US",
	"role": "Investor",
	"metal": "gold",
	"unit": "oz",
	"proposed_weight": 10,
	"referral_id": "AAAA1111"
}`

func TestSubmitSuccess(t *testing.T) {
	env := setupTestApp(t, "")

	status, body, resp := env.do(t, http.MethodPost, "/api/submit", annBody, map[string]string{
		"Origin": "https://genesis.example.com",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "abc123", body["submission_id"])
	assert.Equal(t, "AAAA1111", body["referral_id"])
	assert.Equal(t, true, body["email_sent"])
	assert.Equal(t, false, body["internal_notified"])
	assert.NotContains(t, body, "errors")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSubmitMissingFields(t *testing.T) {
	env := setupTestApp(t, "")

	status, body, _ := env.do(t, http.MethodPost, "/api/submit", `{"name":"Ann","proposed_weight":5}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Missing required fields", body["error"])
	assert.Equal(t, []any{
		"submission_id", "timestamp", "email", "jurisdiction", "role", "metal", "unit", "referral_id",
	}, body["missing"])
}

func TestSubmitInvalidWeightAndBody(t *testing.T) {
	env := setupTestApp(t, "")

	bad := strings.Replace(annBody, `"proposed_weight": 10`, `"proposed_weight": -1`, 1)
	status, body, _ := env.do(t, http.MethodPost, "/api/submit", bad, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid proposed_weight", body["error"])

	status, body, _ = env.do(t, http.MethodPost, "/api/submit", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid JSON body", body["error"])

	status, body, _ = env.do(t, http.MethodPost, "/api/submit", `null`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid JSON body", body["error"])
}

func TestSubmitInvalidReferralID(t *testing.T) {
	env := setupTestApp(t, "")

	long := strings.Replace(annBody, `"referral_id": "AAAA1111"`, `"referral_id": "AAAA1111AAAA1111AAAA"`, 1)
	status, body, _ := env.do(t, http.MethodPost, "/api/submit", long, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"success": false, "error": "Invalid referral_id"}, body)
}

func TestSubmitDuplicate(t *testing.T) {
	env := setupTestApp(t, "")

	status, _, _ := env.do(t, http.MethodPost, "/api/submit", annBody, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := env.do(t, http.MethodPost, "/api/submit", annBody, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Duplicate submission", body["error"])
	assert.Equal(t, "submission_id", body["field"])
}

func TestSubmitReferralFromQuery(t *testing.T) {
	env := setupTestApp(t, "")

	status, _, _ := env.do(t, http.MethodPost, "/api/submit", annBody, nil)
	require.Equal(t, http.StatusOK, status)

	second := strings.NewReplacer(`"abc123"`, `"def456"`, `"AAAA1111"`, `"BBBB2222"`).Replace(annBody)
	status, _, _ = env.do(t, http.MethodPost, "/api/submit?ref=AAAA1111", second, nil)
	require.Equal(t, http.StatusOK, status)

	stats, err := env.store.ReferralStats(context.Background(), "AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ReferralCount)
}

func TestSubmitWrongMethod(t *testing.T) {
	env := setupTestApp(t, "")

	status, body, _ := env.do(t, http.MethodGet, "/api/submit", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestAdminRequiresToken(t *testing.T) {
	env := setupTestApp(t, "")

	for _, headers := range []map[string]string{
		nil,
		{"Authorization": "Bearer wrong"},
		{"Authorization": testToken},
		{"Authorization": "bearer " + testToken},
	} {
		status, body, _ := env.do(t, http.MethodGet, "/api/admin/pending", "", headers)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, map[string]any{"success": false, "error": "Unauthorized"}, body)
	}

	// auth is checked before method and route
	status, _, _ := env.do(t, http.MethodPost, "/api/admin/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminEmptyTokenRejectsEverything(t *testing.T) {
	env := setupTestApp(t, "")
	env.app = NewApp(Dependencies{
		Intake:     services.NewIntakeService(env.store, nil, nil, nil),
		Admin:      services.NewAdminService(env.store, []string{"gold"}, 100, 10, nil),
		AdminToken: "",
	})

	status, _, _ := env.do(t, http.MethodGet, "/api/admin/pending", "", map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminMethodAndRouteErrors(t *testing.T) {
	env := setupTestApp(t, "")

	status, body, _ := env.do(t, http.MethodPost, "/api/admin/pending", "", auth())
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body["error"])

	status, body, _ = env.do(t, http.MethodDelete, "/api/admin/stats", "", auth())
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, body, _ = env.do(t, http.MethodGet, "/api/admin/nope", "", auth())
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["error"])
}

func TestAdminQueries(t *testing.T) {
	env := setupTestApp(t, "")

	status, _, _ := env.do(t, http.MethodPost, "/api/submit", annBody, nil)
	require.Equal(t, http.StatusOK, status)
	second := strings.NewReplacer(`"abc123"`, `"def456"`, `"AAAA1111"`, `"BBBB2222"`, `"metal": "gold"`, `"metal": "silver"`).Replace(annBody)
	second = strings.Replace(second, `"referral_id"`, `"referred_by": "AAAA1111", "referral_id"`, 1)
	status, _, _ = env.do(t, http.MethodPost, "/api/submit", second, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := env.do(t, http.MethodGet, "/api/admin/pending", "", auth())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	pending := body["data"].([]any)
	require.Len(t, pending, 2)

	status, body, _ = env.do(t, http.MethodGet, "/api/admin/stats", "", auth())
	require.Equal(t, http.StatusOK, status)
	stats := body["data"].(map[string]any)
	assert.Equal(t, 2.0, stats["total"])
	assert.Equal(t, 10.0, stats["total_weight_gold"])
	assert.Equal(t, 10.0, stats["total_weight_silver"])
	assert.Equal(t, 1.0, stats["unique_jurisdictions"])

	status, body, _ = env.do(t, http.MethodGet, "/api/admin/leaderboard?limit=5", "", auth())
	require.Equal(t, http.StatusOK, status)
	board := body["data"].([]any)
	require.Len(t, board, 1)
	assert.Equal(t, map[string]any{"name": "Ann", "referral_id": "AAAA1111", "referral_count": 1.0}, board[0])

	status, body, _ = env.do(t, http.MethodGet, "/api/admin/dashboard", "", auth())
	require.Equal(t, http.StatusOK, status)
	dash := body["data"].(map[string]any)
	assert.Equal(t, 50.0, dash["referral_rate"])

	status, body, _ = env.do(t, http.MethodGet, "/api/admin/referrals/aaaa1111", "", auth())
	require.Equal(t, http.StatusOK, status)
	ref := body["data"].(map[string]any)
	assert.Equal(t, 1.0, ref["referral_count"])
	assert.Equal(t, 1.0, ref["rank"])

	status, body, _ = env.do(t, http.MethodGet, "/api/admin/referrals/ZZZZ0000", "", auth())
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestPreflight(t *testing.T) {
	env := setupTestApp(t, "")

	status, body, _ := env.do(t, http.MethodOptions, "/api/admin/pending", "", nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, body)

	status, _, resp := env.do(t, http.MethodOptions, "/api/submit", "", map[string]string{
		"Origin":                        "https://genesis.example.com",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestApp(t, "")

	status, body, _ := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "operational", "service": ServiceName}, body)

	_, _, _ = env.do(t, http.MethodPost, "/api/submit", annBody, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `genesis_submissions_total{result="accepted"} 1`)
}

func TestStaticPages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Genesis</h1>"), 0o644))
	env := setupTestApp(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "Genesis")
}
