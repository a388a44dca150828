package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astralworks/starlog/internal/clock"
	"github.com/astralworks/starlog/internal/health"
	"github.com/astralworks/starlog/internal/metrics"
	"github.com/astralworks/starlog/internal/narrative"
	"github.com/astralworks/starlog/internal/notify"
	"github.com/astralworks/starlog/internal/settlement"
	"github.com/astralworks/starlog/internal/store"
)

var testStart = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	app   *fiber.App
	clk   *clock.Fake
	store *store.Store
}

// newTestEnv creates a Fiber app with all routes wired to a temp database.
func newTestEnv(t *testing.T, authMode, apiKey string) *testEnv {
	t.Helper()
	return newTestEnvAuth(t, AuthConfig{Mode: authMode, APIKey: apiKey})
}

func newTestEnvJWT(t *testing.T, secret string) *testEnv {
	t.Helper()
	return newTestEnvAuth(t, AuthConfig{Mode: "jwt", JWTSecret: secret})
}

func newTestEnvAuth(t *testing.T, auth AuthConfig) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := clock.NewFake(testStart)
	gen := narrative.NewGenerator(nil, nil, logger)
	svc := settlement.New(st, clk, gen, notify.Nop{}, metrics.New(), logger)

	checker := health.NewChecker(logger)
	checker.Register("database", func(ctx context.Context) health.Status {
		return health.StatusOK
	})

	handlers := NewHandlers(svc, st, checker, clk, logger)

	srv := NewServer(ServerConfig{
		ListenAddr: ":0",
		AuthConfig: auth,
		RateLimit:  RateLimitConfig{RPS: 100, Burst: 200},
	}, handlers, metrics.New(), logger)

	return &testEnv{app: srv.App(), clk: clk, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) createUser(t *testing.T) UserResponse {
	t.Helper()
	resp := e.do(t, "POST", "/api/v1/users",
		`{"nickname":"tester","email":"tester-`+uuid.NewString()+`@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[UserResponse](t, resp)
}

func (e *testEnv) startSession(t *testing.T, userID uuid.UUID, targetMinutes int) SessionResponse {
	t.Helper()
	body := `{"user_id":"` + userID.String() + `","pledge":"finish chapter 4","target_minutes":` +
		strconv.Itoa(targetMinutes) + `}`
	resp := e.do(t, "POST", "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[SessionResponse](t, resp)
}

func TestServer_HealthzEndpoint(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ReadyzEndpoint(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "GET", "/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bodyBytes, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(bodyBytes), "starlog_active_sessions")
}

func TestServer_APIKeyAuth(t *testing.T) {
	env := newTestEnv(t, "api-key", "secret123")

	// Probes stay open
	resp := env.do(t, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// API requires the key
	resp = env.do(t, "GET", "/api/v1/users/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest("GET", "/api/v1/users/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer secret123")
	authed, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, authed.StatusCode)
}

func TestServer_CreateAndGetUser(t *testing.T) {
	env := newTestEnv(t, "none", "")

	u := env.createUser(t)
	assert.Equal(t, "tester", u.Nickname)
	assert.Equal(t, 1, u.Level)

	resp := env.do(t, "GET", "/api/v1/users/"+u.ID.String(), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[UserResponse](t, resp)
	assert.Equal(t, u.ID, got.ID)
}

func TestServer_CreateUser_InvalidBody(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "POST", "/api/v1/users", `{"nickname":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
}

func TestServer_GetUser_NotFound(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "GET", "/api/v1/users/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GetUser_BadID(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "GET", "/api/v1/users/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)

	sess := env.startSession(t, u.ID, 60)
	assert.Equal(t, "ACTIVE", sess.Status)
	assert.Equal(t, 100, sess.Stamina)

	// Pause after 30 minutes
	env.clk.Advance(30 * time.Minute)
	resp := env.do(t, "POST", "/api/v1/sessions/"+sess.ID.String()+"/pause", `{"reason":"REST"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paused := decode[SessionResponse](t, resp)
	assert.Equal(t, "PAUSED", paused.Status)
	require.Len(t, paused.Interruptions, 1)
	assert.Equal(t, "REST", paused.Interruptions[0].Reason)

	// Resume after 6 minutes of rest
	env.clk.Advance(6 * time.Minute)
	resp = env.do(t, "POST", "/api/v1/sessions/"+sess.ID.String()+"/resume", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resumed := decode[SessionResponse](t, resp)
	assert.Equal(t, "ACTIVE", resumed.Status)
	assert.Less(t, resumed.Stamina, 100)

	// Complete after enough focus to win the hour bet
	env.clk.Advance(40 * time.Minute)
	resp = env.do(t, "POST", "/api/v1/sessions/"+sess.ID.String()+"/complete", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[ResultResponse](t, resp)
	assert.Equal(t, "WIN", result.BetResult)
	assert.Greater(t, result.TotalExp, 0)
}

func TestServer_SecondActiveSessionConflicts(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)
	env.startSession(t, u.ID, 60)

	body := `{"user_id":"` + u.ID.String() + `","pledge":"again","target_minutes":30}`
	resp := env.do(t, "POST", "/api/v1/sessions", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_PauseInvalidReason(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)
	sess := env.startSession(t, u.ID, 60)

	resp := env.do(t, "POST", "/api/v1/sessions/"+sess.ID.String()+"/pause", `{"reason":"NAPPING"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_AbandonCreatesPenalty(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)
	sess := env.startSession(t, u.ID, 60)

	env.clk.Advance(10 * time.Minute)
	resp := env.do(t, "POST", "/api/v1/sessions/"+sess.ID.String()+"/abandon", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[ResultResponse](t, resp)
	assert.Equal(t, "LOSE", result.BetResult)

	resp = env.do(t, "GET", "/api/v1/users/"+u.ID.String()+"/penalties", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string]json.RawMessage](t, resp)
	var penalties []PenaltyResponse
	require.NoError(t, json.Unmarshal(list["penalties"], &penalties))
	require.Len(t, penalties, 1)
	assert.NotEmpty(t, penalties[0].Content)

	// View it, then confirm the flag persisted
	resp = env.do(t, "POST", "/api/v1/penalties/"+penalties[0].ID.String()+"/view", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	viewed := decode[PenaltyResponse](t, resp)
	assert.True(t, viewed.Viewed)
}

func TestServer_FinalizeDay(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)
	sess := env.startSession(t, u.ID, 60)

	env.clk.Advance(65 * time.Minute)
	resp := env.do(t, "POST", "/api/v1/sessions/"+sess.ID.String()+"/complete", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	date := testStart.Format("2006-01-02")
	resp = env.do(t, "POST", "/api/v1/users/"+u.ID.String()+"/days/"+date+"/finalize", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	day := decode[StudyDayResponse](t, resp)
	assert.True(t, day.Finalized)
	assert.Equal(t, 1, day.WinCount)

	// A second finalize conflicts
	resp = env.do(t, "POST", "/api/v1/users/"+u.ID.String()+"/days/"+date+"/finalize", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The day is readable afterwards
	resp = env.do(t, "GET", "/api/v1/users/"+u.ID.String()+"/days/"+date, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, "GET", "/api/v1/users/"+u.ID.String()+"/days?from="+date+"&to="+date, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string]json.RawMessage](t, resp)
	var days []StudyDayResponse
	require.NoError(t, json.Unmarshal(list["days"], &days))
	assert.Len(t, days, 1)
}

func TestServer_FinalizeDay_BadDate(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)

	resp := env.do(t, "POST", "/api/v1/users/"+u.ID.String()+"/days/June-1/finalize", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_TagCRUD(t *testing.T) {
	env := newTestEnv(t, "none", "")
	u := env.createUser(t)

	resp := env.do(t, "POST", "/api/v1/tags",
		`{"user_id":"`+u.ID.String()+`","name":"math","color_hex":"#FF8800"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[TagResponse](t, resp)
	assert.Equal(t, "math", created.Name)

	// Duplicate name conflicts
	resp = env.do(t, "POST", "/api/v1/tags",
		`{"user_id":"`+u.ID.String()+`","name":"math","color_hex":"#00FF00"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, "PATCH", "/api/v1/tags/"+created.ID.String(), `{"name":"calculus"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[TagResponse](t, resp)
	assert.Equal(t, "calculus", updated.Name)
	assert.Equal(t, "#FF8800", updated.ColorHex)

	resp = env.do(t, "GET", "/api/v1/users/"+u.ID.String()+"/tags", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string]json.RawMessage](t, resp)
	var tags []TagResponse
	require.NoError(t, json.Unmarshal(list["tags"], &tags))
	assert.Len(t, tags, 1)

	resp = env.do(t, "DELETE", "/api/v1/tags/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, "DELETE", "/api/v1/tags/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_HealthDetail(t *testing.T) {
	env := newTestEnv(t, "none", "")

	resp := env.do(t, "GET", "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["uptime"])
}
