package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astralworks/starlog/internal/user"
)

// createUserDirect seeds a user through the store, bypassing HTTP auth.
func createUserDirect(t *testing.T, env *testEnv) uuid.UUID {
	t.Helper()
	u, err := user.New("tester", "tester-"+uuid.NewString()+"@example.com", testStart)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateUser(u))
	return u.ID
}

func TestIssueAndParseUserToken(t *testing.T) {
	userID := uuid.New()

	token, err := IssueUserToken("secret", userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := parseUserToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	token, err := IssueUserToken("secret", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = parseUserToken("other", token)
	assert.Error(t, err)
}

func TestParseUserToken_Expired(t *testing.T) {
	token, err := IssueUserToken("secret", uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = parseUserToken("secret", token)
	assert.Error(t, err)
}

func TestServer_JWTAuth(t *testing.T) {
	env := newTestEnvJWT(t, "jwtsecret")
	u := createUserDirect(t, env)

	token, err := IssueUserToken("jwtsecret", u, time.Hour)
	require.NoError(t, err)

	// Without a token the API refuses
	resp := env.do(t, "GET", "/api/v1/users/"+u.String(), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the token it succeeds
	req, _ := http.NewRequest("GET", "/api/v1/users/"+u.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authed, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestServer_JWTAuth_SubjectMismatchOnStart(t *testing.T) {
	env := newTestEnvJWT(t, "jwtsecret")
	owner := createUserDirect(t, env)
	other := createUserDirect(t, env)

	token, err := IssueUserToken("jwtsecret", other, time.Hour)
	require.NoError(t, err)

	body := `{"user_id":"` + owner.String() + `","pledge":"study","target_minutes":30}`
	req, _ := http.NewRequest("POST", "/api/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
