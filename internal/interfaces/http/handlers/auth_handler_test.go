package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridiancap/riskradar/internal/config"
	"github.com/meridiancap/riskradar/internal/domain/user"
	"github.com/meridiancap/riskradar/internal/infrastructure/auth"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
)

func testUser(t *testing.T, username, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  "Demo Analyst",
	}
}

func newAuthFixture(t *testing.T, users ...*user.User) (*AuthHandler, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager(config.AuthConfig{JWTSecret: "handler-test-secret"})
	h := NewAuthHandler(&fakeUserRepo{users: users}, tokens, logging.NewNop())
	return h, tokens
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	u := testUser(t, "demo", "s3cret")
	h, tokens := newAuthFixture(t, u)

	rec := doJSON(t, http.MethodPost, "/api/auth/login",
		gin.H{"username": "demo", "password": "s3cret"},
		func(r *gin.Engine) { r.POST("/api/auth/login", h.Login) })

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "demo", body["username"])
	assert.Equal(t, "Demo Analyst", body["display_name"])

	ownerID, claims, err := tokens.Verify(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, u.ID, ownerID)
	assert.Equal(t, "demo", claims.Username)
}

func TestLogin_SameResponseForUnknownUserAndBadPassword(t *testing.T) {
	h, _ := newAuthFixture(t, testUser(t, "demo", "s3cret"))
	register := func(r *gin.Engine) { r.POST("/api/auth/login", h.Login) }

	unknown := doJSON(t, http.MethodPost, "/api/auth/login",
		gin.H{"username": "nobody", "password": "s3cret"}, register)
	badPass := doJSON(t, http.MethodPost, "/api/auth/login",
		gin.H{"username": "demo", "password": "wrong"}, register)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, badPass.Code)
	assert.Equal(t, unknown.Body.String(), badPass.Body.String())
}

func TestLogin_MissingFields(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := doJSON(t, http.MethodPost, "/api/auth/login",
		gin.H{"username": "demo"},
		func(r *gin.Engine) { r.POST("/api/auth/login", h.Login) })

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe_ReturnsIdentity(t *testing.T) {
	u := testUser(t, "demo", "s3cret")
	h, _ := newAuthFixture(t, u)

	rec := doJSON(t, http.MethodGet, "/api/auth/me", nil, func(r *gin.Engine) {
		r.GET("/api/auth/me", asOwner(u.ID, u.Username), h.Me)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, u.ID.String(), body["id"])
	assert.Equal(t, "demo", body["username"])
}

func TestMe_DeletedAccount(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := doJSON(t, http.MethodGet, "/api/auth/me", nil, func(r *gin.Engine) {
		r.GET("/api/auth/me", asOwner(uuid.New(), "ghost"), h.Me)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
