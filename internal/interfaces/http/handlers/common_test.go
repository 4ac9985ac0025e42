package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridiancap/riskradar/internal/domain/user"
	"github.com/meridiancap/riskradar/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUserRepo is an in-memory user.Repository.
type fakeUserRepo struct {
	users []*user.User
	err   error
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*user.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// doJSON runs a request with a JSON body through the handler and returns the
// recorder.
func doJSON(t *testing.T, method, path string, body interface{}, register func(*gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// asOwner simulates the auth middleware having run for the given owner.
func asOwner(id uuid.UUID, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextOwnerID, id)
		c.Set(middleware.ContextUsername, username)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
