// Package handlers implements the HTTP endpoints.  Handlers translate
// between the wire shapes and the application services; all domain rules
// live below this layer.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/interfaces/http/middleware"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// ownerID extracts the authenticated caller's UUID.
func ownerID(c *gin.Context) uuid.UUID {
	return middleware.OwnerID(c)
}

// pathID parses a numeric path parameter, failing with a validation error.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, errors.Validation("invalid "+name))
		return 0, false
	}
	return id, true
}

// errorBody is the standard error response shape.
type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// respondError maps an application error onto its HTTP status.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	c.JSON(errors.HTTPStatusForCode(code), errorBody{
		Code:  code.String(),
		Error: errors.GetMessage(err),
	})
}
