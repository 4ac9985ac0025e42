package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New(CodeNotFound, "assessment not found")
	assert.Equal(t, "[COMMON_005] assessment not found", e.Error())

	withDetail := e.WithDetail("id=42")
	assert.Equal(t, "[COMMON_005] assessment not found: id=42", withDetail.Error())
	// WithDetail must not mutate the receiver.
	assert.Empty(t, e.Detail)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeDatabaseError, "ignored"))

	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(cause, CodeDatabaseError, "failed to load scores")
	assert.Equal(t, CodeDatabaseError, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestWrap_PreservesCodeThroughLayers(t *testing.T) {
	inner := New(CodeAssessmentNotFound, "assessment not found")
	outer := Wrap(inner, CodeUnknown, "override failed")
	assert.Equal(t, CodeAssessmentNotFound, outer.Code)
	assert.True(t, IsNotFound(outer))
}

func TestIsCode_Chain(t *testing.T) {
	inner := New(CodeWeightSumInvalid, "weights must sum to 100")
	outer := Wrap(inner, CodeInternal, "update rejected")
	assert.True(t, IsCode(outer, CodeWeightSumInvalid))
	assert.False(t, IsCode(outer, CodeNotFound))
}

func TestSerializationCode(t *testing.T) {
	cause := fmt.Errorf("invalid character 'x'")
	wrapped := Wrap(cause, CodeSerialization, "failed to marshal domain ratings")
	assert.Equal(t, ErrCodeSerialization, wrapped.Code)
	assert.True(t, IsCode(wrapped, CodeSerialization))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(wrapped))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))
	assert.Equal(t, CodeValidation, GetCode(Validation("bad rating")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("nope")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(CodeWeightSumInvalid, "sum")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(New(CodeAIResponseInvalid, "garbled")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}
