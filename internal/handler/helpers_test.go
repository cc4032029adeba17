package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockyard/internal/dto"
	"stockyard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// A zero delta is a well-formed request: it must clear validation and reach
// the service, whose NoOpAdjustment sentinel drives the 400 — not a 422
// field error from the binding layer.
func TestBindAdjustRequestAllowsZeroDelta(t *testing.T) {
	c, w := newTestContext(`{"delta":0,"reason":"cycle count"}`)

	var req dto.AdjustStockRequest
	require.True(t, bindAndValidate(c, &req))
	assert.Equal(t, 0, req.Delta)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindAdjustRequestStillRequiresReason(t *testing.T) {
	c, w := newTestContext(`{"delta":5}`)

	var req dto.AdjustStockRequest
	require.False(t, bindAndValidate(c, &req))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRespondServiceErrorMapsNoOpAdjustment(t *testing.T) {
	c, w := newTestContext(`{}`)

	respondServiceError(c, service.ErrNoOpAdjustment)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
