package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestErrorMapsIncompleteData(t *testing.T) {
	c, rec := newContext()
	Error(c, appErrors.IncompleteData(62))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var env struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, appErrors.CodeIncompleteData, env.Error.Code)
	assert.Equal(t, 62.0, env.Error.Details["completion_percentage"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestErrorMapsStaleToConflict(t *testing.T) {
	c, rec := newContext()
	Error(c, fmt.Errorf("grades: %w", appErrors.ErrStale))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeStale)
}

func TestErrorWrapsUnknown(t *testing.T) {
	c, rec := newContext()
	Error(c, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJSONWithMeta(t *testing.T) {
	c, rec := newContext()
	JSON(c, http.StatusOK, gin.H{"a": 1}, map[string]interface{}{"cache_hit": true})
	assert.JSONEq(t, `{"data":{"a":1},"meta":{"cache_hit":true}}`, rec.Body.String())
}

func TestAttachment(t *testing.T) {
	c, rec := newContext()
	Attachment(c, "roster.csv", "text/csv", []byte("a,b\n"))
	assert.Equal(t, `attachment; filename="roster.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}
