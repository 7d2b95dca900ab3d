package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDocumentHandlerCreateRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandlerActionRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents/d-1/actions", strings.NewReader(`{"action":`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "d-1"}}

	h.Action(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandlerAttachRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, 1024)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents/d-1/attachments", nil)
	c.Params = gin.Params{{Key: "id", Value: "d-1"}}

	h.Attach(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/download", nil)

	h.Download(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 20, parseLimit("", 20))
	assert.Equal(t, 20, parseLimit("abc", 20))
	assert.Equal(t, 20, parseLimit("-3", 20))
	assert.Equal(t, 50, parseLimit("50", 20))
}
