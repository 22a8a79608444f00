package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_TagsAppAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("charges", "debug", &buf)

	logger.WithField("building_id", "b-1").Debug("preview")

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), "app=charges")
	assert.Contains(t, buf.String(), "building_id=b-1")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("", "chatty", &buf)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), "invalid log level")
}

func TestAccessLog_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := New("charges", "info", &buf)
	handler := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charges/x", nil)
	req.Header.Set("X-Request-ID", "req-9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "path=/api/v1/charges/x")
	assert.Contains(t, buf.String(), "request_id=req-9")
}
