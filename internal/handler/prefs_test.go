package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/handler"
)

type fakeKV struct {
	values map[string]string
}

func (f *fakeKV) GetKV(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", apperror.NotFound("preference", key)
	}
	return value, nil
}

func (f *fakeKV) SetKV(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func newPrefsHandler() (*handler.PrefsHandler, *fakeKV) {
	kv := &fakeKV{values: make(map[string]string)}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return handler.NewPrefsHandler(kv, logger), kv
}

func TestPrefsHandler_RoundTrip(t *testing.T) {
	h, kv := newPrefsHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/prefs/theme", bytes.NewBufferString(`{"value":"dark"}`))
	req.SetPathValue("key", "theme")
	rr := httptest.NewRecorder()
	h.HandleSet(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dark", kv.values["theme"])

	req = httptest.NewRequest(http.MethodGet, "/api/prefs/theme", nil)
	req.SetPathValue("key", "theme")
	rr = httptest.NewRecorder()
	h.HandleGet(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var env struct {
		Data    map[string]string `json:"data"`
		Success bool              `json:"success"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, "dark", env.Data["value"])
}

func TestPrefsHandler_UnknownKey(t *testing.T) {
	h, _ := newPrefsHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/prefs/secret", nil)
	req.SetPathValue("key", "secret")
	rr := httptest.NewRecorder()
	h.HandleGet(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/prefs/secret", bytes.NewBufferString(`{"value":"x"}`))
	req.SetPathValue("key", "secret")
	rr = httptest.NewRecorder()
	h.HandleSet(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPrefsHandler_EmptyValue(t *testing.T) {
	h, _ := newPrefsHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/prefs/theme", bytes.NewBufferString(`{"value":""}`))
	req.SetPathValue("key", "theme")
	rr := httptest.NewRecorder()
	h.HandleSet(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
