package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"food-chat/chat"
	"food-chat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type engineMock struct {
	reply      *chat.Reply
	err        error
	lastDevice string
	lastText   string
}

func (m *engineMock) Init(_ context.Context, deviceID string) (*chat.Reply, error) {
	m.lastDevice = deviceID
	return m.reply, m.err
}

func (m *engineMock) HandleMessage(_ context.Context, deviceID, message string) (*chat.Reply, error) {
	m.lastDevice = deviceID
	m.lastText = message
	return m.reply, m.err
}

func TestInit_NewDeviceGetsID(t *testing.T) {
	mock := &engineMock{reply: &chat.Reply{Text: "Welcome", State: models.StateMainMenu}}
	h := NewChatHandler(mock)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat/init", strings.NewReader(`{}`))
	h.Init(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["deviceId"])
	assert.Equal(t, "Welcome", body["message"])
	assert.Equal(t, models.StateMainMenu, body["state"])
	assert.Equal(t, body["deviceId"], mock.lastDevice)
}

func TestInit_KeepsSuppliedDeviceID(t *testing.T) {
	mock := &engineMock{reply: &chat.Reply{Text: "Welcome", State: models.StateMainMenu}}
	h := NewChatHandler(mock)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat/init", strings.NewReader(`{"deviceId":"dev-9"}`))
	h.Init(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-9", mock.lastDevice)
}

func TestMessage_Success(t *testing.T) {
	mock := &engineMock{reply: &chat.Reply{Text: "menu text", State: models.StateOrdering}}
	h := NewChatHandler(mock)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat/message",
		strings.NewReader(`{"deviceId":"dev-1","message":"1"}`))
	h.Message(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "menu text", body["message"])
	assert.Equal(t, models.StateOrdering, body["state"])
	assert.NotContains(t, body, "requiresPayment")
	assert.Equal(t, "dev-1", mock.lastDevice)
	assert.Equal(t, "1", mock.lastText)
}

func TestMessage_PaymentDirective(t *testing.T) {
	mock := &engineMock{reply: &chat.Reply{
		Text:    "Order placed!",
		State:   models.StatePaymentPending,
		Payment: &chat.PaymentDirective{OrderID: 12, Amount: 500000},
	}}
	h := NewChatHandler(mock)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat/message",
		strings.NewReader(`{"deviceId":"dev-1","message":"2"}`))
	h.Message(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(12), body["orderId"])
	assert.Equal(t, float64(500000), body["amount"])
	assert.Equal(t, true, body["requiresPayment"])
}

func TestMessage_MissingFields(t *testing.T) {
	h := NewChatHandler(&engineMock{})

	for _, payload := range []string{`{}`, `{"deviceId":"dev-1"}`, `{"message":"1"}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/chat/message", strings.NewReader(payload))
		h.Message(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "payload %q", payload)
	}
}

func TestMessage_EmptyStringMessageAllowed(t *testing.T) {
	mock := &engineMock{reply: &chat.Reply{Text: "err", State: models.StateMainMenu}}
	h := NewChatHandler(mock)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat/message",
		strings.NewReader(`{"deviceId":"dev-1","message":""}`))
	h.Message(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMessage_EngineFailure(t *testing.T) {
	h := NewChatHandler(&engineMock{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat/message",
		strings.NewReader(`{"deviceId":"dev-1","message":"1"}`))
	h.Message(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to process message")
}
