package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"food-chat/models"
	"food-chat/payment"
	"food-chat/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type gatewayMock struct {
	initReq    *payment.InitRequest
	initResult *payment.InitResult
	verify     *payment.VerifyResult
	err        error
}

func (m *gatewayMock) Initialize(_ context.Context, req payment.InitRequest) (*payment.InitResult, error) {
	m.initReq = &req
	return m.initResult, m.err
}

func (m *gatewayMock) Verify(_ context.Context, _ string) (*payment.VerifyResult, error) {
	return m.verify, m.err
}

type orderStoreMock struct {
	order    *models.PlacedOrder
	err      error
	paidID   int64
	paidRef  string
	paidHits int
}

func (m *orderStoreMock) ByID(_ context.Context, _ int64) (*models.PlacedOrder, error) {
	return m.order, m.err
}

func (m *orderStoreMock) MarkPaid(_ context.Context, orderID int64, reference string) (*models.PlacedOrder, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.paidID = orderID
	m.paidRef = reference
	m.paidHits++
	o := *m.order
	o.PaymentStatus = models.PaymentPaid
	o.PaymentReference = reference
	return &o, nil
}

type sessionStoreMock struct {
	device string
	state  string
}

func (m *sessionStoreMock) SetState(_ context.Context, deviceID, state string) error {
	m.device = deviceID
	m.state = state
	return nil
}

const testSecret = "sk_test_secret"

func newPaymentHandler(g *gatewayMock, o *orderStoreMock, s *sessionStoreMock) *PaymentHandler {
	return NewPaymentHandler(g, o, s, "http://localhost:3000", testSecret)
}

func withReference(r *http.Request, ref string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("reference", ref)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- Initialize ---

func TestInitialize_Success(t *testing.T) {
	gateway := &gatewayMock{initResult: &payment.InitResult{
		AuthorizationURL: "https://checkout.example/abc",
		AccessCode:       "abc",
		Reference:        "ORDER-12-1",
	}}
	orders := &orderStoreMock{order: &models.PlacedOrder{
		ID: 12, DeviceID: "dev-1", TotalAmount: 500000, PaymentStatus: models.PaymentPending,
	}}
	h := newPaymentHandler(gateway, orders, &sessionStoreMock{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/initialize",
		strings.NewReader(`{"orderId":12,"email":"a@b.c","deviceId":"dev-1"}`))
	h.Initialize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://checkout.example/abc", body["authorization_url"])

	require.NotNil(t, gateway.initReq)
	assert.Equal(t, int64(500000), gateway.initReq.Amount) // kobo straight through
	assert.Equal(t, int64(12), gateway.initReq.Metadata.OrderID)
	assert.Equal(t, "dev-1", gateway.initReq.Metadata.DeviceID)
	assert.True(t, strings.HasPrefix(gateway.initReq.Reference, "ORDER-12-"))
	assert.Equal(t, "http://localhost:3000/payment-callback.html", gateway.initReq.CallbackURL)
}

func TestInitialize_MissingFields(t *testing.T) {
	h := newPaymentHandler(&gatewayMock{}, &orderStoreMock{}, &sessionStoreMock{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/initialize", strings.NewReader(`{"orderId":12}`))
	h.Initialize(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitialize_OrderNotFound(t *testing.T) {
	orders := &orderStoreMock{err: services.ErrOrderNotFound}
	h := newPaymentHandler(&gatewayMock{}, orders, &sessionStoreMock{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/initialize",
		strings.NewReader(`{"orderId":99,"email":"a@b.c"}`))
	h.Initialize(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitialize_AlreadyPaid(t *testing.T) {
	orders := &orderStoreMock{order: &models.PlacedOrder{
		ID: 12, TotalAmount: 500000, PaymentStatus: models.PaymentPaid,
	}}
	h := newPaymentHandler(&gatewayMock{}, orders, &sessionStoreMock{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/initialize",
		strings.NewReader(`{"orderId":12,"email":"a@b.c"}`))
	h.Initialize(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already paid")
}

// --- Verify ---

func TestVerify_SuccessMarksPaidAndResetsSession(t *testing.T) {
	gateway := &gatewayMock{verify: &payment.VerifyResult{
		Status:    "success",
		Amount:    500000,
		Reference: "ORDER-12-1",
		Metadata:  payment.Metadata{OrderID: 12, DeviceID: "dev-1"},
	}}
	orders := &orderStoreMock{order: &models.PlacedOrder{ID: 12, TotalAmount: 500000, PaymentStatus: models.PaymentPending}}
	sessions := &sessionStoreMock{}
	h := newPaymentHandler(gateway, orders, sessions)

	rec := httptest.NewRecorder()
	req := withReference(httptest.NewRequest("GET", "/api/payment/verify/ORDER-12-1", nil), "ORDER-12-1")
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), orders.paidID)
	assert.Equal(t, "ORDER-12-1", orders.paidRef)
	assert.Equal(t, "dev-1", sessions.device)
	assert.Equal(t, models.StateMainMenu, sessions.state)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(12), body["order_id"])
}

func TestVerify_FailedCharge(t *testing.T) {
	gateway := &gatewayMock{verify: &payment.VerifyResult{Status: "abandoned"}}
	orders := &orderStoreMock{order: &models.PlacedOrder{ID: 12}}
	h := newPaymentHandler(gateway, orders, &sessionStoreMock{})

	rec := httptest.NewRecorder()
	req := withReference(httptest.NewRequest("GET", "/api/payment/verify/ref", nil), "ref")
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Zero(t, orders.paidHits)
}

// --- Webhook ---

func signBody(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhook_ChargeSuccess(t *testing.T) {
	orders := &orderStoreMock{order: &models.PlacedOrder{ID: 12, TotalAmount: 500000, PaymentStatus: models.PaymentPending}}
	h := newPaymentHandler(&gatewayMock{}, orders, &sessionStoreMock{})

	body := []byte(`{"event":"charge.success","data":{"reference":"ORDER-12-1","metadata":{"order_id":12}}}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(string(body)))
	req.Header.Set("x-paystack-signature", signBody(body))
	h.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), orders.paidID)
	assert.Equal(t, "ORDER-12-1", orders.paidRef)
}

func TestWebhook_BadSignatureIgnored(t *testing.T) {
	orders := &orderStoreMock{order: &models.PlacedOrder{ID: 12}}
	h := newPaymentHandler(&gatewayMock{}, orders, &sessionStoreMock{})

	body := []byte(`{"event":"charge.success","data":{"reference":"r","metadata":{"order_id":12}}}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(string(body)))
	req.Header.Set("x-paystack-signature", "deadbeef")
	h.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, orders.paidHits)
}

func TestWebhook_OtherEventsAcknowledged(t *testing.T) {
	orders := &orderStoreMock{order: &models.PlacedOrder{ID: 12}}
	h := newPaymentHandler(&gatewayMock{}, orders, &sessionStoreMock{})

	body := []byte(`{"event":"transfer.success","data":{}}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(string(body)))
	req.Header.Set("x-paystack-signature", signBody(body))
	h.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, orders.paidHits)
}
