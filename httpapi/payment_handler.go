package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"food-chat/models"
	"food-chat/payment"
	"food-chat/services"

	"github.com/go-chi/chi/v5"
)

// Gateway is the payment-provider surface the handlers use.
type Gateway interface {
	Initialize(ctx context.Context, req payment.InitRequest) (*payment.InitResult, error)
	Verify(ctx context.Context, reference string) (*payment.VerifyResult, error)
}

// OrderStore is the ledger surface the payment flow touches.
type OrderStore interface {
	ByID(ctx context.Context, orderID int64) (*models.PlacedOrder, error)
	MarkPaid(ctx context.Context, orderID int64, reference string) (*models.PlacedOrder, error)
}

type SessionStore interface {
	SetState(ctx context.Context, deviceID, state string) error
}

type PaymentHandler struct {
	gateway   Gateway
	orders    OrderStore
	sessions  SessionStore
	baseURL   string
	secretKey string
}

func NewPaymentHandler(gateway Gateway, orders OrderStore, sessions SessionStore, baseURL, secretKey string) *PaymentHandler {
	return &PaymentHandler{
		gateway:   gateway,
		orders:    orders,
		sessions:  sessions,
		baseURL:   baseURL,
		secretKey: secretKey,
	}
}

type initializeRequest struct {
	OrderID  int64  `json:"orderId"`
	Email    string `json:"email"`
	DeviceID string `json:"deviceId"`
}

// Initialize starts a provider checkout for a pending order.
func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Order ID and email are required")
		return
	}
	if req.OrderID == 0 || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Order ID and email are required")
		return
	}

	order, err := h.orders.ByID(r.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Printf("payment initialize order=%d: %v", req.OrderID, err)
		respondError(w, http.StatusInternalServerError, "Failed to initialize payment")
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		respondError(w, http.StatusBadRequest, "Order already paid")
		return
	}

	res, err := h.gateway.Initialize(r.Context(), payment.InitRequest{
		Email:       req.Email,
		Amount:      order.TotalAmount,
		Reference:   fmt.Sprintf("ORDER-%d-%d", order.ID, time.Now().UnixMilli()),
		CallbackURL: h.baseURL + "/payment-callback.html",
		Metadata:    payment.Metadata{OrderID: order.ID, DeviceID: req.DeviceID},
	})
	if err != nil {
		log.Printf("payment initialize order=%d: %v", req.OrderID, err)
		respondError(w, http.StatusInternalServerError, "Failed to initialize payment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"authorization_url": res.AuthorizationURL,
		"access_code":       res.AccessCode,
		"reference":         res.Reference,
	})
}

// Verify asks the provider about a reference; on success the order is
// marked paid and the device's conversation returns to the main menu.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	res, err := h.gateway.Verify(r.Context(), reference)
	if err != nil {
		log.Printf("payment verify ref=%s: %v", reference, err)
		respondError(w, http.StatusInternalServerError, "Failed to verify payment")
		return
	}
	if res.Status != "success" {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Payment verification failed",
			"status":  res.Status,
		})
		return
	}

	order, err := h.orders.MarkPaid(r.Context(), res.Metadata.OrderID, reference)
	if err != nil {
		log.Printf("payment verify mark paid order=%d: %v", res.Metadata.OrderID, err)
		respondError(w, http.StatusInternalServerError, "Failed to verify payment")
		return
	}
	if res.Metadata.DeviceID != "" {
		if err := h.sessions.SetState(r.Context(), res.Metadata.DeviceID, models.StateMainMenu); err != nil {
			log.Printf("payment verify reset session device=%s: %v", res.Metadata.DeviceID, err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Payment verified successfully",
		"order_id":  order.ID,
		"amount":    res.Amount,
		"reference": reference,
	})
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string           `json:"reference"`
		Metadata  payment.Metadata `json:"metadata"`
	} `json:"data"`
}

// Webhook handles provider callbacks. The signature is HMAC-SHA512 of the
// raw body under the secret key; anything unsigned is acknowledged and
// dropped.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	mac := hmac.New(sha512.New, []byte(h.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(r.Header.Get("x-paystack-signature"))) {
		w.WriteHeader(http.StatusOK)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if event.Event == "charge.success" {
		if _, err := h.orders.MarkPaid(r.Context(), event.Data.Metadata.OrderID, event.Data.Reference); err != nil {
			log.Printf("payment webhook order=%d: %v", event.Data.Metadata.OrderID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		log.Printf("payment confirmed for order %d", event.Data.Metadata.OrderID)
	}
	w.WriteHeader(http.StatusOK)
}
