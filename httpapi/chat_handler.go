package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"food-chat/chat"

	"github.com/google/uuid"
)

// ChatEngine is what the chat endpoints need from the conversation engine.
type ChatEngine interface {
	Init(ctx context.Context, deviceID string) (*chat.Reply, error)
	HandleMessage(ctx context.Context, deviceID, message string) (*chat.Reply, error)
}

type ChatHandler struct {
	engine ChatEngine
}

func NewChatHandler(engine ChatEngine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

type initRequest struct {
	DeviceID string `json:"deviceId"`
}

type messageRequest struct {
	DeviceID string `json:"deviceId"`
	Message  *string `json:"message"`
}

type chatResponse struct {
	DeviceID        string `json:"deviceId,omitempty"`
	Message         string `json:"message"`
	State           string `json:"state"`
	OrderID         int64  `json:"orderId,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	RequiresPayment bool   `json:"requiresPayment,omitempty"`
}

// Init creates or fetches a session and returns the greeting. Clients
// without a device id get a fresh one.
func (h *ChatHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.DeviceID == "" {
		req.DeviceID = uuid.NewString()
	}

	reply, err := h.engine.Init(r.Context(), req.DeviceID)
	if err != nil {
		log.Printf("chat init: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to initialize session")
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{
		DeviceID: req.DeviceID,
		Message:  reply.Text,
		State:    reply.State,
	})
}

// Message runs one conversation turn.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Device ID and message are required")
		return
	}
	if req.DeviceID == "" || req.Message == nil {
		respondError(w, http.StatusBadRequest, "Device ID and message are required")
		return
	}

	reply, err := h.engine.HandleMessage(r.Context(), req.DeviceID, *req.Message)
	if err != nil {
		log.Printf("chat message device=%s: %v", req.DeviceID, err)
		respondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	resp := chatResponse{Message: reply.Text, State: reply.State}
	if reply.Payment != nil {
		resp.OrderID = reply.Payment.OrderID
		resp.Amount = reply.Payment.Amount
		resp.RequiresPayment = true
	}
	respondJSON(w, http.StatusOK, resp)
}
