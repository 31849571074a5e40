package models

import "time"

// Conversation states. The session row holds exactly one of these between turns.
const (
	StateMainMenu        = "main_menu"
	StateOrdering        = "ordering"
	StateViewingCart     = "viewing_cart"
	StateViewingHistory  = "viewing_history"
	StateCheckoutOptions = "checkout_options"
	StateScheduling      = "scheduling"
	StatePaymentPending  = "payment_pending"
)

type Session struct {
	DeviceID     string
	State        string
	CreatedAt    time.Time
	LastActivity time.Time
}
