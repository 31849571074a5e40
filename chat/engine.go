package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"food-chat/models"
	"food-chat/services"
)

// Store contracts the engine needs. Production wiring uses the Postgres
// stores from the services package; tests supply in-memory fakes.

type SessionStore interface {
	GetOrCreate(ctx context.Context, deviceID string) (*models.Session, error)
	SetState(ctx context.Context, deviceID, state string) error
}

type CatalogReader interface {
	ListAvailable(ctx context.Context) ([]models.MenuItem, error)
}

type CartStore interface {
	Add(ctx context.Context, deviceID string, menuItemID int64, qty int) (*models.CartLine, error)
	Get(ctx context.Context, deviceID string) ([]models.CartLine, error)
	Clear(ctx context.Context, deviceID string) error
}

type OrderLedger interface {
	Place(ctx context.Context, deviceID string, scheduledFor *time.Time) (*models.PlacedOrder, error)
	History(ctx context.Context, deviceID string) ([]models.PlacedOrder, error)
}

// PaymentDirective tells the transport to drive the external payment flow
// for a freshly placed order. Amount is kobo.
type PaymentDirective struct {
	OrderID int64
	Amount  int64
}

// Reply is the outcome of one turn.
type Reply struct {
	Text    string
	State   string
	Payment *PaymentDirective
}

// Engine interprets one inbound message against the session's current
// state. It holds no per-device state between turns; every call reloads
// the session, so any number of engines may run concurrently.
type Engine struct {
	sessions SessionStore
	catalog  CatalogReader
	carts    CartStore
	orders   OrderLedger
}

func NewEngine(sessions SessionStore, catalog CatalogReader, carts CartStore, orders OrderLedger) *Engine {
	return &Engine{sessions: sessions, catalog: catalog, carts: carts, orders: orders}
}

var (
	numericRe = regexp.MustCompile(`^\d+$`)
	dateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)
)

const scheduleLayout = "2006-01-02 15:04"

// States whose input must match ^\d+$ before any rule runs.
var numericInputStates = map[string]bool{
	models.StateMainMenu:        true,
	models.StateOrdering:        true,
	models.StateViewingCart:     true,
	models.StateViewingHistory:  true,
	models.StateCheckoutOptions: true,
}

// outcome of a single rule. persisted means the rule already committed the
// session state itself (placement does, inside its transaction).
type outcome struct {
	text      string
	next      string
	payment   *PaymentDirective
	persisted bool
}

type rule struct {
	state string
	match func(input string) bool
	run   func(ctx context.Context, e *Engine, deviceID, input string) (outcome, error)
}

func exactly(want string) func(string) bool {
	return func(in string) bool { return in == want }
}

func anyInput(string) bool { return true }

// The (state × input) table. Rules are tried top down within a state; each
// state ends with a catch-all.
var transitions = []rule{
	{models.StateMainMenu, exactly("1"), showMenuForOrdering},
	{models.StateMainMenu, exactly("99"), beginCheckout},
	{models.StateMainMenu, exactly("98"), showHistory},
	{models.StateMainMenu, exactly("97"), showCart},
	{models.StateMainMenu, exactly("0"), cancelCart},
	{models.StateMainMenu, anyInput, invalidOption},

	{models.StateOrdering, exactly("0"), backToMainMenu},
	{models.StateOrdering, anyInput, addItem},

	{models.StateViewingCart, exactly("0"), backToMainMenu},
	{models.StateViewingCart, exactly("99"), checkoutFromCart},
	{models.StateViewingCart, anyInput, invalidOption},

	{models.StateViewingHistory, exactly("0"), backToMainMenu},
	{models.StateViewingHistory, anyInput, invalidOption},

	{models.StateCheckoutOptions, exactly("0"), backToMainMenu},
	{models.StateCheckoutOptions, exactly("1"), askSchedule},
	{models.StateCheckoutOptions, exactly("2"), placeNow},
	{models.StateCheckoutOptions, anyInput, invalidCheckoutOption},

	{models.StateScheduling, exactly("0"), backToMainMenu},
	{models.StateScheduling, anyInput, scheduleOrder},

	{models.StatePaymentPending, exactly("0"), backToMainMenu},
	{models.StatePaymentPending, anyInput, paymentPendingNotice},
}

// Init creates or fetches the session and returns the greeting. The stored
// state is left alone; a returning device resumes where it was.
func (e *Engine) Init(ctx context.Context, deviceID string) (*Reply, error) {
	if _, err := e.sessions.GetOrCreate(ctx, deviceID); err != nil {
		return nil, err
	}
	return &Reply{Text: MainMenu(), State: models.StateMainMenu}, nil
}

// HandleMessage runs one turn: load session, dispatch on (state, input),
// persist the next state, reply.
func (e *Engine) HandleMessage(ctx context.Context, deviceID, message string) (*Reply, error) {
	sess, err := e.sessions.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	input := strings.TrimSpace(message)

	out, err := e.dispatch(ctx, sess.State, deviceID, input)
	if err != nil {
		return nil, err
	}
	if !out.persisted {
		if err := e.sessions.SetState(ctx, deviceID, out.next); err != nil {
			return nil, err
		}
	}
	return &Reply{Text: out.text, State: out.next, Payment: out.payment}, nil
}

func (e *Engine) dispatch(ctx context.Context, state, deviceID, input string) (outcome, error) {
	if numericInputStates[state] && !numericRe.MatchString(input) {
		return outcome{
			text: "⚠️ Invalid input. Please enter a number.\n\n" + MainMenu(),
			next: models.StateMainMenu,
		}, nil
	}
	for _, r := range transitions {
		if r.state == state && r.match(input) {
			return r.run(ctx, e, deviceID, input)
		}
	}
	// Unknown stored state: recover to the main menu.
	return outcome{text: MainMenu(), next: models.StateMainMenu}, nil
}

// --- rule bodies ---

func showMenuForOrdering(ctx context.Context, e *Engine, _, _ string) (outcome, error) {
	items, err := e.catalog.ListAvailable(ctx)
	if err != nil {
		return outcome{}, err
	}
	return outcome{text: FormatMenu(items), next: models.StateOrdering}, nil
}

func beginCheckout(ctx context.Context, e *Engine, deviceID, _ string) (outcome, error) {
	lines, err := e.carts.Get(ctx, deviceID)
	if err != nil {
		return outcome{}, err
	}
	if len(lines) == 0 {
		return outcome{
			text: "No order to place. Select 1 to start ordering.\n\n" + MainMenu(),
			next: models.StateMainMenu,
		}, nil
	}
	return outcome{
		text: FormatCart(lines) + "\n\n" + checkoutPrompt,
		next: models.StateCheckoutOptions,
	}, nil
}

func showHistory(ctx context.Context, e *Engine, deviceID, _ string) (outcome, error) {
	orders, err := e.orders.History(ctx, deviceID)
	if err != nil {
		return outcome{}, err
	}
	return outcome{text: FormatHistory(orders), next: models.StateViewingHistory}, nil
}

func showCart(ctx context.Context, e *Engine, deviceID, _ string) (outcome, error) {
	lines, err := e.carts.Get(ctx, deviceID)
	if err != nil {
		return outcome{}, err
	}
	return outcome{text: FormatCart(lines), next: models.StateViewingCart}, nil
}

func cancelCart(ctx context.Context, e *Engine, deviceID, _ string) (outcome, error) {
	if err := e.carts.Clear(ctx, deviceID); err != nil {
		return outcome{}, err
	}
	return outcome{
		text: "Order cancelled successfully.\n\n" + MainMenu(),
		next: models.StateMainMenu,
	}, nil
}

func invalidOption(_ context.Context, _ *Engine, _, _ string) (outcome, error) {
	return outcome{
		text: "⚠️ Invalid option. Please try again.\n\n" + MainMenu(),
		next: models.StateMainMenu,
	}, nil
}

func backToMainMenu(_ context.Context, _ *Engine, _, _ string) (outcome, error) {
	return outcome{text: MainMenu(), next: models.StateMainMenu}, nil
}

func addItem(ctx context.Context, e *Engine, deviceID, input string) (outcome, error) {
	itemID, convErr := strconv.ParseInt(input, 10, 64)
	items, err := e.catalog.ListAvailable(ctx)
	if err != nil {
		return outcome{}, err
	}
	if convErr != nil {
		return outcome{
			text: "⚠️ Invalid item number. Please try again.\n\n" + FormatMenu(items),
			next: models.StateOrdering,
		}, nil
	}
	line, err := e.carts.Add(ctx, deviceID, itemID, 1)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			return outcome{
				text: "⚠️ Invalid item number. Please try again.\n\n" + FormatMenu(items),
				next: models.StateOrdering,
			}, nil
		}
		return outcome{}, err
	}
	text := fmt.Sprintf("✅ %s added to cart!\n\nContinue ordering or enter 0 for main menu:\n\n%s",
		line.Name, FormatMenu(items))
	return outcome{text: text, next: models.StateOrdering}, nil
}

func checkoutFromCart(_ context.Context, _ *Engine, _, _ string) (outcome, error) {
	return outcome{text: checkoutPrompt, next: models.StateCheckoutOptions}, nil
}

func askSchedule(_ context.Context, _ *Engine, _, _ string) (outcome, error) {
	return outcome{
		text: "Enter date & time (YYYY-MM-DD HH:MM):\nOr enter 0 to cancel:",
		next: models.StateScheduling,
	}, nil
}

func placeNow(ctx context.Context, e *Engine, deviceID, _ string) (outcome, error) {
	return e.place(ctx, deviceID, nil)
}

func invalidCheckoutOption(_ context.Context, _ *Engine, _, _ string) (outcome, error) {
	return outcome{
		text: "⚠️ Invalid option. Please enter 1, 2, or 0.",
		next: models.StateCheckoutOptions,
	}, nil
}

func scheduleOrder(ctx context.Context, e *Engine, deviceID, input string) (outcome, error) {
	if !dateRe.MatchString(input) {
		return outcome{
			text: "⚠️ Invalid format. Use YYYY-MM-DD HH:MM:",
			next: models.StateScheduling,
		}, nil
	}
	when, err := time.ParseInLocation(scheduleLayout, input, time.Local)
	if err != nil {
		return outcome{
			text: "⚠️ Invalid format. Use YYYY-MM-DD HH:MM:",
			next: models.StateScheduling,
		}, nil
	}
	if !when.After(time.Now()) {
		return outcome{
			text: "⚠️ Scheduled time must be in the future. Please try again:",
			next: models.StateScheduling,
		}, nil
	}
	return e.place(ctx, deviceID, &when)
}

func paymentPendingNotice(_ context.Context, _ *Engine, _, _ string) (outcome, error) {
	return outcome{
		text: "Your order is awaiting payment. Complete the payment, or enter 0 for the main menu.",
		next: models.StatePaymentPending,
	}, nil
}

// place runs the cart-to-order conversion. A nil order means the cart was
// empty when the transaction looked, which includes the losing side of a
// double submit, and is reported as a failed placement, not an error.
func (e *Engine) place(ctx context.Context, deviceID string, scheduledFor *time.Time) (outcome, error) {
	order, err := e.orders.Place(ctx, deviceID, scheduledFor)
	if err != nil {
		return outcome{}, err
	}
	if order == nil {
		return outcome{
			text: "Failed to place order. Please try again.\n\n" + MainMenu(),
			next: models.StateMainMenu,
		}, nil
	}
	var text string
	if scheduledFor != nil {
		text = fmt.Sprintf("✅ Order scheduled for %s!\nOrder ID: %d\n\nProceed to payment?",
			FormatShortDateTime(*scheduledFor), order.ID)
	} else {
		text = fmt.Sprintf("Order placed! Order ID: %d\nTotal: ₦%s\n\nProceed to payment?",
			order.ID, FormatAmount(order.TotalAmount))
	}
	return outcome{
		text:    text,
		next:    models.StatePaymentPending,
		payment: &PaymentDirective{OrderID: order.ID, Amount: order.TotalAmount},
		// Place moved the session to payment_pending in its own transaction.
		persisted: true,
	}, nil
}
