package chat

import (
	"fmt"
	"strings"
	"time"

	"food-chat/models"
)

// Reply copy shown to the user. Kept in one place so transports (HTTP,
// Telegram) render identical conversations.

const checkoutPrompt = "Would you like to:\n1 - Schedule this order\n2 - Pay now\n0 - Cancel"

func MainMenu() string {
	return `Welcome to our Restaurant! 🍽️

Please select an option:
1️⃣ Place an order
9️⃣9️⃣ Checkout order
9️⃣8️⃣ See order history
9️⃣7️⃣ See current order
0️⃣ Cancel order

Enter your choice (1, 99, 98, 97, or 0):`
}

func FormatMenu(items []models.MenuItem) string {
	var b strings.Builder
	b.WriteString("📋 Our Menu:\n\n")
	currentCategory := ""
	for _, it := range items {
		if it.Category != currentCategory {
			currentCategory = it.Category
			fmt.Fprintf(&b, "\n--- %s ---\n", strings.ToUpper(currentCategory))
		}
		fmt.Fprintf(&b, "%d. %s - ₦%s\n", it.ID, it.Name, FormatAmount(it.Price))
		fmt.Fprintf(&b, "   %s\n\n", it.Description)
	}
	b.WriteString("\nEnter the item number to add to cart, or 0 to return to main menu:")
	return b.String()
}

func FormatCart(lines []models.CartLine) string {
	if len(lines) == 0 {
		return "Your cart is empty. Select 1 from main menu to start ordering."
	}
	var b strings.Builder
	b.WriteString("🛒 Your Current Order:\n\n")
	var total int64
	for i, l := range lines {
		lineTotal := l.Price * int64(l.Quantity)
		total += lineTotal
		fmt.Fprintf(&b, "%d. %s x%d - ₦%s\n", i+1, l.Name, l.Quantity, FormatAmount(lineTotal))
	}
	fmt.Fprintf(&b, "\n💰 Total: ₦%s\n\n", FormatAmount(total))
	b.WriteString("Options:\n99 - Checkout\n0 - Return to main menu")
	return b.String()
}

func FormatHistory(orders []models.PlacedOrder) string {
	if len(orders) == 0 {
		return "You have no order history yet."
	}
	var b strings.Builder
	b.WriteString("📜 Your Order History:\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "Order #%d - %s\n", o.ID, FormatShortDateTime(o.CreatedAt))
		fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(o.PaymentStatus))
		for _, it := range o.Items {
			fmt.Fprintf(&b, "  • %s x%d - ₦%s\n", it.ItemName, it.Quantity, FormatAmount(it.Price*int64(it.Quantity)))
		}
		fmt.Fprintf(&b, "Total: ₦%s\n", FormatAmount(o.TotalAmount))
		if o.ScheduledFor != nil {
			fmt.Fprintf(&b, "Scheduled for: %s\n", FormatShortDateTime(*o.ScheduledFor))
		}
		b.WriteString("\n")
	}
	b.WriteString("Enter 0 to return to main menu:")
	return b.String()
}

// FormatAmount renders kobo as naira with thousands separators, keeping
// the fractional part only when it is non-zero: 250000 → "2,500",
// 250050 → "2,500.50".
func FormatAmount(kobo int64) string {
	neg := kobo < 0
	if neg {
		kobo = -kobo
	}
	naira := kobo / 100
	rem := kobo % 100

	digits := fmt.Sprintf("%d", naira)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if rem != 0 {
		out = fmt.Sprintf("%s.%02d", out, rem)
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatShortDateTime renders a timestamp the way the chat shows it,
// e.g. "Jan 2, 03:04 PM".
func FormatShortDateTime(t time.Time) string {
	return t.Format("Jan 2, 03:04 PM")
}
