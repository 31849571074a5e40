package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"food-chat/bot"
	"food-chat/chat"
	"food-chat/config"
	"food-chat/db"
	"food-chat/httpapi"
	"food-chat/payment"
	"food-chat/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Check for migrate subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(ctx, cfg)
		return
	}

	if err := db.Init(ctx, cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	// Optional auto-migration (useful in production and for fresh DBs).
	// Set AUTO_MIGRATE=1 (or "true") to enable.
	if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
		if err := applyMigrations(ctx, false); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	sessions := services.NewSessions(db.Pool)
	catalog := services.NewCatalog(db.Pool)
	carts := services.NewCarts(db.Pool)
	orders := services.NewOrders(db.Pool)

	engine := chat.NewEngine(sessions, catalog, carts, orders)
	gateway := payment.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL)

	chatH := httpapi.NewChatHandler(engine)
	payH := httpapi.NewPaymentHandler(gateway, orders, sessions, cfg.HTTP.BaseURL, cfg.Paystack.SecretKey)
	router := httpapi.NewRouter(chatH, payH, db.Pool)

	// Optional Telegram transport over the same engine (TOKEN).
	if cfg.Telegram.Token != "" {
		tg, err := bot.New(cfg.Telegram.Token, engine)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bot:", err)
			os.Exit(1)
		}
		go tg.Start()
		fmt.Println("Telegram bot started.")
	}

	fmt.Printf("Server running on http://localhost:%s\n", cfg.HTTP.Port)
	if err := http.ListenAndServe(":"+cfg.HTTP.Port, router); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, cfg *config.Config) {
	if err := db.Init(ctx, cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(ctx, true); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
