package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "stockbook/internal/adapters/web"
	"stockbook/internal/app"
	"stockbook/internal/core"
	"stockbook/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	stockService := core.NewStockService(pool, ledger)
	reportingService := core.NewReportingService(pool, ledger)
	catalogService := core.NewCatalogService(pool)
	customerService := core.NewCustomerService(pool)
	invoiceService := core.NewInvoiceService(pool, stockService, ledger)
	orgService := core.NewOrgService(pool)
	userService := core.NewUserService(pool)

	svc := app.NewAppService(pool, orgService, stockService, ledger,
		reportingService, catalogService, customerService, invoiceService, userService)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
