package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/conceptra/autopay/internal/pkg/billing"
	"github.com/conceptra/autopay/internal/pkg/cache"
	"github.com/conceptra/autopay/internal/pkg/database"
	"github.com/conceptra/autopay/internal/pkg/env"
	"github.com/conceptra/autopay/internal/pkg/gateway"
	"github.com/conceptra/autopay/internal/pkg/store"
)

// BillingController bundles the collaborators the billing handlers need.
// Everything is injected so tests can substitute fakes; no handler reaches
// for process-wide gateway or store handles.
type BillingController struct {
	Gateway       gateway.Client
	Records       store.RecordStore
	Service       *billing.Service
	Processor     *billing.Processor
	Config        billing.Config
	KeyID         string
	WebhookSecret string
}

var billingController *BillingController

// InitializeBillingController builds the controller from environment,
// database and cache. Called once from the router during startup.
func InitializeBillingController() {
	gw, err := gateway.NewRazorpayClientFromEnv()
	if err != nil {
		log.Fatalf("billing controller: %v", err)
	}

	cfg := billing.ConfigFromEnv()
	records := store.NewRedisStore(cache.GetClient())
	repo := billing.NewRepository(database.GetDB())

	billingController = &BillingController{
		Gateway:       gw,
		Records:       records,
		Service:       billing.NewService(repo),
		Processor:     billing.NewProcessor(gw, records, repo, cfg),
		Config:        cfg,
		KeyID:         gw.KeyID,
		WebhookSecret: strings.TrimSpace(env.GetEnv("RAZORPAY_WEBHOOK_SECRET", "")),
	}
}

// SetBillingController swaps the controller instance; used by tests.
func SetBillingController(c *BillingController) {
	billingController = c
}

func getBillingController() *BillingController {
	return billingController
}

func firstHeaderValue(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Get(name)); v != "" {
			return v
		}
	}
	return ""
}
