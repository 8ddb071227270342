package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/conceptra/autopay/app/models"
	"github.com/conceptra/autopay/internal/pkg/billing"
)

const webhookProcessingTimeout = 30 * time.Second

// HandleWebhook receives gateway event notifications. Order matters:
// the signature is checked over the exact inbound bytes before anything
// is parsed or persisted; only then is the event recorded in the
// idempotency ledger and applied. Success is acknowledged only after
// local persistence, so a crash mid-flight causes redelivery.
func HandleWebhook(c *fiber.Ctx) error {
	ctrl := getBillingController()
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := firstHeaderValue(c, "X-Razorpay-Signature")

	if !billing.VerifyWebhookSignature(rawBody, signature, ctrl.WebhookSecret) {
		log.Print("webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessingTimeout)
	defer cancel()

	evt, err := billing.ParseEnvelope(rawBody)
	if err != nil {
		// Verified but malformed: nothing to apply, acknowledge so the
		// gateway stops redelivering it.
		log.Printf("webhook payload not parseable: %v", err)
		return c.JSON(fiber.Map{"status": "ok", "ignored": true})
	}

	eventID := firstHeaderValue(c, "X-Razorpay-Event-Id")
	created, stored, err := ctrl.Service.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderRazorpay,
		ProviderEventID: eventID,
		EventType:       evt.EventName,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("webhook ledger write failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook persist failed"})
	}
	if !created && stored.ProcessedOK() {
		return c.JSON(fiber.Map{"status": "ok", "duplicate": true})
	}

	perr := ctrl.Processor.Process(ctx, evt)
	if perr != nil && !errors.Is(perr, billing.ErrNotApplicable) {
		_ = ctrl.Service.MarkWebhookProcessed(ctx, stored.ID, perr)
		log.Printf("webhook %s processing failed: %v", evt.EventName, perr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}

	_ = ctrl.Service.MarkWebhookProcessed(ctx, stored.ID, nil)
	return c.JSON(fiber.Map{"status": "ok"})
}
