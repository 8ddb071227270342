package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/conceptra/autopay/app/models"
	"github.com/conceptra/autopay/internal/pkg/gateway"
	"github.com/conceptra/autopay/internal/pkg/store"
)

// HandleFixSubscription manually re-runs the intro→main upgrade for a
// stuck subscription and repairs its persisted record. Remediation tool
// for lineages the webhook flow could not finish; renders a plain HTML
// result with the upstream error detail on failure.
func HandleFixSubscription(c *fiber.Ctx) error {
	ctrl := getBillingController()
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).Render("admin/fix_result", fiber.Map{
			"Success": false,
			"Detail":  "subscription id is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), gatewayCallTimeout)
	defer cancel()

	log.Printf("MANUAL FIX: upgrading subscription %s", id)
	if err := ctrl.Gateway.UpdateSubscription(ctx, id, gateway.UpdateSubscriptionInput{
		PlanID:           ctrl.Config.MainPlanID,
		ScheduleChangeAt: ctrl.Config.ScheduleChangeAt,
	}); err != nil {
		log.Printf("MANUAL FIX failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).Render("admin/fix_result", fiber.Map{
			"Success":        false,
			"SubscriptionID": id,
			"Detail":         err.Error(),
		})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rec, err := ctrl.Records.GetRecord(ctx, id)
	if err == nil && rec == nil {
		err = ctrl.Records.SetRecord(ctx, id, store.Record{
			SubscriptionID: id,
			Status:         models.SubscriptionStatusActive,
			OriginalPlanID: ctrl.Config.IntroPlanID,
			CurrentPlanID:  ctrl.Config.IntroPlanID,
			CreatedAt:      now,
			ActivatedAt:    now,
		})
	}
	if err == nil {
		err = ctrl.Records.UpdateRecord(ctx, id, map[string]string{
			"currentPlanId": ctrl.Config.MainPlanID,
			"isUpgraded":    "true",
			"upgradedAt":    now,
		})
	}
	if err != nil {
		// Gateway side is fixed; only the local record is stale now.
		log.Printf("SEVERE: manual fix for %s upgraded the gateway but record write failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).Render("admin/fix_result", fiber.Map{
			"Success":        false,
			"SubscriptionID": id,
			"Detail":         "gateway upgraded but record write failed: " + err.Error(),
		})
	}

	log.Printf("MANUAL FIX: subscription %s scheduled for upgrade", id)
	return c.Render("admin/fix_result", fiber.Map{
		"Success":        true,
		"SubscriptionID": id,
		"MainPlanID":     ctrl.Config.MainPlanID,
	})
}

// HandleListWebhookEvents shows the most recent ledger entries, newest
// first. Handy when chasing a stuck lineage.
func HandleListWebhookEvents(c *fiber.Ctx) error {
	ctrl := getBillingController()
	limit := c.QueryInt("limit", 50)

	events, err := ctrl.Service.ListRecentEvents(limit)
	if err != nil {
		log.Printf("webhook event listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event listing failed"})
	}
	return c.JSON(fiber.Map{"events": events})
}
