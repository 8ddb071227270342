package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/conceptra/autopay/app/models"
	"github.com/conceptra/autopay/internal/pkg/gateway"
)

var validate = validator.New()

const gatewayCallTimeout = 20 * time.Second

type createSubscriptionRequest struct {
	Name    string `json:"name" validate:"omitempty,max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Contact string `json:"contact" validate:"omitempty,max=20"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// HandleCreateSubscription sets up an autopay mandate: a subscription on
// the introductory plan, optionally attached to a freshly created
// customer when contact details are sent along.
func HandleCreateSubscription(c *fiber.Ctx) error {
	ctrl := getBillingController()

	var req createSubscriptionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), gatewayCallTimeout)
	defer cancel()

	customerID := ""
	if req.Name != "" || req.Email != "" || req.Contact != "" {
		customer, err := ctrl.Gateway.CreateCustomer(ctx, req.Name, req.Email, req.Contact)
		if err != nil {
			log.Printf("create customer failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong while creating the subscription."})
		}
		customerID = customer.ID
	}

	sub, err := ctrl.Gateway.CreateSubscription(ctx, gateway.CreateSubscriptionInput{
		PlanID:         ctrl.Config.IntroPlanID,
		CustomerID:     customerID,
		TotalCount:     ctrl.Config.TotalCount,
		NotifyCustomer: true,
	})
	if err != nil {
		log.Printf("create subscription failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong while creating the subscription."})
	}

	return c.JSON(fiber.Map{
		"subscription_id": sub.ID,
		"key_id":          ctrl.KeyID,
	})
}

// HandleCreateOrder creates a one-off payment order, used for add-on
// charges outside the recurring mandate.
func HandleCreateOrder(c *fiber.Ctx) error {
	ctrl := getBillingController()

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), gatewayCallTimeout)
	defer cancel()

	order, err := ctrl.Gateway.CreateOrder(ctx, req.Amount, strings.ToUpper(req.Currency), "rcpt_"+uuid.NewString())
	if err != nil {
		log.Printf("create order failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong while creating the order."})
	}

	return c.JSON(fiber.Map{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   ctrl.KeyID,
	})
}

// HandleGetSubscription returns the persisted record for a subscription id.
func HandleGetSubscription(c *fiber.Ctx) error {
	ctrl := getBillingController()
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "subscription id is required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), gatewayCallTimeout)
	defer cancel()

	rec, err := ctrl.Records.GetRecord(ctx, id)
	if err != nil {
		log.Printf("record lookup for %s failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "record lookup failed"})
	}
	if rec != nil {
		return c.JSON(rec)
	}

	// Live record gone (evicted or never written); the relational mirror
	// keeps the lineage queryable.
	mirror, err := ctrl.Service.GetSubscriptionMirror(ctx, models.BillingProviderRazorpay, id)
	if err != nil {
		log.Printf("mirror lookup for %s failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "record lookup failed"})
	}
	if mirror == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "subscription not found"})
	}
	return c.JSON(mirror)
}
