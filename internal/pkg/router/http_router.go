package router

import (
	"github.com/conceptra/autopay/app/controllers"
	"github.com/conceptra/autopay/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize billing controller with gateway, record store and ledger
	controllers.InitializeBillingController()

	// Webhook receiver; body must reach the handler byte-exact
	app.Post("/webhook", controllers.HandleWebhook)

	// Mandate setup passthroughs used by the app frontend
	app.Post("/create-subscription", controllers.HandleCreateSubscription)
	app.Post("/create-order", controllers.HandleCreateOrder)

	h.registerAdminRoutes(app)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.AdminKeyMiddleware())
	admin.Get("/fix-subscription/:id", controllers.HandleFixSubscription)
	admin.Get("/webhook-events", controllers.HandleListWebhookEvents)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
