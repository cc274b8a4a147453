package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/notarius-app/notarius/app/controllers"
	"github.com/notarius-app/notarius/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1")

	// Provider webhook ingress: raw body, signature-checked, always 200
	// for understood events including duplicates.
	v1.Post("/payments/webhook/:provider", controllers.HandlePaymentWebhook)
	v1.Get("/payments/webhook/status/:webhookId", controllers.HandleWebhookStatus)

	// Administrative surface
	admin := v1.Group("/", middleware.AdminKeyAuthMiddleware())
	admin.Get("/reconciliation/runs", controllers.HandleListReconciliationRuns)
	admin.Get("/reconciliation/runs/:id/items", controllers.HandleListReconciliationItems)
	admin.Post("/reconciliation/:provider/run", controllers.HandleReconciliationRun)
	admin.Post("/records/:id/anchor", controllers.HandleAnchorRecord)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
