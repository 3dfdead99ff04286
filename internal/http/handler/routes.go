package handler

import (
	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/http/middleware"
)

type Auth struct {
	BasicUser string
	BasicPass string
}

// Register mounts every route on app.
func (h *Handler) Register(app *fiber.App, auth Auth) {
	app.Get("/", h.Root)
	app.Get("/healthz", h.Health)

	// Tablet pairing (public)
	app.Post("/tablet/login", h.TabletLogin)

	// Tablet push channel; browsers cannot set headers on upgrades, so the
	// token travels in the query string.
	app.Get("/ws/tablet", UpgradeTablet, middleware.TabletAuth(h.jwtSecret), h.TabletSocket())

	// Producer API (checkout backends)
	api := app.Group("/api", middleware.BasicAuth(auth.BasicUser, auth.BasicPass))
	api.Post("/print-jobs", h.CreatePrintJob)
	api.Get("/print-jobs/stats", h.QueueStats)
	api.Get("/restaurants", h.ListRestaurants)
	api.Post("/receipts/render", h.RenderReceipt)
	api.Post("/receipts/print", h.PrintReceipt)
	api.Post("/receipts/forward", h.ForwardReceipt)

	// Tablet API (paired tablets)
	tablet := app.Group("/tablet", middleware.TabletAuth(h.jwtSecret))
	tablet.Get("/print-jobs", h.ListPendingJobs)
	tablet.Put("/print-jobs/:id/complete", h.CompleteJob)
}
