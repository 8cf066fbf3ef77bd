package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	ws "github.com/scanvault/api/internal/websocket"
)

// Router bundles everything needed to mount the HTTP API
type Router struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Jobs    *JobHandler
	Upload  *UploadHandler
	Account *AccountHandler
	Webhook *WebhookHandler
	Hub     *ws.Hub

	// APIAuth guards every /api route
	APIAuth fiber.Handler
	// UploadLimit and PollLimit are optional rate limiters
	UploadLimit fiber.Handler
	PollLimit   fiber.Handler
}

// Register mounts all routes on app
func (r *Router) Register(app *fiber.App) {
	app.Get("/", r.Health.Root)
	app.Get("/health", r.Health.Health)

	app.Post("/auth/login", r.Auth.Login)
	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", r.Auth.Verify)

	app.Post("/webhooks/kiri", r.Webhook.Kiri)

	api := app.Group("/api", r.APIAuth)

	jobs := api.Group("/jobs")
	jobs.Get("/", r.Jobs.List)
	jobs.Get("/:jobId", r.Jobs.Get)
	jobs.Get("/:jobId/status", withOptional(r.PollLimit, r.Jobs.Status)...)
	jobs.Get("/:jobId/download", r.Jobs.Download)

	upload := api.Group("/upload")
	upload.Post("/video", withOptional(r.UploadLimit, r.Upload.Video)...)

	api.Get("/account/balance", r.Account.Balance)

	if r.Hub == nil {
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs", websocket.New(func(c *websocket.Conn) {
		r.Hub.HandleConnection(c, ws.AllJobs)
	}))
	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		r.Hub.HandleConnection(c, c.Params("jobId"))
	}))
}

func withOptional(mw fiber.Handler, h fiber.Handler) []fiber.Handler {
	if mw == nil {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{mw, h}
}
