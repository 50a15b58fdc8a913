package routes

import (
	"time"

	"github.com/deviljitu1/forever-flame-companion/internal/config"
	"github.com/deviljitu1/forever-flame-companion/internal/handlers"
	"github.com/deviljitu1/forever-flame-companion/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Partnership *handlers.PartnershipHandler
	Profile     *handlers.ProfileHandler
	Mood        *handlers.MoodHandler
	Chat        *handlers.ChatHandler
	Admin       *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, gatherer prometheus.Gatherer, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// JWT is applied per group so /health and /metrics stay public.
	auth := middleware.JWTProtected(cfg)

	// Partnerships. Joining is rate limited per user to slow down code guessing.
	partnerships := api.Group("/partnerships", auth)
	partnerships.Get("/", h.Partnership.Overview)
	partnerships.Get("/invite", h.Partnership.Invite)
	partnerships.Post("/join", limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals("user_id").(string); ok {
				return id
			}
			return c.IP()
		},
	}), h.Partnership.Join)
	partnerships.Post("/:id/accept", h.Partnership.Accept)
	partnerships.Delete("/:id/decline", h.Partnership.Decline)
	partnerships.Delete("/:id", h.Partnership.End)

	profile := api.Group("/profile", auth)
	profile.Get("/", h.Profile.Get)
	profile.Patch("/", h.Profile.Update)
	profile.Get("/settings", h.Profile.GetSettings)
	profile.Put("/settings", h.Profile.SaveSettings)
	profile.Post("/avatar", h.Profile.AvatarUpload)

	moods := api.Group("/moods", auth)
	moods.Post("/", h.Mood.Log)
	moods.Get("/", h.Mood.List)
	moods.Get("/partner", h.Mood.Partner)

	// Each chat turn is a model call, so it gets a tighter per-user budget.
	api.Post("/chat", auth, limiter.New(limiter.Config{
		Max:               20,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals("user_id").(string); ok {
				return id
			}
			return c.IP()
		},
	}), h.Chat.Ask)

	admin := api.Group("/admin", middleware.JWTOrAdminToken(cfg), middleware.AdminRequired(cfg))
	admin.Post("/reconcile", h.Admin.Reconcile)
	admin.Get("/logs", h.Admin.Logs)
}
