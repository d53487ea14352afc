package server

import (
	"time"

	"bike-rental-go/internal/api"
	"bike-rental-go/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const appName = "bike-rental-go"

// Options tunes the rate limits on the unauthenticated endpoints.
// Zero values fall back to the defaults.
type Options struct {
	RegisterPerMinute int
	LoginPerMinute    int
	AllowOrigins      string
}

func (o Options) withDefaults() Options {
	if o.RegisterPerMinute <= 0 {
		o.RegisterPerMinute = 5
	}
	if o.LoginPerMinute <= 0 {
		o.LoginPerMinute = 10
	}
	if o.AllowOrigins == "" {
		o.AllowOrigins = "*"
	}
	return o
}

func corsConfig(origins string) cors.Config {
	return cors.Config{
		AllowOrigins: origins,
		AllowMethods: "POST,GET,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Cache-Control,Authorization",
	}
}

func perMinute(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})
}

// NewApp builds the fiber application with every route of the rental API.
func NewApp(svc *api.Service, recorder *metrics.Recorder, opts Options) *fiber.App {
	opts = opts.withDefaults()

	app := fiber.New(fiber.Config{
		AppName:           appName,
		ReduceMemoryUsage: true,
		ErrorHandler:      errorHandler,
	})

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(cors.New(corsConfig(opts.AllowOrigins)))

	h := &handlers{svc: svc}

	app.Get("/health", h.health)
	if recorder != nil {
		app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))
	}

	apiGroup := app.Group("/api")
	apiGroup.Get("/info", h.info)
	apiGroup.Post("/register", perMinute(opts.RegisterPerMinute), h.register)
	apiGroup.Post("/login", perMinute(opts.LoginPerMinute), h.login)

	protected := apiGroup.Group("", requireAuth(svc.Tokens()))
	protected.Get("/bikes", h.listBikes)
	protected.Get("/bikes/:id", h.bikeStatus)
	protected.Put("/bikes/:id/position", h.updateBikePosition)
	protected.Get("/stations", h.listStations)
	protected.Get("/stations/:id", h.getStation)

	rider := requireRider()
	protected.Get("/profile", rider, h.getProfile)
	protected.Patch("/profile", rider, h.updateProfile)
	protected.Post("/operations", rider, h.submitOperation)
	protected.Get("/operations", rider, h.history)

	admin := requireAdmin()
	protected.Get("/users", admin, h.listUsers)
	protected.Get("/users/:id/operations", admin, h.userOperations)
	protected.Post("/bikes", admin, h.createBike)
	protected.Post("/bikes/:id/dock", admin, h.dockBike)
	protected.Delete("/bikes/:id", admin, h.deleteBike)
	protected.Post("/stations", admin, h.createStation)
	protected.Delete("/stations/:id", admin, h.deleteStation)

	return app
}
