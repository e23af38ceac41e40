package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/docdeck/docdeck/pkg/acl"
	"github.com/docdeck/docdeck/pkg/auth"
	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/persistence"
	"github.com/docdeck/docdeck/pkg/registry"
	"github.com/docdeck/docdeck/pkg/routing"
	"github.com/docdeck/docdeck/pkg/services"
	"github.com/docdeck/docdeck/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: p,
		registry:    reg,
		eventBus:    eventBus,
	}
}

func (a *API) App() *fiber.App {
	aclStore := acl.NewStore(
		a.persistence.AclRepository(), a.persistence.GroupRepository(), a.eventBus, a.logger)
	modelService := routing.NewModelService(
		a.persistence.RouteModelRepository(), a.persistence.RouteRepository(), a.registry)
	engine := routing.NewEngine(a.persistence, aclStore, a.registry, modelService, a.eventBus, a.logger)
	documents := services.NewDocuments(a.persistence, a.eventBus)

	authRegistry := auth.NewRegistry(a.logger)
	authRegistry.Register(auth.NewInternalAuthenticator(a.persistence.UserRepository()))

	routing.RegisterListeners(a.eventBus, engine, &routing.LogProcessor{Logger: a.logger}, a.logger)

	handlers := web.NewAPIHandlers(engine, modelService, documents, authRegistry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Docdeck API")
	})

	app.Post("/login", handlers.Login)

	m := app.Group("/route-models")
	m.Get("/", handlers.GetRouteModels)
	m.Post("/", handlers.CreateRouteModel)
	m.Get("/:id", handlers.GetRouteModel)
	m.Put("/:id", handlers.UpdateRouteModel)
	m.Delete("/:id", handlers.DeleteRouteModel)

	r := app.Group("/routes")
	r.Post("/", handlers.StartRoute)
	r.Get("/:id", handlers.GetRoute)

	app.Post("/route-steps/:id/transition", handlers.TransitionStep)

	d := app.Group("/documents")
	d.Post("/", handlers.CreateDocument)
	d.Get("/:id", handlers.GetDocument)
	d.Delete("/:id", handlers.DeleteDocument)
	d.Post("/:id/files", handlers.AttachFile)
	d.Get("/:id/active-step", handlers.GetActiveStep)

	t := app.Group("/tags")
	t.Get("/", handlers.GetTags)
	t.Post("/", handlers.CreateTag)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
