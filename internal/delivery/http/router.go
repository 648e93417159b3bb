package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citytwin/backend/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(
	app *fiber.App,
	graphSvc *service.GraphService,
	metricsSvc *service.MetricsService,
	simSvc *service.SimulationService,
	presetSvc *service.PresetService,
	repo service.RunRepository,
) {
	handler := NewHandler(graphSvc, metricsSvc, simSvc, presetSvc, repo)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Road network endpoints
		api.Get("/network", handler.GetNetwork)
		api.Get("/network/metrics", handler.GetNetworkMetrics)

		// Policy scenario catalog
		api.Get("/presets", handler.GetPresets)

		// Simulation job endpoints
		api.Post("/simulate", handler.StartSimulation)
		api.Get("/simulate/:id/stream", handler.StreamSimulation)
		api.Get("/simulate/:id/result", handler.GetSimulationResult)
		api.Get("/runs", handler.GetRecentRuns)
	}
}
