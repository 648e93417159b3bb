package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	graphSvc   *service.GraphService
	metricsSvc *service.MetricsService
	simSvc     *service.SimulationService
	presetSvc  *service.PresetService
	repo       service.RunRepository
}

// NewHandler creates a new handler
func NewHandler(
	graphSvc *service.GraphService,
	metricsSvc *service.MetricsService,
	simSvc *service.SimulationService,
	presetSvc *service.PresetService,
	repo service.RunRepository,
) *Handler {
	return &Handler{
		graphSvc:   graphSvc,
		metricsSvc: metricsSvc,
		simSvc:     simSvc,
		presetSvc:  presetSvc,
		repo:       repo,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "citytwin-backend",
		"version": "1.0.0",
	})
}

// GetNetwork returns the baseline road network as GeoJSON
func (h *Handler) GetNetwork(c *fiber.Ctx) error {
	baseline, err := h.graphSvc.Baseline()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load road network")
	}
	return c.JSON(h.graphSvc.ToGeoJSON(baseline))
}

// GetNetworkMetrics returns the baseline traffic metrics
func (h *Handler) GetNetworkMetrics(c *fiber.Ctx) error {
	baseline, err := h.graphSvc.Baseline()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load road network")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.metricsSvc.Aggregate(baseline),
	})
}

// GetPresets returns the pre-built policy scenarios
func (h *Handler) GetPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.presetSvc.Presets(),
	})
}

// SimulateRequest is the POST /simulate body
type SimulateRequest struct {
	Policy string `json:"policy"`
	City   string `json:"city"`
}

// StartSimulation creates a new simulation run. Returns a run ID for the
// stream and result endpoints.
func (h *Handler) StartSimulation(c *fiber.Ctx) error {
	var req SimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.City == "" {
		req.City = "Kochi"
	}

	run, err := h.simSvc.Create(req.Policy, req.City)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Policy description cannot be empty")
	}

	return c.JSON(fiber.Map{
		"run_id": run.ID,
		"status": run.Status,
	})
}

// StreamSimulation executes a queued run and streams its progress events
// over SSE, one `data:` frame per event.
func (h *Handler) StreamSimulation(c *fiber.Ctx) error {
	id := c.Params("id")

	// The stream writer outlives this handler, so the pipeline gets its own
	// context rather than the request's.
	events, err := h.simSvc.Stream(context.Background(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Run not found")
		case errors.Is(err, service.ErrRunNotQueued):
			return fiber.NewError(fiber.StatusConflict, "Run already started")
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to start stream")
		}
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for event := range events {
			payload, err := json.Marshal(event)
			if err != nil {
				logrus.Errorf("failed to encode progress event: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			if err := w.Flush(); err != nil {
				// Client disconnected; drain so the pipeline can finish.
				go func() {
					for range events {
					}
				}()
				return
			}
		}
	})
	return nil
}

// GetSimulationResult returns the final result for a finished run, falling
// back to persisted runs from earlier process lifetimes.
func (h *Handler) GetSimulationResult(c *fiber.Ctx) error {
	id := c.Params("id")

	if run, ok := h.simSvc.Get(id); ok {
		if run.Status != domain.RunCompleted && run.Status != domain.RunError {
			return fiber.NewError(fiber.StatusAccepted, "Simulation still running")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    run,
		})
	}

	run, err := h.repo.GetRun(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Run not found")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    run,
	})
}

// GetRecentRuns returns persisted runs within a time range
func (h *Handler) GetRecentRuns(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	runs, err := h.repo.ListRuns(c.Context(), from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch runs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    runs,
		"count":   len(runs),
	})
}
