package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"charge-optimizer/internal/analysis"
	"charge-optimizer/internal/api/middleware"
	"charge-optimizer/internal/api/models"
	"charge-optimizer/internal/data"
	"charge-optimizer/internal/model"
	"charge-optimizer/internal/optimizer"
)

// Runner runs one optimization.
type Runner interface {
	Run(ctx context.Context, in model.Input) (*optimizer.Run, error)
}

type OptimizeOptions struct {
	// NonOptimalAsError answers non-optimal outcomes with 500.
	NonOptimalAsError bool
	// Timeout bounds one solve; zero leaves only the client's deadline.
	Timeout time.Duration
}

// OptimizeHandler handles the /optimize routes.
type OptimizeHandler struct {
	runner Runner
	opts   OptimizeOptions
	logger *slog.Logger
}

func NewOptimizeHandler(runner Runner, opts OptimizeOptions, logger *slog.Logger) *OptimizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OptimizeHandler{
		runner: runner,
		opts:   opts,
		logger: logger.With("module", "api"),
	}
}

// Register mounts the /optimize routes on r.
func (h *OptimizeHandler) Register(r gin.IRouter) {
	g := r.Group("/optimize")
	g.POST("/charge-schedule", h.ChargeSchedule)
	g.POST("/charge-schedule/analysis", h.Analysis)
	g.GET("/health", h.Health)
	g.GET("/example", h.Example)
	g.GET("/strategies", ListStrategies)
}

// ChargeSchedule handles POST /optimize/charge-schedule
func (h *OptimizeHandler) ChargeSchedule(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.FromResult(run.Result))
}

// Analysis handles POST /optimize/charge-schedule/analysis
func (h *OptimizeHandler) Analysis(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	resp := models.AnalysisResponse{Result: models.FromResult(run.Result)}
	if run.Replay != nil {
		resp.Summary = models.FromSummary(analysis.Summarize(run.Input, run.Replay))
		resp.Ledger = models.FromLedger(run.Replay.Ledger)
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles GET /optimize/health
func (h *OptimizeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Message: "Charge optimizer is running",
	})
}

// Example handles GET /optimize/example
func (h *OptimizeHandler) Example(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", data.ExampleJSON())
}

// run decodes the request and solves it. It writes the error response
// itself and reports false when the caller has nothing left to do.
func (h *OptimizeHandler) run(c *gin.Context) (*optimizer.Run, bool) {
	var req models.OptimizationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: fmt.Sprintf("Invalid request body: %v", err)})
		return nil, false
	}
	in, err := req.ToInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		return nil, false
	}

	ctx := c.Request.Context()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	run, err := h.runner.Run(ctx, in)
	if err != nil {
		if model.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
			return nil, false
		}
		h.logger.Error("optimization failed", "request_id", c.GetString(middleware.RequestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Optimization failed: " + err.Error()})
		return nil, false
	}

	if !run.Result.IsOptimal() && h.opts.NonOptimalAsError {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Message: fmt.Sprintf("Optimization failed: %s problem", run.Result.Status),
		})
		return nil, false
	}
	return run, true
}
