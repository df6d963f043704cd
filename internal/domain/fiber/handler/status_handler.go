package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jobpilot/internal/config"
	"jobpilot/internal/middleware"
	"jobpilot/internal/model"
	"jobpilot/internal/repository"
	"jobpilot/internal/response"
	"jobpilot/internal/util"
)

// StatusHandler exposes the store read-only over HTTP: the job records,
// one record by id, and the run log.
type StatusHandler struct {
	jobs *repository.JobRepository
	runs *repository.RunRepository
}

func NewStatusHandler(jobs *repository.JobRepository, runs *repository.RunRepository) *StatusHandler {
	return &StatusHandler{jobs: jobs, runs: runs}
}

func (h *StatusHandler) RegisterRoutes(app *fiber.App, cfg config.ServerConfig) {
	rl := middleware.RateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	app.Get("/healthz", h.Health)
	app.Get("/jobs", rl, h.Jobs)
	app.Get("/jobs/:id", rl, h.Job)
	app.Get("/runs", rl, h.Runs)
}

func (h *StatusHandler) Health(c *fiber.Ctx) error {
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "ok"})
}

func (h *StatusHandler) Jobs(c *fiber.Ctx) error {
	var status model.Status
	if raw := c.Query("status"); raw != "" {
		parsed, err := model.ParseStatus(raw)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: "unknown status",
			}, err)
		}
		status = parsed
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 50)
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	recs, total, err := h.jobs.Page(status, page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list jobs",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success list jobs",
		Data:       recs,
		Pagination: response.NewPagination(page, pageSize, total),
	})
}

func (h *StatusHandler) Job(c *fiber.Ctx) error {
	rec, err := h.jobs.Find(c.Params("id"))
	if err != nil {
		code := fiber.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			code = fiber.StatusNotFound
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    code,
			Message: "job not found",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job",
		Data:    rec,
	})
}

func (h *StatusHandler) Runs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	runs, err := h.runs.Recent(limit)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list runs",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success list runs",
		Data:    runs,
	})
}
