package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/pkg/response"
)

type JobHandler struct {
	jobs       *service.JobService
	reconciler *service.ReconcileService
}

func NewJobHandler(jobs *service.JobService, reconciler *service.ReconcileService) *JobHandler {
	return &JobHandler{
		jobs:       jobs,
		reconciler: reconciler,
	}
}

// List handles GET /api/jobs
// @Summary      List jobs
// @Description  All tracked jobs, newest submission first
// @Tags         Jobs
// @Produce      json
// @Success      200 {object} model.JobListResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs [get]
func (h *JobHandler) List(c *fiber.Ctx) error {
	jobs, err := h.jobs.List(c.UserContext())
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.OK(c, model.JobListResponse{Jobs: jobs, Count: len(jobs)})
}

// Get handles GET /api/jobs/:jobId
// @Summary      Get job
// @Description  Stored job record, without contacting the vendor
// @Tags         Jobs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.JobRecord
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId} [get]
func (h *JobHandler) Get(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.Get(c.UserContext(), jobID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.OK(c, job)
}

// Status handles GET /api/jobs/:jobId/status
// @Summary      Refresh job status
// @Description  Fetch the vendor status and reconcile it into the stored record
// @Tags         Jobs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.JobRecord
// @Failure      404 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId}/status [get]
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.reconciler.Poll(c.UserContext(), jobID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.OK(c, job)
}

// Download handles GET /api/jobs/:jobId/download
// @Summary      Model download link
// @Description  Download URL for a completed job's model archive
// @Tags         Jobs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.DownloadLinkResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId}/download [get]
func (h *JobHandler) Download(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	link, err := h.jobs.DownloadLink(c.UserContext(), jobID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.OK(c, link)
}
