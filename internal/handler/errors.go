package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/pkg/response"
)

// writeServiceError maps the service error taxonomy onto HTTP responses
func writeServiceError(c *fiber.Ctx, err error) error {
	var persistErr *service.PersistenceError
	switch {
	case errors.As(err, &persistErr):
		return response.Error(c, fiber.StatusInternalServerError, response.CodeLocalPersistenceFailed,
			"Job was accepted by the vendor but could not be recorded locally",
			fiber.Map{"jobId": persistErr.JobID})
	case errors.Is(err, model.ErrJobNotFoundLocally):
		return response.NotFound(c, "Job not found")
	case errors.Is(err, model.ErrJobNotFoundUpstream):
		return response.NotFound(c, "Job not found at vendor")
	case errors.Is(err, model.ErrArtifactNotReady):
		return response.Conflict(c, response.CodeArtifactNotReady, "Model is not ready for download")
	case errors.Is(err, model.ErrVendorUnavailable):
		return response.BadGateway(c, response.CodeVendorUnavailable, "Vendor is unavailable, try again later")
	case errors.Is(err, model.ErrVendorRejected):
		return response.Unprocessable(c, response.CodeVendorRejected, err.Error())
	case errors.Is(err, model.ErrVendorProtocol):
		return response.BadGateway(c, response.CodeVendorProtocolError, "Vendor returned an unexpected response")
	case errors.Is(err, model.ErrLocalPersistenceFailed):
		return response.Error(c, fiber.StatusInternalServerError, response.CodeLocalPersistenceFailed,
			"Job store is unavailable", nil)
	default:
		return response.ServiceError(c, "Internal Server Error")
	}
}

// formatValidationErrors reports the failed rule per field
func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = e.Tag()
	}
	return fields
}
