package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/auth"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/pkg/response"
)

// WebhookHandler receives vendor push notifications
type WebhookHandler struct {
	reconciler *service.ReconcileService
	secret     string
	ackOnError bool
	logger     *zap.Logger
}

func NewWebhookHandler(reconciler *service.ReconcileService, secret string, ackOnError bool, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		secret:     secret,
		ackOnError: ackOnError,
		logger:     logger.Named("webhook"),
	}
}

// Kiri handles POST /webhooks/kiri
// @Summary      Vendor status webhook
// @Description  Signed status push from the vendor (X-Signature: hex HMAC-SHA256 of the raw body)
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        X-Signature header string true "Body signature"
// @Success      200 {object} map[string]bool
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /webhooks/kiri [post]
func (h *WebhookHandler) Kiri(c *fiber.Ctx) error {
	deliveryID := uuid.NewString()
	log := h.logger.With(zap.String("delivery_id", deliveryID))

	if h.secret == "" {
		log.Error("webhook received but no signing secret is configured")
		return response.ServiceUnavailable(c, "Webhook endpoint is not configured")
	}

	// Verify against the bytes exactly as received
	body := c.Body()
	if !auth.VerifyWebhookSignature(body, c.Get(auth.WebhookSignatureHeader), h.secret) {
		log.Warn("webhook signature rejected", zap.String("ip", c.IP()))
		return response.Unauthorized(c, model.ErrSignatureInvalid.Error())
	}

	payload, err := decodeWebhookPayload(body)
	if err != nil {
		log.Warn("malformed webhook payload", zap.Error(err))
		return response.ValidationError(c, "Malformed webhook payload", nil)
	}
	log = log.With(zap.String("job_id", payload.Serialize))

	_, err = h.reconciler.ApplyObservation(c.UserContext(), service.Observation{
		JobID:        payload.Serialize,
		VendorStatus: int(*payload.Status),
		ModelURL:     payload.ModelURL,
		ThumbnailURL: payload.ThumbnailURL,
		ErrorMessage: payload.ErrorMessage,
		Source:       service.SourceWebhook,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrJobNotFoundLocally):
			log.Warn("webhook for unknown job acknowledged")
		case !h.ackOnError:
			log.Error("webhook reconciliation failed", zap.Error(err))
			return writeServiceError(c, err)
		default:
			log.Error("webhook reconciliation failed, acknowledged anyway", zap.Error(err))
		}
	}

	return response.OK(c, fiber.Map{"received": true})
}

func decodeWebhookPayload(body []byte) (*model.WebhookPayload, error) {
	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	payload.Serialize = strings.TrimSpace(payload.Serialize)
	if payload.Serialize == "" {
		return nil, errors.New("serialize is required")
	}
	if payload.Status == nil {
		return nil, errors.New("status is required")
	}
	return &payload, nil
}
