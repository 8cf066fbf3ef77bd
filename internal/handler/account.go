package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/pkg/response"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// Balance handles GET /api/account/balance
// @Summary      Vendor balance
// @Description  Remaining vendor credit
// @Tags         Account
// @Produce      json
// @Success      200 {object} model.BalanceResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/account/balance [get]
func (h *AccountHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext())
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.OK(c, balance)
}
