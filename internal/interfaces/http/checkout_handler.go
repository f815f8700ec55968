package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/itadmit/ipalsam-sub000/internal/application/checkout"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
)

// CheckoutHandler handles multi-item group checkout.
type CheckoutHandler struct {
	uc *checkout.GroupCheckoutUseCase
}

// NewCheckoutHandler builds the handler.
func NewCheckoutHandler(uc *checkout.GroupCheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// Checkout godoc
// @Summary      Submit a multi-item checkout as one group
// @Tags         checkout
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GroupCheckoutInput  true  "Checkout lines"
// @Success      201   {object}  dto.GroupCheckoutResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/checkout [post]
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var in dto.GroupCheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Checkout(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
