package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/application/receipts"
	"github.com/itadmit/ipalsam-sub000/internal/application/requests"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
)

// RequestHandler handles the request lifecycle: submit, approve, reject,
// ready-for-pickup, handover, return, close, plus listings and the loan
// form receipt.
type RequestHandler struct {
	uc       *requests.RequestUseCase
	receipts *receipts.ReceiptUseCase
}

// NewRequestHandler builds the handler.
func NewRequestHandler(uc *requests.RequestUseCase, rc *receipts.ReceiptUseCase) *RequestHandler {
	return &RequestHandler{uc: uc, receipts: rc}
}

// Submit godoc
// @Summary      Submit a loan request
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitRequestInput  true  "Request line"
// @Success      201   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/requests [post]
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitRequestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Submit(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRequestResponse(out, time.Now()))
}

// Approve godoc
// @Summary      Approve a submitted request
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  dto.RequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.Approve(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// Reject godoc
// @Summary      Reject a submitted request (reason required)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "Request ID"
// @Param        body  body  dto.RejectInput  true  "Rejection reason"
// @Success      200   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Reject(c.UserContext(), GetActor(c), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// MarkReady godoc
// @Summary      Mark an approved request ready for pickup
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  dto.RequestResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/ready [post]
func (h *RequestHandler) MarkReady(c *fiber.Ctx) error {
	out, err := h.uc.MarkReadyForPickup(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// Handover godoc
// @Summary      Hand the equipment over (allocates stock atomically)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "Request ID"
// @Param        body  body  dto.ConfirmInput  true  "Confirmation"
// @Success      200   {object}  dto.RequestResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/handover [post]
func (h *RequestHandler) Handover(c *fiber.Ctx) error {
	var in dto.ConfirmInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Handover(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// Return godoc
// @Summary      Register the equipment's return (releases stock atomically)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "Request ID"
// @Param        body  body  dto.ConfirmInput  true  "Confirmation"
// @Success      200   {object}  dto.RequestResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/return [post]
func (h *RequestHandler) Return(c *fiber.Ctx) error {
	var in dto.ConfirmInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Return(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// Close godoc
// @Summary      Close a returned (or written-off) request
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  dto.RequestResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/close [post]
func (h *RequestHandler) Close(c *fiber.Ctx) error {
	out, err := h.uc.Close(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// Get godoc
// @Summary      Get a request
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  dto.RequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRequestResponse(out, time.Now()))
}

// List godoc
// @Summary      List requests
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        department_id  query  string  false  "Filter by department"
// @Param        status         query  string  false  "Filter by status"
// @Param        limit          query  int     false  "Page size"
// @Param        offset         query  int     false  "Page offset"
// @Success      200  {array}  dto.RequestResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "invalid query parameters"})
	}
	out, err := h.uc.List(c.UserContext(), c.Query("department_id"), c.Query("status"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toResponses(out))
}

// ListOverdue godoc
// @Summary      List handed-over requests past their scheduled return
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.RequestResponse
// @Router       /api/requests/overdue [get]
func (h *RequestHandler) ListOverdue(c *fiber.Ctx) error {
	out, err := h.uc.ListOverdue(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toResponses(out))
}

// Receipt godoc
// @Summary      Download the loan form receipt as PDF
// @Tags         requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "Request ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/receipt [get]
func (h *RequestHandler) Receipt(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.receipts.Generate(c.UserContext(), GetActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="loan-%s.pdf"`, id))
	return c.Send(pdf)
}

func toResponses(rs []*entity.Request) []dto.RequestResponse {
	now := time.Now()
	out := make([]dto.RequestResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, dto.ToRequestResponse(r, now))
	}
	return out
}
