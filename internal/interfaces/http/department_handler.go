package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/itadmit/ipalsam-sub000/internal/application/departments"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
)

// DepartmentHandler handles department and approval-policy endpoints.
type DepartmentHandler struct {
	uc *departments.DepartmentUseCase
}

// NewDepartmentHandler builds the handler.
func NewDepartmentHandler(uc *departments.DepartmentUseCase) *DepartmentHandler {
	return &DepartmentHandler{uc: uc}
}

// Create godoc
// @Summary      Create a department
// @Tags         departments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDepartmentRequest  true  "Department data"
// @Success      201   {object}  entity.Department
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/departments [post]
func (h *DepartmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDepartmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdatePolicy godoc
// @Summary      Update a department's approval policy
// @Tags         departments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Department ID"
// @Param        body  body  dto.CreateDepartmentRequest  true  "Policy flags"
// @Success      200   {object}  entity.Department
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/departments/{id} [put]
func (h *DepartmentHandler) UpdatePolicy(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.CreateDepartmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.UpdatePolicy(c.UserContext(), GetActor(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Get a department
// @Tags         departments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Department ID"
// @Success      200  {object}  entity.Department
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/departments/{id} [get]
func (h *DepartmentHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      List departments
// @Tags         departments
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.Department
// @Router       /api/departments [get]
func (h *DepartmentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "invalid query parameters"})
	}
	out, err := h.uc.List(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
