package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/itadmit/ipalsam-sub000/internal/application/catalog"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
)

// CatalogHandler handles item types, serial units, stock intake and the
// movement ledger.
type CatalogHandler struct {
	uc *catalog.CatalogUseCase
}

// NewCatalogHandler builds the handler.
func NewCatalogHandler(uc *catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// Create godoc
// @Summary      Create an item type
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemTypeRequest  true  "Item type data"
// @Success      201   {object}  entity.ItemType
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.CreateItemType(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Update an item type's policy attributes
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "Item type ID"
// @Param        body  body  dto.UpdateItemTypeRequest  true  "Attributes"
// @Success      200   {object}  entity.ItemType
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateItemTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.UpdateItemType(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Get an item type with live counters
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Item type ID"
// @Success      200  {object}  entity.ItemType
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetItemType(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      List item types
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        department_id  query  string  false  "Filter by department"
// @Param        limit          query  int     false  "Page size"
// @Param        offset         query  int     false  "Page offset"
// @Success      200  {array}  entity.ItemType
// @Router       /api/items [get]
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "invalid query parameters"})
	}
	out, err := h.uc.ListItemTypes(c.UserContext(), c.Query("department_id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListLowStock godoc
// @Summary      List item types at or below their minimum alert level
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.ItemType
// @Router       /api/items/low-stock [get]
func (h *CatalogHandler) ListLowStock(c *fiber.Ctx) error {
	out, err := h.uc.ListLowStock(c.UserContext(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Deactivate an item type (soft delete)
// @Tags         items
// @Security     Bearer
// @Param        id  path  string  true  "Item type ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *CatalogHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.DeactivateItemType(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Purge godoc
// @Summary      Permanently remove an item type and its history (admin)
// @Tags         items
// @Security     Bearer
// @Param        id  path  string  true  "Item type ID"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/purge [delete]
func (h *CatalogHandler) Purge(c *fiber.Ctx) error {
	if err := h.uc.PurgeItemType(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Intake godoc
// @Summary      Register incoming stock (quantity or one serial unit)
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Item type ID"
// @Param        body  body  dto.IntakeRequest  true  "Quantity or serial number"
// @Success      201   {object}  entity.Movement
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/intake [post]
func (h *CatalogHandler) Intake(c *fiber.Ctx) error {
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.Intake(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AdjustTotal godoc
// @Summary      Adjust the total on hand of a quantity item
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Item type ID"
// @Param        body  body  dto.AdjustTotalRequest  true  "New total"
// @Success      200   {object}  entity.ItemType
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/adjust [post]
func (h *CatalogHandler) AdjustTotal(c *fiber.Ctx) error {
	var in dto.AdjustTotalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.AdjustTotal(c.UserContext(), GetActor(c), c.Params("id"), in.NewTotal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListUnits godoc
// @Summary      List serial units of an item type
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Item type ID"
// @Param        status  query  string  false  "available | in_use | maintenance"
// @Success      200  {array}  entity.ItemUnit
// @Router       /api/items/{id}/units [get]
func (h *CatalogHandler) ListUnits(c *fiber.Ctx) error {
	out, err := h.uc.ListUnits(c.UserContext(), c.Params("id"), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SetUnitMaintenance godoc
// @Summary      Move a serial unit in or out of maintenance
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Unit ID"
// @Param        body  body  dto.MaintenanceRequest  true  "Enable flag"
// @Success      200   {object}  entity.ItemUnit
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/units/{id}/maintenance [post]
func (h *CatalogHandler) SetUnitMaintenance(c *fiber.Ctx) error {
	var in dto.MaintenanceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	out, err := h.uc.SetUnitMaintenance(c.UserContext(), GetActor(c), c.Params("id"), in.Enable)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      List the movement ledger of an item type
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Item type ID"
// @Param        limit   query  int     false  "Page size"
// @Param        offset  query  int     false  "Page offset"
// @Success      200  {array}  entity.Movement
// @Router       /api/items/{id}/movements [get]
func (h *CatalogHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "invalid query parameters"})
	}
	out, err := h.uc.ListMovements(c.UserContext(), c.Params("id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
