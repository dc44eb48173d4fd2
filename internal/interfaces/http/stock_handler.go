package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockHandler administración y consulta de registros de stock (/api/stock).
type StockHandler struct {
	query StockQueryService
	admin StockAdminService
}

// NewStockHandler construye el handler.
func NewStockHandler(query StockQueryService, admin StockAdminService) *StockHandler {
	return &StockHandler{query: query, admin: admin}
}

// Create godoc
// @Summary      Crear registro de stock
// @Description  Una cantidad inicial distinta de cero se registra como movimiento de ajuste.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequest  true  "product_id, location, niveles"
// @Success      201   {object}  dto.StockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.admin.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar registros de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "UUID del producto"
// @Param        location    query  string  false  "ubicación"
// @Param        below_min   query  bool    false  "solo bajo mínimo"
// @Param        limit       query  int     false  "máx. 100"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	out, err := h.query.ListStock(c.UserContext(), repository.StockFilter{
		ProductID: c.Query("product_id"),
		Location:  c.Query("location"),
		BelowMin:  c.QueryBool("below_min"),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener registro de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.GetStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ByProduct godoc
// @Summary      Stock de un producto en todas las ubicaciones
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}   dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/product/{productId} [get]
func (h *StockHandler) ByProduct(c *fiber.Ctx) error {
	out, err := h.query.GetStockByProduct(c.UserContext(), c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ByLocation godoc
// @Summary      Stock de una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location  path  string  true  "ubicación"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/stock/location/{location} [get]
func (h *StockHandler) ByLocation(c *fiber.Ctx) error {
	location, err := decodeParam(c, "location")
	if err != nil {
		return badRequest(c, "INVALID_PARAM", "ubicación mal codificada")
	}
	out, err := h.query.GetStockByLocation(c.UserContext(), location)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar registro de stock
// @Description  Un cambio de current_quantity se aplica como movimiento de ajuste.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del registro"
// @Param        body  body  dto.UpdateStockRequest  true  "campos a modificar"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.admin.Update(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar registro de stock vacío
// @Tags         stock
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.admin.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
