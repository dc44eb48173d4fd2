package http

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockManagementHandler maneja el libro de existencias: movimientos, traslados,
// pedidos a proveedor, faltantes y reporte (/api/stock-management).
type StockManagementHandler struct {
	movements     MovementService
	query         StockQueryService
	replenishment ReplenishmentService
	report        ReportService
}

// NewStockManagementHandler construye el handler.
func NewStockManagementHandler(
	movements MovementService,
	query StockQueryService,
	replenishment ReplenishmentService,
	report ReportService,
) *StockManagementHandler {
	return &StockManagementHandler{
		movements:     movements,
		query:         query,
		replenishment: replenishment,
		report:        report,
	}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  Aplica la cantidad con signo al registro (producto, ubicación) y agrega el movimiento
//
//	en una sola transacción. Nunca deja current_quantity negativo.
//
// @Tags         stock-management
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "product_id, movement_type (in|out|adjustment), quantity con signo, location"
// @Success      201   {object}  dto.RecordMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-management/record-movement [post]
func (h *StockManagementHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.movements.RecordMovement(c.UserContext(), inventory.RecordMovementInputFromRequest(GetUserID(c), in))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         stock-management
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "UUID del producto"
// @Param        location    query  string  false  "ubicación"
// @Param        kind        query  string  false  "in|out|adjustment|transfer|incoming-ordered"
// @Param        from        query  string  false  "RFC3339 o YYYY-MM-DD (inclusive)"
// @Param        to          query  string  false  "RFC3339 o YYYY-MM-DD (exclusivo)"
// @Param        limit       query  int     false  "máx. 100"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-management/movements [get]
func (h *StockManagementHandler) ListMovements(c *fiber.Ctx) error {
	filter, err := parseMovementFilter(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	out, err := h.query.ListMovements(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Obtener movimiento
// @Tags         stock-management
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-management/movements/{id} [get]
func (h *StockManagementHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.query.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// PlanIncomingParts godoc
// @Summary      Planificar pedido a proveedor
// @Description  Suma incoming_quantity en la ubicación UNKNOWN por cada pieza; las piezas con producto
//
//	inexistente o cantidad inválida se omiten y se informan en skipped.
//
// @Tags         stock-management
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PlanIncomingPartsRequest  true  "needed_parts, supplier_info, delivery_date"
// @Success      200   {object}  dto.PlanIncomingPartsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock-management/plan-incoming-parts [post]
func (h *StockManagementHandler) PlanIncomingParts(c *fiber.Ctx) error {
	var in dto.PlanIncomingPartsRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.movements.PlanIncomingParts(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Trasladar entre ubicaciones
// @Tags         stock-management
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_location, to_location, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock-management/transfer [post]
func (h *StockManagementHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.movements.Transfer(c.UserContext(), inventory.TransferInputFromRequest(GetUserID(c), in))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// LowStock godoc
// @Summary      Registros bajo mínimo
// @Description  current_quantity <= min_level, con cantidad sugerida de pedido, ordenados por déficit.
// @Tags         stock-management
// @Security     Bearer
// @Produce      json
// @Param        location  query  string  false  "ubicación"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock-management/low-stock [get]
func (h *StockManagementHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.replenishment.LowStock(c.UserContext(), c.Query("location"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"items": list,
	})
}

// StockLevelsReport godoc
// @Summary      Reporte PDF de niveles de stock
// @Tags         stock-management
// @Security     Bearer
// @Produce      application/pdf
// @Param        location  query  string  false  "ubicación"
// @Success      200  {file}  binary
// @Router       /api/stock-management/reports/stock-levels [get]
func (h *StockManagementHandler) StockLevelsReport(c *fiber.Ctx) error {
	pdf, filename, err := h.report.StockLevelsPDF(c.UserContext(), c.Query("location"), GetUsername(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func parseMovementFilter(c *fiber.Ctx) (repository.MovementFilter, error) {
	kind := c.Query("kind")
	if kind == "" {
		kind = c.Query("movement_type")
	}
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		Location:  c.Query("location"),
		Type:      kind,
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	}
	var err error
	if filter.From, err = parseTimeQuery(c.Query("from")); err != nil {
		return filter, fmt.Errorf("from: %w", err)
	}
	if filter.To, err = parseTimeQuery(c.Query("to")); err != nil {
		return filter, fmt.Errorf("to: %w", err)
	}
	return filter, nil
}

// parseTimeQuery acepta RFC3339 o YYYY-MM-DD (UTC). Vacío → nil.
func parseTimeQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("fecha inválida %q (use RFC3339 o YYYY-MM-DD)", raw)
	}
	return &t, nil
}

func decodeParam(c *fiber.Ctx, name string) (string, error) {
	return url.PathUnescape(c.Params(name))
}
