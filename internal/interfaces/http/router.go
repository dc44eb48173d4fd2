package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth          AuthService
	Users         UserService
	Products      ProductService
	Movements     MovementService
	StockQuery    StockQueryService
	StockAdmin    StockAdminService
	Replenishment ReplenishmentService
	Reports       ReportService
	Resolver      SubjectResolver // nil = confiar en el rol del token
	JWTSecret     string

	LoginRateLimit int // intentos por minuto y por IP; 0 = sin límite
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	authn := AuthMiddleware(deps.JWTSecret, deps.Resolver)

	// Auth
	authHandler := NewAuthHandler(deps.Auth)
	authGroup := api.Group("/auth")
	if deps.LoginRateLimit > 0 {
		authGroup.Post("/token", loginLimiter(deps.LoginRateLimit), authHandler.Token)
	} else {
		authGroup.Post("/token", authHandler.Token)
	}
	authGroup.Post("/register", authn, RequirePermission(entity.PermUsuariosGestionar), authHandler.Register)

	// Users: /me antes que /:id
	userHandler := NewUserHandler(deps.Users)
	users := api.Group("/users", authn)
	users.Get("/me", userHandler.Me)
	admin := RequirePermission(entity.PermUsuariosGestionar)
	users.Get("/", admin, userHandler.List)
	users.Get("/:id", admin, userHandler.GetByID)
	users.Put("/:id", admin, userHandler.Update)
	users.Delete("/:id", admin, userHandler.Delete)

	// Products
	productHandler := NewProductHandler(deps.Products)
	products := api.Group("/products", authn)
	read := RequirePermission(entity.PermStockConsultar)
	catalog := RequirePermission(entity.PermCatalogoGestionar)
	products.Get("/", read, productHandler.List)
	products.Get("/:id", read, productHandler.GetByID)
	products.Post("/", catalog, productHandler.Create)
	products.Put("/:id", catalog, productHandler.Update)
	products.Delete("/:id", catalog, productHandler.Delete)

	// Stock records
	stockHandler := NewStockHandler(deps.StockQuery, deps.StockAdmin)
	stock := api.Group("/stock", authn)
	organize := RequirePermission(entity.PermBodegaOrganizar)
	stock.Get("/", read, stockHandler.List)
	stock.Get("/product/:productId", read, stockHandler.ByProduct)
	stock.Get("/location/:location", read, stockHandler.ByLocation)
	stock.Get("/:id", read, stockHandler.GetByID)
	stock.Post("/", organize, stockHandler.Create)
	stock.Put("/:id", organize, stockHandler.Update)
	stock.Delete("/:id", organize, stockHandler.Delete)

	// Libro de existencias
	smHandler := NewStockManagementHandler(deps.Movements, deps.StockQuery, deps.Replenishment, deps.Reports)
	sm := api.Group("/stock-management", authn)
	sm.Post("/record-movement", RequirePermission(entity.PermStockActualizar), smHandler.RecordMovement)
	sm.Get("/movements", read, smHandler.ListMovements)
	sm.Get("/movements/:id", read, smHandler.GetMovement)
	sm.Post("/plan-incoming-parts", RequirePermission(entity.PermFaltantesAbastecer), smHandler.PlanIncomingParts)
	sm.Post("/transfer", RequirePermission(entity.PermLogisticaPlanificar), smHandler.Transfer)
	sm.Get("/low-stock", read, smHandler.LowStock)
	sm.Get("/reports/stock-levels", RequirePermission(entity.PermReportesGenerar), smHandler.StockLevelsReport)
}

func loginLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "demasiados intentos de inicio de sesión, intente más tarde",
			})
		},
	})
}
