package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/itadmit/ipalsam-sub000/internal/application/auth"
	"github.com/itadmit/ipalsam-sub000/internal/application/catalog"
	"github.com/itadmit/ipalsam-sub000/internal/application/checkout"
	"github.com/itadmit/ipalsam-sub000/internal/application/departments"
	"github.com/itadmit/ipalsam-sub000/internal/application/receipts"
	"github.com/itadmit/ipalsam-sub000/internal/application/requests"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	DepartmentUC *departments.DepartmentUseCase
	CatalogUC    *catalog.CatalogUseCase
	RequestUC    *requests.RequestUseCase
	CheckoutUC   *checkout.GroupCheckoutUseCase
	ReceiptUC    *receipts.ReceiptUseCase
	JWTSecret    string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (public)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Everything else requires a Bearer token.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	manage := RequireRole(entity.RoleAdmin, entity.RoleManager)

	// Departments
	depGroup := protected.Group("/departments")
	depHandler := NewDepartmentHandler(deps.DepartmentUC)
	depGroup.Post("/", manage, depHandler.Create)
	depGroup.Get("/", depHandler.List)
	depGroup.Get("/:id", depHandler.Get)
	depGroup.Put("/:id", manage, depHandler.UpdatePolicy)

	// Item catalog, stock and ledger
	items := protected.Group("/items")
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	items.Post("/", manage, catalogHandler.Create)
	items.Get("/", catalogHandler.List)
	items.Get("/low-stock", manage, catalogHandler.ListLowStock)
	items.Get("/:id", catalogHandler.Get)
	items.Put("/:id", manage, catalogHandler.Update)
	items.Delete("/:id", manage, catalogHandler.Deactivate)
	items.Delete("/:id/purge", RequireRole(entity.RoleAdmin), catalogHandler.Purge)
	items.Post("/:id/intake", manage, catalogHandler.Intake)
	items.Post("/:id/adjust", manage, catalogHandler.AdjustTotal)
	items.Get("/:id/units", catalogHandler.ListUnits)
	items.Get("/:id/movements", catalogHandler.ListMovements)

	units := protected.Group("/units")
	units.Post("/:id/maintenance", manage, catalogHandler.SetUnitMaintenance)

	// Request lifecycle
	reqGroup := protected.Group("/requests")
	requestHandler := NewRequestHandler(deps.RequestUC, deps.ReceiptUC)
	reqGroup.Post("/", requestHandler.Submit)
	reqGroup.Get("/", requestHandler.List)
	reqGroup.Get("/overdue", manage, requestHandler.ListOverdue)
	reqGroup.Get("/:id", requestHandler.Get)
	reqGroup.Get("/:id/receipt", requestHandler.Receipt)
	reqGroup.Post("/:id/approve", manage, requestHandler.Approve)
	reqGroup.Post("/:id/reject", manage, requestHandler.Reject)
	reqGroup.Post("/:id/ready", manage, requestHandler.MarkReady)
	reqGroup.Post("/:id/handover", manage, requestHandler.Handover)
	reqGroup.Post("/:id/return", manage, requestHandler.Return)
	reqGroup.Post("/:id/close", manage, requestHandler.Close)

	// Group checkout
	checkoutHandler := NewCheckoutHandler(deps.CheckoutUC)
	protected.Post("/checkout", checkoutHandler.Checkout)
}
