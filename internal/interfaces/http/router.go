package http

import (
	"github.com/gofiber/fiber/v2"
)

// Roles con permiso de escritura en el peer.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog   CatalogStore
	Users     Authenticator
	JWTSecret string // vacío: rutas sin autenticación
	Issuer    string
	TokenTTL  int // minutos
}

// Router registra las rutas REST del peer con la misma forma que la API de inventario.
// El endpoint WebSocket /inventario se monta antes para que el handshake no pase por AuthMiddleware.
func Router(app fiber.Router, deps RouterDeps) {
	app.Get("/health", Health)

	// Auth (público)
	authHandler := NewAuthHandler(deps.Users, deps.JWTSecret, deps.Issuer, deps.TokenTTL)
	app.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token cuando hay secret)
	pass := func(c *fiber.Ctx) error { return c.Next() }
	authn, writers, admins := pass, pass, pass
	if deps.JWTSecret != "" {
		authn = AuthMiddleware(deps.JWTSecret)
		writers = RequireRole(RoleAdmin, RoleBodeguero)
		admins = RequireRole(RoleAdmin)
	}

	h := NewCatalogHandler(deps.Catalog)

	inv := app.Group("/inventario", authn)
	inv.Get("/infoCharts", h.InfoCharts)

	inv.Get("/productos", h.ListProductos)
	inv.Get("/productos/:id/tandas", h.ListTandas)
	inv.Post("/productos", writers, h.CreateProducto)
	inv.Patch("/productos/:id/update", writers, h.UpdateProducto)
	inv.Delete("/productos/:id/delete", admins, h.DeleteProducto)

	inv.Get("/bodegas", h.ListBodegas)
	inv.Get("/bodegas/:id/ubicaciones", h.ListUbicaciones)
	inv.Post("/bodegas", admins, h.CreateBodega)
	inv.Patch("/bodegas/:id/update", admins, h.UpdateBodega)
	inv.Delete("/bodegas/:id/delete", admins, h.DeleteBodega)

	inv.Post("/ubicaciones", writers, h.CreateUbicacion)
	inv.Patch("/ubicaciones/:id/update", writers, h.UpdateUbicacion)
	inv.Delete("/ubicaciones/:id/delete", admins, h.DeleteUbicacion)

	inv.Post("/tandas", writers, h.CreateTanda)
	inv.Patch("/tandas/:id/update", writers, h.UpdateTanda)

	mov := app.Group("/movimientos", authn)
	mov.Post("/merma", writers, h.RegistrarMerma)
}

// Health godoc
// @Summary      Estado del peer
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
