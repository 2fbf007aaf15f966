package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
)

// CatalogStore operaciones del catálogo que expone la API REST del peer.
type CatalogStore interface {
	Productos() []dto.ProductoWire
	Bodegas() []dto.BodegaWire
	UbicacionesByBodega(bodegaID string) []dto.UbicacionWire
	TandasByProducto(productoID string) []dto.TandaWire

	CreateProducto(in dto.CreateProductoRequest) (dto.ProductoWire, error)
	UpdateProducto(id string, in dto.UpdateProductoRequest) (dto.ProductoWire, error)
	DeleteProducto(id string) error
	CreateBodega(in dto.CreateBodegaRequest) (dto.BodegaWire, error)
	UpdateBodega(id string, in dto.UpdateBodegaRequest) (dto.BodegaWire, error)
	DeleteBodega(id string) error
	CreateUbicacion(in dto.CreateUbicacionRequest) (dto.UbicacionWire, error)
	UpdateUbicacion(id string, in dto.UpdateUbicacionRequest) (dto.UbicacionWire, error)
	DeleteUbicacion(id string) error
	CreateTanda(in dto.CreateTandaRequest) (dto.TandaWire, error)
	UpdateTanda(id string, in dto.UpdateTandaRequest) (dto.TandaWire, error)
	RegistrarMerma(in dto.MermaRequest) (json.RawMessage, error)
	InfoCharts(params map[string]string) (json.RawMessage, error)
}

// CatalogHandler maneja el CRUD de inventario, tandas y movimientos.
type CatalogHandler struct {
	store CatalogStore
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(store CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

// ListProductos godoc
// @Summary      Listar productos
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ProductoWire
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /inventario/productos [get]
func (h *CatalogHandler) ListProductos(c *fiber.Ctx) error {
	return c.JSON(h.store.Productos())
}

// ListBodegas godoc
// @Summary      Listar bodegas
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.BodegaWire
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /inventario/bodegas [get]
func (h *CatalogHandler) ListBodegas(c *fiber.Ctx) error {
	return c.JSON(h.store.Bodegas())
}

// ListUbicaciones godoc
// @Summary      Listar ubicaciones de una bodega
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {array}   dto.UbicacionWire
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /inventario/bodegas/{id}/ubicaciones [get]
func (h *CatalogHandler) ListUbicaciones(c *fiber.Ctx) error {
	return c.JSON(h.store.UbicacionesByBodega(c.Params("id")))
}

// ListTandas godoc
// @Summary      Listar tandas de un producto
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.TandaWire
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /inventario/productos/{id}/tandas [get]
func (h *CatalogHandler) ListTandas(c *fiber.Ctx) error {
	return c.JSON(h.store.TandasByProducto(c.Params("id")))
}

// InfoCharts godoc
// @Summary      Datos para gráficos de inventario
// @Description  Los query params se pasan tal cual al catálogo.
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        dias  query  int  false  "Ventana de vencimiento en días"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /inventario/infoCharts [get]
func (h *CatalogHandler) InfoCharts(c *fiber.Ctx) error {
	out, err := h.store.InfoCharts(c.Queries())
	if err != nil {
		return writeError(c, err)
	}
	return c.Type("json").Send(out)
}

// ── Productos ────────────────────────────────────────────────────────────────

// CreateProducto godoc
// @Summary      Crear producto
// @Tags         productos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductoRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductoWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /inventario/productos [post]
func (h *CatalogHandler) CreateProducto(c *fiber.Ctx) error {
	var in dto.CreateProductoRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.CreateProducto(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateProducto godoc
// @Summary      Actualizar producto
// @Tags         productos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductoRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.ProductoWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /inventario/productos/{id}/update [patch]
func (h *CatalogHandler) UpdateProducto(c *fiber.Ctx) error {
	var in dto.UpdateProductoRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.UpdateProducto(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteProducto godoc
// @Summary      Eliminar producto
// @Tags         productos
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /inventario/productos/{id}/delete [delete]
func (h *CatalogHandler) DeleteProducto(c *fiber.Ctx) error {
	if err := h.store.DeleteProducto(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Bodegas ──────────────────────────────────────────────────────────────────

// CreateBodega godoc
// @Summary      Crear bodega
// @Tags         bodegas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBodegaRequest  true  "Datos de la bodega"
// @Success      201   {object}  dto.BodegaWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /inventario/bodegas [post]
func (h *CatalogHandler) CreateBodega(c *fiber.Ctx) error {
	var in dto.CreateBodegaRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.CreateBodega(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateBodega godoc
// @Summary      Actualizar bodega
// @Tags         bodegas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la bodega"
// @Param        body  body  dto.UpdateBodegaRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.BodegaWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /inventario/bodegas/{id}/update [patch]
func (h *CatalogHandler) UpdateBodega(c *fiber.Ctx) error {
	var in dto.UpdateBodegaRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.UpdateBodega(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteBodega godoc
// @Summary      Eliminar bodega
// @Tags         bodegas
// @Security     Bearer
// @Param        id   path  string  true  "ID de la bodega"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /inventario/bodegas/{id}/delete [delete]
func (h *CatalogHandler) DeleteBodega(c *fiber.Ctx) error {
	if err := h.store.DeleteBodega(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Ubicaciones ──────────────────────────────────────────────────────────────

// CreateUbicacion godoc
// @Summary      Crear ubicación
// @Tags         ubicaciones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUbicacionRequest  true  "Datos de la ubicación"
// @Success      201   {object}  dto.UbicacionWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /inventario/ubicaciones [post]
func (h *CatalogHandler) CreateUbicacion(c *fiber.Ctx) error {
	var in dto.CreateUbicacionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.CreateUbicacion(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateUbicacion godoc
// @Summary      Actualizar ubicación
// @Tags         ubicaciones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la ubicación"
// @Param        body  body  dto.UpdateUbicacionRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.UbicacionWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /inventario/ubicaciones/{id}/update [patch]
func (h *CatalogHandler) UpdateUbicacion(c *fiber.Ctx) error {
	var in dto.UpdateUbicacionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.UpdateUbicacion(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteUbicacion godoc
// @Summary      Eliminar ubicación
// @Tags         ubicaciones
// @Security     Bearer
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /inventario/ubicaciones/{id}/delete [delete]
func (h *CatalogHandler) DeleteUbicacion(c *fiber.Ctx) error {
	if err := h.store.DeleteUbicacion(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Tandas y movimientos ─────────────────────────────────────────────────────

// CreateTanda godoc
// @Summary      Registrar tanda
// @Description  Suma la cantidad al stock del producto y difunde newTandaCreated y stockProductoChange.
// @Tags         tandas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTandaRequest  true  "Datos de la tanda"
// @Success      201   {object}  dto.TandaWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /inventario/tandas [post]
func (h *CatalogHandler) CreateTanda(c *fiber.Ctx) error {
	var in dto.CreateTandaRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.CreateTanda(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateTanda godoc
// @Summary      Actualizar tanda
// @Description  Recalcula el stock como suma de tandas y difunde newTandaUpdate.
// @Tags         tandas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la tanda"
// @Param        body  body  dto.UpdateTandaRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.TandaWire
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /inventario/tandas/{id}/update [patch]
func (h *CatalogHandler) UpdateTanda(c *fiber.Ctx) error {
	var in dto.UpdateTandaRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.UpdateTanda(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RegistrarMerma godoc
// @Summary      Registrar merma
// @Description  Sin tandaId descuenta primero de las tandas que vencen antes.
// @Tags         movimientos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MermaRequest  true  "Producto, cantidad y motivo"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /movimientos/merma [post]
func (h *CatalogHandler) RegistrarMerma(c *fiber.Ctx) error {
	var in dto.MermaRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.store.RegistrarMerma(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).Type("json").Send(out)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// writeError traduce los errores de dominio a estados HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
