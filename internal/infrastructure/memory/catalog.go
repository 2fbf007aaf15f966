package memory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
)

//go:embed seed.json
var defaultSeed []byte

// Notifier recibe los eventos push que produce cada mutación (stockProductoChange, newTandaCreated, newTandaUpdate).
type Notifier func(event string, data any)

// User usuario del peer de desarrollo.
type User struct {
	ID           string
	Email        string
	Nombre       string
	Rol          string
	PasswordHash string
}

type producto struct {
	id          string
	nombre      string
	descripcion string
	stock       decimal.Decimal
}

type bodega struct {
	id, nombre, direccion string
}

type ubicacion struct {
	id, bodegaID, nombre string
}

type tanda struct {
	id, productoID, ubicacionID, codigo string
	cantidad                            decimal.Decimal
	fechaVencimiento, fechaIngreso      string
	createdAt                           string
}

// Catalog estado del servidor de inventario en memoria: lo que el peer sirve por socket y por REST.
// Cada mutación de tandas o stock se anuncia por el Notifier.
type Catalog struct {
	mu          sync.RWMutex
	productos   []*producto
	bodegas     []*bodega
	ubicaciones []*ubicacion
	tandas      []*tanda
	users       map[string]*User
	nextID      int
	notify      Notifier
	now         func() time.Time
}

// Seed contenido inicial del catálogo.
type Seed struct {
	Usuarios []struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nombre   string `json:"nombre"`
		Rol      string `json:"rol"`
	} `json:"usuarios"`
	Bodegas     []dto.BodegaWire    `json:"bodegas"`
	Ubicaciones []dto.UbicacionWire `json:"ubicaciones"`
	Productos   []dto.ProductoWire  `json:"productos"`
	Tandas      []dto.TandaWire     `json:"tandas"`
}

// NewCatalog crea un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		users:  make(map[string]*User),
		notify: func(string, any) {},
		now:    time.Now,
	}
}

// LoadCatalog crea un catálogo desde un archivo de seed; path vacío usa el seed embebido.
func LoadCatalog(path string) (*Catalog, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("leer seed %s: %w", path, err)
		}
		raw = b
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("seed inválido: %w", err)
	}
	c := NewCatalog()
	if err := c.Apply(seed); err != nil {
		return nil, err
	}
	return c, nil
}

// SetNotifier fija el destino de los eventos push.
func (c *Catalog) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil {
		n = func(string, any) {}
	}
	c.notify = n
}

// Apply carga un seed. El stock de cada producto es la suma de sus tandas.
func (c *Catalog) Apply(seed Seed) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range seed.Usuarios {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
		if err != nil {
			return err
		}
		c.nextID++
		email := strings.ToLower(u.Email)
		c.users[email] = &User{ID: strconv.Itoa(c.nextID), Email: email, Nombre: u.Nombre, Rol: u.Rol, PasswordHash: string(hash)}
	}
	for _, b := range seed.Bodegas {
		c.bodegas = append(c.bodegas, &bodega{id: c.seedID(b.ID), nombre: b.Nombre, direccion: b.Direccion})
	}
	for _, u := range seed.Ubicaciones {
		c.ubicaciones = append(c.ubicaciones, &ubicacion{id: c.seedID(u.ID), bodegaID: string(u.BodegaID), nombre: u.Nombre})
	}
	for _, p := range seed.Productos {
		c.productos = append(c.productos, &producto{id: c.seedID(p.ID), nombre: p.Nombre, descripcion: p.Descripcion})
	}
	for _, w := range seed.Tandas {
		t := tandaFromWire(w)
		t.id = c.seedID(w.ID)
		if t.createdAt == "" {
			t.createdAt = c.now().UTC().Format(time.RFC3339)
		}
		c.tandas = append(c.tandas, t)
	}
	for _, p := range c.productos {
		p.stock = c.sumLocked(p.id)
	}
	return nil
}

// seedID respeta el id del seed y mantiene nextID por encima de los numéricos.
func (c *Catalog) seedID(id dto.FlexID) string {
	if n, err := strconv.Atoi(string(id)); err == nil && n > c.nextID {
		c.nextID = n
	}
	if id == "" {
		return c.newIDLocked()
	}
	return string(id)
}

func (c *Catalog) newIDLocked() string {
	c.nextID++
	return strconv.Itoa(c.nextID)
}

// ─── Lecturas (canales de petición) ──────────────────────────────────────────

// Productos responde getAllProductos.
func (c *Catalog) Productos() []dto.ProductoWire {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dto.ProductoWire, 0, len(c.productos))
	for _, p := range c.productos {
		out = append(out, p.wire())
	}
	return out
}

// Bodegas responde getAllBodegas.
func (c *Catalog) Bodegas() []dto.BodegaWire {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dto.BodegaWire, 0, len(c.bodegas))
	for _, b := range c.bodegas {
		out = append(out, b.wire())
	}
	return out
}

// UbicacionesByBodega responde getUbicacionesByBodega.
func (c *Catalog) UbicacionesByBodega(bodegaID string) []dto.UbicacionWire {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dto.UbicacionWire, 0)
	for _, u := range c.ubicaciones {
		if u.bodegaID == bodegaID {
			out = append(out, u.wire())
		}
	}
	return out
}

// TandasByProducto responde getTandasByIdProducto.
func (c *Catalog) TandasByProducto(productoID string) []dto.TandaWire {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dto.TandaWire, 0)
	for _, t := range c.tandas {
		if t.productoID == productoID {
			out = append(out, t.wire())
		}
	}
	return out
}

// ─── Auth ────────────────────────────────────────────────────────────────────

// Authenticate verifica email/password. ErrUnauthorized si no coinciden.
func (c *Catalog) Authenticate(email, password string) (*User, error) {
	c.mu.RLock()
	u, ok := c.users[strings.ToLower(strings.TrimSpace(email))]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	out := *u
	return &out, nil
}

// ─── Productos ───────────────────────────────────────────────────────────────

// CreateProducto crea un producto con stock inicial.
func (c *Catalog) CreateProducto(in dto.CreateProductoRequest) (dto.ProductoWire, error) {
	if strings.TrimSpace(in.Nombre) == "" || in.Stock.IsNegative() {
		return dto.ProductoWire{}, domain.ErrInvalidInput
	}
	c.mu.Lock()
	p := &producto{id: c.newIDLocked(), nombre: in.Nombre, descripcion: in.Descripcion, stock: in.Stock}
	c.productos = append(c.productos, p)
	w := p.wire()
	c.mu.Unlock()
	return w, nil
}

// UpdateProducto actualiza nombre y descripción.
func (c *Catalog) UpdateProducto(id string, in dto.UpdateProductoRequest) (dto.ProductoWire, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.productoLocked(id)
	if p == nil {
		return dto.ProductoWire{}, domain.ErrNotFound
	}
	if in.Nombre != nil {
		if strings.TrimSpace(*in.Nombre) == "" {
			return dto.ProductoWire{}, domain.ErrInvalidInput
		}
		p.nombre = *in.Nombre
	}
	if in.Descripcion != nil {
		p.descripcion = *in.Descripcion
	}
	return p.wire(), nil
}

// DeleteProducto elimina el producto y sus tandas.
func (c *Catalog) DeleteProducto(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.productos, func(p *producto) bool { return p.id == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	c.productos = slices.Delete(c.productos, i, i+1)
	c.tandas = slices.DeleteFunc(c.tandas, func(t *tanda) bool { return t.productoID == id })
	return nil
}

func (c *Catalog) productoLocked(id string) *producto {
	for _, p := range c.productos {
		if p.id == id {
			return p
		}
	}
	return nil
}

// ─── Bodegas ─────────────────────────────────────────────────────────────────

// CreateBodega crea una bodega.
func (c *Catalog) CreateBodega(in dto.CreateBodegaRequest) (dto.BodegaWire, error) {
	if strings.TrimSpace(in.Nombre) == "" {
		return dto.BodegaWire{}, domain.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &bodega{id: c.newIDLocked(), nombre: in.Nombre, direccion: in.Direccion}
	c.bodegas = append(c.bodegas, b)
	return b.wire(), nil
}

// UpdateBodega actualiza una bodega.
func (c *Catalog) UpdateBodega(id string, in dto.UpdateBodegaRequest) (dto.BodegaWire, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.bodegas {
		if b.id != id {
			continue
		}
		if in.Nombre != nil {
			b.nombre = *in.Nombre
		}
		if in.Direccion != nil {
			b.direccion = *in.Direccion
		}
		return b.wire(), nil
	}
	return dto.BodegaWire{}, domain.ErrNotFound
}

// DeleteBodega elimina la bodega y sus ubicaciones. Falla con ErrConflict si alguna tanda está ubicada en ella.
func (c *Catalog) DeleteBodega(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.bodegas, func(b *bodega) bool { return b.id == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	owned := map[string]bool{}
	for _, u := range c.ubicaciones {
		if u.bodegaID == id {
			owned[u.id] = true
		}
	}
	for _, t := range c.tandas {
		if owned[t.ubicacionID] {
			return domain.ErrConflict
		}
	}
	c.bodegas = slices.Delete(c.bodegas, i, i+1)
	c.ubicaciones = slices.DeleteFunc(c.ubicaciones, func(u *ubicacion) bool { return u.bodegaID == id })
	return nil
}

// ─── Ubicaciones ─────────────────────────────────────────────────────────────

// CreateUbicacion crea una ubicación en una bodega existente.
func (c *Catalog) CreateUbicacion(in dto.CreateUbicacionRequest) (dto.UbicacionWire, error) {
	if in.BodegaID == "" || strings.TrimSpace(in.Nombre) == "" {
		return dto.UbicacionWire{}, domain.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.ContainsFunc(c.bodegas, func(b *bodega) bool { return b.id == string(in.BodegaID) }) {
		return dto.UbicacionWire{}, domain.ErrNotFound
	}
	u := &ubicacion{id: c.newIDLocked(), bodegaID: string(in.BodegaID), nombre: in.Nombre}
	c.ubicaciones = append(c.ubicaciones, u)
	return u.wire(), nil
}

// UpdateUbicacion actualiza una ubicación.
func (c *Catalog) UpdateUbicacion(id string, in dto.UpdateUbicacionRequest) (dto.UbicacionWire, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.ubicaciones {
		if u.id != id {
			continue
		}
		if in.Nombre != nil {
			u.nombre = *in.Nombre
		}
		return u.wire(), nil
	}
	return dto.UbicacionWire{}, domain.ErrNotFound
}

// DeleteUbicacion elimina una ubicación sin tandas.
func (c *Catalog) DeleteUbicacion(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.ubicaciones, func(u *ubicacion) bool { return u.id == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	if slices.ContainsFunc(c.tandas, func(t *tanda) bool { return t.ubicacionID == id }) {
		return domain.ErrConflict
	}
	c.ubicaciones = slices.Delete(c.ubicaciones, i, i+1)
	return nil
}

// ─── Tandas y movimientos ────────────────────────────────────────────────────

// CreateTanda registra una tanda, suma su cantidad al stock y anuncia newTandaCreated y stockProductoChange.
func (c *Catalog) CreateTanda(in dto.CreateTandaRequest) (dto.TandaWire, error) {
	if in.ProductoID == "" || in.Cantidad.IsNegative() {
		return dto.TandaWire{}, domain.ErrInvalidInput
	}
	c.mu.Lock()
	p := c.productoLocked(string(in.ProductoID))
	if p == nil {
		c.mu.Unlock()
		return dto.TandaWire{}, domain.ErrNotFound
	}
	t := &tanda{
		id:               c.newIDLocked(),
		productoID:       p.id,
		ubicacionID:      string(in.UbicacionID),
		codigo:           in.Codigo,
		cantidad:         in.Cantidad,
		fechaVencimiento: in.FechaVencimiento,
		fechaIngreso:     c.now().UTC().Format("2006-01-02"),
		createdAt:        c.now().UTC().Format(time.RFC3339),
	}
	c.tandas = append(c.tandas, t)
	p.stock = p.stock.Add(t.cantidad)
	w, stock, notify := t.wire(), p.stock, c.notify
	c.mu.Unlock()

	notify(realtime.EventNewTandaCreated, w)
	notify(realtime.EventStockProductoChange, dto.StockChangeEvent{ID: dto.FlexID(p.id), Stock: &stock})
	return w, nil
}

// UpdateTanda actualiza cantidad, vencimiento o ubicación, ajusta el stock y anuncia newTandaUpdate.
func (c *Catalog) UpdateTanda(id string, in dto.UpdateTandaRequest) (dto.TandaWire, error) {
	if in.Cantidad != nil && in.Cantidad.IsNegative() {
		return dto.TandaWire{}, domain.ErrInvalidInput
	}
	c.mu.Lock()
	t := c.tandaLocked(id)
	if t == nil {
		c.mu.Unlock()
		return dto.TandaWire{}, domain.ErrNotFound
	}
	if in.Cantidad != nil {
		t.cantidad = *in.Cantidad
	}
	if in.FechaVencimiento != nil {
		t.fechaVencimiento = *in.FechaVencimiento
	}
	if in.UbicacionID != nil {
		t.ubicacionID = string(*in.UbicacionID)
	}
	w, notify := t.wire(), c.notify
	stockEv := c.restockLocked(t.productoID, in.Cantidad != nil)
	c.mu.Unlock()

	notify(realtime.EventNewTandaUpdate, w)
	if stockEv != nil {
		notify(realtime.EventStockProductoChange, *stockEv)
	}
	return w, nil
}

// RegistrarMerma descuenta cantidad de la tanda indicada (o de las tandas del producto en orden
// de vencimiento) y anuncia los cambios. ErrConflict si no alcanza.
func (c *Catalog) RegistrarMerma(in dto.MermaRequest) (json.RawMessage, error) {
	if in.ProductoID == "" || !in.Cantidad.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	c.mu.Lock()
	p := c.productoLocked(string(in.ProductoID))
	if p == nil {
		c.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	var targets []*tanda
	if in.TandaID != "" {
		t := c.tandaLocked(string(in.TandaID))
		if t == nil || t.productoID != p.id {
			c.mu.Unlock()
			return nil, domain.ErrNotFound
		}
		targets = []*tanda{t}
	} else {
		for _, t := range c.tandas {
			if t.productoID == p.id && t.cantidad.IsPositive() {
				targets = append(targets, t)
			}
		}
		slices.SortStableFunc(targets, func(a, b *tanda) int { return strings.Compare(a.fechaVencimiento, b.fechaVencimiento) })
	}
	available := decimal.Zero
	for _, t := range targets {
		available = available.Add(t.cantidad)
	}
	if available.LessThan(in.Cantidad) {
		c.mu.Unlock()
		return nil, domain.ErrConflict
	}

	pending := in.Cantidad
	updated := make([]dto.TandaWire, 0, len(targets))
	for _, t := range targets {
		if !pending.IsPositive() {
			break
		}
		take := decimal.Min(pending, t.cantidad)
		t.cantidad = t.cantidad.Sub(take)
		pending = pending.Sub(take)
		updated = append(updated, t.wire())
	}
	stockEv := c.restockLocked(p.id, true)
	notify := c.notify
	c.mu.Unlock()

	for _, w := range updated {
		notify(realtime.EventNewTandaUpdate, w)
	}
	if stockEv != nil {
		notify(realtime.EventStockProductoChange, *stockEv)
	}
	res, _ := json.Marshal(map[string]any{
		"productoId": dto.FlexID(p.id),
		"cantidad":   in.Cantidad,
		"motivo":     in.Motivo,
		"tandas":     updated,
	})
	return res, nil
}

// InfoCharts resumen para gráficos: stock por producto y tandas por vencer en 30 días.
func (c *Catalog) InfoCharts(params map[string]string) (json.RawMessage, error) {
	days := 30
	if v, ok := params["dias"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, domain.ErrInvalidInput
		}
		days = n
	}
	limit := c.now().AddDate(0, 0, days).Format("2006-01-02")

	c.mu.RLock()
	labels := make([]string, 0, len(c.productos))
	data := make([]decimal.Decimal, 0, len(c.productos))
	for _, p := range c.productos {
		labels = append(labels, p.nombre)
		data = append(data, p.stock)
	}
	porVencer := make([]dto.TandaWire, 0)
	for _, t := range c.tandas {
		if t.fechaVencimiento != "" && t.fechaVencimiento <= limit && t.cantidad.IsPositive() {
			porVencer = append(porVencer, t.wire())
		}
	}
	c.mu.RUnlock()

	return json.Marshal(map[string]any{
		"labels":    labels,
		"data":      data,
		"porVencer": porVencer,
	})
}

func (c *Catalog) tandaLocked(id string) *tanda {
	for _, t := range c.tandas {
		if t.id == id {
			return t
		}
	}
	return nil
}

// restockLocked recalcula el stock como suma de tandas cuando changed; devuelve el evento a anunciar.
func (c *Catalog) restockLocked(productoID string, changed bool) *dto.StockChangeEvent {
	if !changed {
		return nil
	}
	p := c.productoLocked(productoID)
	if p == nil {
		return nil
	}
	p.stock = c.sumLocked(productoID)
	stock := p.stock
	return &dto.StockChangeEvent{ID: dto.FlexID(p.id), Stock: &stock}
}

func (c *Catalog) sumLocked(productoID string) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range c.tandas {
		if t.productoID == productoID {
			sum = sum.Add(t.cantidad)
		}
	}
	return sum
}

// ─── Forma de cable ──────────────────────────────────────────────────────────

func (p *producto) wire() dto.ProductoWire {
	stock := p.stock
	return dto.ProductoWire{ID: dto.FlexID(p.id), Nombre: p.nombre, Descripcion: p.descripcion, Stock: &stock}
}

func (b *bodega) wire() dto.BodegaWire {
	return dto.BodegaWire{ID: dto.FlexID(b.id), Nombre: b.nombre, Direccion: b.direccion}
}

func (u *ubicacion) wire() dto.UbicacionWire {
	return dto.UbicacionWire{ID: dto.FlexID(u.id), BodegaID: dto.FlexID(u.bodegaID), Nombre: u.nombre}
}

// wire emite la tanda como la envía el servidor: cantidad y fechaVencimiento.
func (t *tanda) wire() dto.TandaWire {
	q := t.cantidad
	w := dto.TandaWire{
		ID:          dto.FlexID(t.id),
		ProductoID:  dto.FlexID(t.productoID),
		UbicacionID: dto.FlexID(t.ubicacionID),
		Cantidad:    &q,
	}
	if t.codigo != "" {
		s := t.codigo
		w.Codigo = &s
	}
	if t.fechaVencimiento != "" {
		s := t.fechaVencimiento
		w.FechaVencimiento = &s
	}
	if t.fechaIngreso != "" {
		s := t.fechaIngreso
		w.FechaIngreso = &s
	}
	if t.createdAt != "" {
		s := t.createdAt
		w.CreatedAt = &s
	}
	return w
}

func tandaFromWire(w dto.TandaWire) *tanda {
	t := &tanda{
		productoID:  string(w.ProductoID),
		ubicacionID: string(w.UbicacionID),
		cantidad:    realtime.NormalizeBatch(w).Quantity,
	}
	if w.Codigo != nil {
		t.codigo = *w.Codigo
	}
	if w.FechaVencimiento != nil {
		t.fechaVencimiento = *w.FechaVencimiento
	}
	if w.FechaIngreso != nil {
		t.fechaIngreso = *w.FechaIngreso
	}
	if w.CreatedAt != nil {
		t.createdAt = *w.CreatedAt
	}
	return t
}
