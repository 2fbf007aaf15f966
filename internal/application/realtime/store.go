package realtime

import (
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/internal/domain/inventory"
)

// ChangeKind colección afectada por una mutación del store.
type ChangeKind string

const (
	ChangeProducts   ChangeKind = "productos"
	ChangeProduct    ChangeKind = "producto"
	ChangeWarehouses ChangeKind = "bodegas"
	ChangeLocations  ChangeKind = "ubicaciones"
	ChangeBatches    ChangeKind = "tandas"
	ChangeRecent     ChangeKind = "recientes"
)

// Change notificación a los observadores. ID es la entidad dueña (producto, bodega) cuando aplica.
type Change struct {
	Kind ChangeKind
	ID   string
}

// Store vista normalizada y agregada del inventario. Es el único recurso mutable compartido:
// las respuestas y los eventos push pasan por los mismos métodos (normalizar → fusionar → recalcular).
// Las lecturas devuelven copias.
type Store struct {
	mu         sync.RWMutex
	products   []*entity.Product
	productIdx map[string]*entity.Product
	warehouses []entity.Warehouse
	locations  map[string][]entity.Location // bodegaID -> ubicaciones; ausente = nunca pedido
	batches    map[string][]entity.Batch    // productoID -> tandas; ausente = nunca pedido
	recent     []entity.RecentBatch

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		productIdx: make(map[string]*entity.Product),
		locations:  make(map[string][]entity.Location),
		batches:    make(map[string][]entity.Batch),
		observers:  make(map[int]func(Change)),
	}
}

// Observe registra fn para cada cambio. Devuelve la función para darse de baja.
// fn se invoca fuera del lock del store.
func (s *Store) Observe(fn func(Change)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(ch Change) {
	s.obsMu.Lock()
	fns := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(ch)
	}
}

// ─── Productos ───────────────────────────────────────────────────────────────

// ReplaceProducts reemplaza la lista de productos. Los lotes ya cargados de un mismo id
// se conservan para no perder agregados vigentes.
func (s *Store) ReplaceProducts(list []entity.Product) {
	s.mu.Lock()
	products := make([]*entity.Product, 0, len(list))
	idx := make(map[string]*entity.Product, len(list))
	for _, in := range list {
		if _, dup := idx[in.ID]; dup {
			continue
		}
		p := in.Clone()
		if old, ok := s.productIdx[p.ID]; ok && old.Batches != nil {
			p.Batches = append([]entity.Batch(nil), old.Batches...)
		}
		inventory.Refresh(&p)
		products = append(products, &p)
		idx[p.ID] = &p
	}
	s.products = products
	s.productIdx = idx
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeProducts})
}

// UpsertProduct fusiona un producto recibido por fuera del canal (p. ej. respuesta REST de creación).
// Conserva los lotes cargados.
func (s *Store) UpsertProduct(in entity.Product) {
	s.mu.Lock()
	if p, ok := s.productIdx[in.ID]; ok {
		p.Name = in.Name
		p.Description = in.Description
		p.Stock = in.Stock
		inventory.Refresh(p)
	} else {
		p := in.Clone()
		p.Batches = nil
		inventory.Refresh(&p)
		s.products = append(s.products, &p)
		s.productIdx[p.ID] = &p
	}
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeProduct, ID: in.ID})
}

// RemoveProduct expulsa el producto y su índice de tandas (flujo de borrado REST).
func (s *Store) RemoveProduct(id string) bool {
	s.mu.Lock()
	_, ok := s.productIdx[id]
	if ok {
		delete(s.productIdx, id)
		for i, p := range s.products {
			if p.ID == id {
				s.products = append(s.products[:i], s.products[i+1:]...)
				break
			}
		}
	}
	delete(s.batches, id)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: ChangeProduct, ID: id})
	}
	return ok
}

// ApplyStock aplica stockProductoChange. Devuelve false si el producto no está cargado.
func (s *Store) ApplyStock(id string, stock decimal.Decimal) bool {
	s.mu.Lock()
	p, ok := s.productIdx[id]
	if ok {
		inventory.ApplyStock(p, stock)
	}
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: ChangeProduct, ID: id})
	}
	return ok
}

// Products devuelve una copia de los productos en orden de llegada.
func (s *Store) Products() []entity.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	return out
}

// Product devuelve una copia del producto.
func (s *Store) Product(id string) (entity.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.productIdx[id]
	if !ok {
		return entity.Product{}, false
	}
	return p.Clone(), true
}

// SearchProducts filtra por nombre sin distinguir mayúsculas ni tildes ("jabon" encuentra "Jabón").
func (s *Store) SearchProducts(q string) []entity.Product {
	needle := foldText(q)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Product, 0)
	for _, p := range s.products {
		if needle == "" || strings.Contains(foldText(p.Name), needle) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// ─── Tandas ──────────────────────────────────────────────────────────────────

// ReplaceBatches guarda la respuesta de <id>-tanda: índice por producto y, si el producto
// está cargado, reemplazo completo de sus lotes + recálculo.
func (s *Store) ReplaceBatches(productID string, list []entity.Batch) {
	list = dedupeBatches(list)
	s.mu.Lock()
	s.batches[productID] = list
	if p, ok := s.productIdx[productID]; ok {
		p.Batches = append(make([]entity.Batch, 0, len(list)), list...)
		inventory.Recalculate(p)
	}
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeBatches, ID: productID})
}

// InsertBatch aplica newTandaCreated: inserta en los lotes del producto solo si el id no existe,
// recalcula y hace upsert en el índice de tandas ya pedido. Devuelve false si el producto no está cargado.
func (s *Store) InsertBatch(b entity.Batch) bool {
	s.mu.Lock()
	p, ok := s.productIdx[b.ProductID]
	if ok {
		if p.BatchIndex(b.ID) < 0 {
			if p.Batches == nil {
				p.Batches = make([]entity.Batch, 0, 1)
			}
			p.Batches = append(p.Batches, b)
		}
		inventory.Recalculate(p)
	}
	if list, fetched := s.batches[b.ProductID]; fetched {
		s.batches[b.ProductID] = upsertBatch(list, b)
	}
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: ChangeBatches, ID: b.ProductID})
	}
	return ok
}

// UpdateBatch aplica mutate sobre el lote existente del producto y recalcula.
// Si el producto o el lote no están cargados no hace nada y devuelve false.
func (s *Store) UpdateBatch(productID, batchID string, mutate func(*entity.Batch)) bool {
	s.mu.Lock()
	p, ok := s.productIdx[productID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	i := p.BatchIndex(batchID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	mutate(&p.Batches[i])
	p.Batches[i].ID = batchID
	p.Batches[i].ProductID = productID
	inventory.Recalculate(p)
	updated := p.Batches[i]
	if list, fetched := s.batches[productID]; fetched {
		s.batches[productID] = upsertBatch(list, updated)
	}
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeBatches, ID: productID})
	return true
}

// RemoveBatch expulsa un lote del producto y del índice, y recalcula.
func (s *Store) RemoveBatch(productID, batchID string) bool {
	s.mu.Lock()
	removed := false
	if p, ok := s.productIdx[productID]; ok {
		if i := p.BatchIndex(batchID); i >= 0 {
			p.Batches = append(p.Batches[:i], p.Batches[i+1:]...)
			inventory.Recalculate(p)
			removed = true
		}
	}
	if list, fetched := s.batches[productID]; fetched {
		for i := range list {
			if list[i].ID == batchID {
				s.batches[productID] = append(list[:i:i], list[i+1:]...)
				removed = true
				break
			}
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Change{Kind: ChangeBatches, ID: productID})
	}
	return removed
}

// Batches devuelve el índice de tandas del producto. ok=false si nunca se pidió.
func (s *Store) Batches(productID string) ([]entity.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.batches[productID]
	if !ok {
		return nil, false
	}
	return append(make([]entity.Batch, 0, len(list)), list...), true
}

func upsertBatch(list []entity.Batch, b entity.Batch) []entity.Batch {
	for i := range list {
		if list[i].ID == b.ID {
			out := append(make([]entity.Batch, 0, len(list)), list...)
			out[i] = b
			return out
		}
	}
	return append(append(make([]entity.Batch, 0, len(list)+1), list...), b)
}

// dedupeBatches deja una sola entrada por id (gana la última) conservando el orden de aparición.
func dedupeBatches(list []entity.Batch) []entity.Batch {
	out := make([]entity.Batch, 0, len(list))
	pos := make(map[string]int, len(list))
	for _, b := range list {
		if i, ok := pos[b.ID]; ok {
			out[i] = b
			continue
		}
		pos[b.ID] = len(out)
		out = append(out, b)
	}
	return out
}

// ─── Bodegas y ubicaciones ───────────────────────────────────────────────────

// ReplaceWarehouses reemplaza la lista de bodegas.
func (s *Store) ReplaceWarehouses(list []entity.Warehouse) {
	s.mu.Lock()
	s.warehouses = append(make([]entity.Warehouse, 0, len(list)), list...)
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeWarehouses})
}

// UpsertWarehouse agrega o actualiza una bodega.
func (s *Store) UpsertWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	found := false
	for i := range s.warehouses {
		if s.warehouses[i].ID == w.ID {
			s.warehouses[i] = w
			found = true
			break
		}
	}
	if !found {
		s.warehouses = append(s.warehouses, w)
	}
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeWarehouses, ID: w.ID})
}

// RemoveWarehouse expulsa la bodega y sus ubicaciones cargadas.
func (s *Store) RemoveWarehouse(id string) bool {
	s.mu.Lock()
	removed := false
	for i := range s.warehouses {
		if s.warehouses[i].ID == id {
			s.warehouses = append(s.warehouses[:i], s.warehouses[i+1:]...)
			removed = true
			break
		}
	}
	delete(s.locations, id)
	s.mu.Unlock()
	if removed {
		s.notify(Change{Kind: ChangeWarehouses, ID: id})
	}
	return removed
}

// Warehouses devuelve una copia de las bodegas.
func (s *Store) Warehouses() []entity.Warehouse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]entity.Warehouse, 0, len(s.warehouses)), s.warehouses...)
}

// ReplaceLocations guarda la respuesta de <id>-ubicaciones.
func (s *Store) ReplaceLocations(warehouseID string, list []entity.Location) {
	s.mu.Lock()
	s.locations[warehouseID] = append(make([]entity.Location, 0, len(list)), list...)
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeLocations, ID: warehouseID})
}

// UpsertLocation agrega o actualiza una ubicación solo si las de su bodega ya se pidieron;
// de lo contrario la bodega quedaría como "pedida" con un resultado parcial.
func (s *Store) UpsertLocation(loc entity.Location) bool {
	s.mu.Lock()
	list, fetched := s.locations[loc.WarehouseID]
	if fetched {
		out := append(make([]entity.Location, 0, len(list)+1), list...)
		found := false
		for i := range out {
			if out[i].ID == loc.ID {
				out[i] = loc
				found = true
				break
			}
		}
		if !found {
			out = append(out, loc)
		}
		s.locations[loc.WarehouseID] = out
	}
	s.mu.Unlock()
	if fetched {
		s.notify(Change{Kind: ChangeLocations, ID: loc.WarehouseID})
	}
	return fetched
}

// RemoveLocation expulsa una ubicación de cualquier bodega cargada.
func (s *Store) RemoveLocation(id string) bool {
	s.mu.Lock()
	owner := ""
	for wid, list := range s.locations {
		for i := range list {
			if list[i].ID == id {
				s.locations[wid] = append(list[:i:i], list[i+1:]...)
				owner = wid
				break
			}
		}
		if owner != "" {
			break
		}
	}
	s.mu.Unlock()
	if owner == "" {
		return false
	}
	s.notify(Change{Kind: ChangeLocations, ID: owner})
	return true
}

// FindLocation busca una ubicación en las bodegas cargadas.
func (s *Store) FindLocation(id string) (entity.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.locations {
		for _, loc := range list {
			if loc.ID == id {
				return loc, true
			}
		}
	}
	return entity.Location{}, false
}

// Locations devuelve las ubicaciones de la bodega. ok=false si nunca se pidieron.
func (s *Store) Locations(warehouseID string) ([]entity.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.locations[warehouseID]
	if !ok {
		return nil, false
	}
	return append(make([]entity.Location, 0, len(list)), list...), true
}

// ─── Proyección de tandas recientes ──────────────────────────────────────────

// SetRecent reemplaza la proyección completa (nunca se parchea).
func (s *Store) SetRecent(list []entity.RecentBatch) {
	s.mu.Lock()
	s.recent = append(make([]entity.RecentBatch, 0, len(list)), list...)
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeRecent})
}

// Recent devuelve una copia de la proyección.
func (s *Store) Recent() []entity.RecentBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]entity.RecentBatch, 0, len(s.recent)), s.recent...)
}
