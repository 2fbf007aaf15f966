package inventory_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/internal/domain/inventory"
)

func lote(id string, cantidad int64, vence string) entity.Batch {
	return entity.Batch{ID: id, ProductID: "1", Quantity: decimal.NewFromInt(cantidad), Expiry: vence}
}

func TestRecalculate_SumaYVencimientoMinimo(t *testing.T) {
	p := &entity.Product{ID: "1", Batches: []entity.Batch{
		lote("100", 4, "2025-01-01"),
		lote("101", 6, "2024-06-01"),
	}}
	inventory.Recalculate(p)

	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(10)), "la cantidad total debe ser la suma de lotes")
	require.NotNil(t, p.NearestExpiry)
	assert.Equal(t, "2024-06-01", p.NearestExpiry.Format("2006-01-02"))
}

func TestRecalculate_FechaVencimientoEsTextoDelLoteGanador(t *testing.T) {
	p := &entity.Product{ID: "1", Batches: []entity.Batch{
		lote("100", 4, "2025-01-01T08:30:00Z"),
		lote("101", 6, "2024-06-01"),
		lote("102", 1, "sin fecha"),
	}}
	inventory.Recalculate(p)
	assert.Equal(t, "2024-06-01", p.ExpiryDate)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "2024-06-01", wire["fechaVencimiento"], "se serializa el vencimiento del lote tal cual")

	p.Batches = []entity.Batch{}
	inventory.Recalculate(p)
	assert.Empty(t, p.ExpiryDate)
	raw, err = json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "fechaVencimiento")
}

func TestRecalculate_SinLotes(t *testing.T) {
	exp := time.Now()
	p := &entity.Product{ID: "1", TotalQuantity: decimal.NewFromInt(7), NearestExpiry: &exp, Batches: []entity.Batch{}}
	inventory.Recalculate(p)

	assert.True(t, p.TotalQuantity.IsZero())
	assert.Nil(t, p.NearestExpiry, "sin lotes el vencimiento queda ausente")
}

func TestRecalculate_FechasInvalidasSeExcluyen(t *testing.T) {
	p := &entity.Product{ID: "1", Batches: []entity.Batch{
		lote("1", 1, "no-es-fecha"),
		lote("2", 2, ""),
		lote("3", 3, "2030-03-03T10:00:00Z"),
	}}
	inventory.Recalculate(p)

	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(6)))
	require.NotNil(t, p.NearestExpiry)
	assert.Equal(t, 2030, p.NearestExpiry.Year())
}

func TestRecalculate_TodasInvalidas(t *testing.T) {
	p := &entity.Product{ID: "1", Batches: []entity.Batch{lote("1", 5, "xx"), lote("2", 1, "")}}
	inventory.Recalculate(p)

	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(6)))
	assert.Nil(t, p.NearestExpiry)
}

func TestRefresh_LotesNoCargadosReflejaStock(t *testing.T) {
	p := &entity.Product{ID: "1", Stock: decimal.NewFromInt(12)}
	inventory.Refresh(p)

	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(12)))
	assert.Nil(t, p.NearestExpiry)
}

func TestApplyStock_OverrideHastaProximaMutacion(t *testing.T) {
	p := &entity.Product{ID: "1", Batches: []entity.Batch{lote("1", 3, "2025-01-01")}}
	inventory.Recalculate(p)

	inventory.ApplyStock(p, decimal.NewFromInt(50))
	assert.True(t, p.Stock.Equal(decimal.NewFromInt(50)))
	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(50)))

	p.Batches = append(p.Batches, lote("2", 2, "2026-01-01"))
	inventory.Recalculate(p)
	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(5)), "la mutación de lotes vuelve a derivar el total")
}

func TestParseDate_Formatos(t *testing.T) {
	for _, s := range []string{"2024-06-01", "2024-06-01T00:00:00Z", "2024-06-01T00:00:00.000Z", "2024-06-01T08:30:00"} {
		_, ok := inventory.ParseDate(s)
		assert.True(t, ok, s)
	}
	_, ok := inventory.ParseDate("01/06/2024")
	assert.False(t, ok)
}
