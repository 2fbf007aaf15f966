package realtime

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/internal/domain/inventory"
)

// FetchRecent arma la proyección "tandas recientes": limpia la proyección, pide todos los
// productos y luego las tandas de cada uno (en orden, o con RecentConcurrency peticiones a la vez;
// el store serializa los recálculos), anota el nombre del producto, ordena por fecha de ingreso
// descendente y recorta a limit. limit <= 0 no recorta.
func (s *SyncService) FetchRecent(ctx context.Context, limit int) ([]entity.RecentBatch, error) {
	s.store.SetRecent(nil)

	products, err := s.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	perProduct := make([][]entity.RecentBatch, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recentConcurrency)
	for i, p := range products {
		g.Go(func() error {
			batches, err := s.FetchBatches(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("tandas del producto %s: %w", p.ID, err)
			}
			out := make([]entity.RecentBatch, 0, len(batches))
			for _, b := range batches {
				out = append(out, entity.RecentBatch{Batch: b, ProductName: p.Name})
			}
			perProduct[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]entity.RecentBatch, 0)
	for _, list := range perProduct {
		all = append(all, list...)
	}
	SortRecent(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	s.store.SetRecent(all)
	return all, nil
}

// SortRecent ordena por fecha de ingreso descendente (fechaIngreso, o createdAt si falta).
// Las tandas sin fecha válida van al final; el orden relativo de empates se conserva.
func SortRecent(list []entity.RecentBatch) {
	slices.SortStableFunc(list, func(a, b entity.RecentBatch) int {
		ta, oka := arrival(a.Batch)
		tb, okb := arrival(b.Batch)
		switch {
		case oka && okb:
			return tb.Compare(ta)
		case oka:
			return -1
		case okb:
			return 1
		default:
			return 0
		}
	})
}

func arrival(b entity.Batch) (time.Time, bool) {
	if t, ok := inventory.ParseDate(b.ReceivedAt); ok {
		return t, true
	}
	return inventory.ParseDate(b.CreatedAt)
}
