package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/usecase"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

const usage = `uso: sync [comando]
  (sin comando)                          carga tandas recientes y observa cambios
  tanda <productoId> <cantidad> <vence>  registra una tanda (vence AAAA-MM-DD)
  merma <productoId> <cantidad> [motivo] registra una merma
  charts [dias]                          resumen de stock y tandas por vencer`

// runCommand ejecuta el comando opcional de la línea de comandos antes de quedar observando.
func runCommand(ctx context.Context, args []string, catalog *usecase.CatalogUseCase, mov *usecase.MovimientoUseCase, log *logger.Logger) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "tanda":
		if len(args) != 4 {
			return fmt.Errorf("%s", usage)
		}
		qty, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("cantidad inválida %q: %w", args[2], err)
		}
		b, err := catalog.CreateTanda(ctx, dto.CreateTandaRequest{
			ProductoID:       dto.FlexID(args[1]),
			Cantidad:         qty,
			FechaVencimiento: args[3],
		})
		if err != nil {
			return err
		}
		log.Info().Str("tanda", b.ID).Str("producto", b.ProductID).Str("cantidad", b.Quantity.String()).Msg("tanda registrada")
	case "merma":
		if len(args) < 3 {
			return fmt.Errorf("%s", usage)
		}
		qty, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("cantidad inválida %q: %w", args[2], err)
		}
		in := dto.MermaRequest{ProductoID: dto.FlexID(args[1]), Cantidad: qty}
		if len(args) > 3 {
			in.Motivo = args[3]
		}
		out, err := mov.RegistrarMerma(ctx, in)
		if err != nil {
			return err
		}
		log.Info().RawJSON("resultado", out).Msg("merma registrada")
	case "charts":
		params := map[string]string{}
		if len(args) > 1 {
			params["dias"] = args[1]
		}
		out, err := mov.InfoCharts(ctx, params)
		if err != nil {
			return err
		}
		log.Info().RawJSON("charts", out).Msg("resumen de inventario")
	default:
		return fmt.Errorf("comando desconocido %q\n%s", args[0], usage)
	}
	return nil
}
