package einvoice

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
)

// GenerateBatch valida y genera varias facturas en paralelo (máximo BatchConcurrency a la vez).
// El resultado conserva el orden de entrada; el primer error cancela el lote.
func (uc *GenerateUseCase) GenerateBatch(ctx context.Context, invoices []*zatca.InvoiceData) ([]*Artifacts, error) {
	results := make([]*Artifacts, len(invoices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.BatchConcurrency)
	for i, data := range invoices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := uc.Preview(gctx, data)
			if err != nil {
				return fmt.Errorf("factura %d: %w", i, err)
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	uc.log.Info().Int("count", len(results)).Msg("lote generado")
	return results, nil
}

// BundleBatch empaqueta en un ZIP el XML y el JSON de cada factura del lote.
func BundleBatch(batch []*Artifacts) ([]byte, error) {
	files := make([]infzatca.ExportFile, 0, 2*len(batch))
	for _, a := range batch {
		xmlFile, jsonFile := a.Files()
		files = append(files, xmlFile, jsonFile)
	}
	return infzatca.BundleZip(files)
}
