package einvoice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/zatca-api/internal/domain"
	"github.com/jhoicas/zatca-api/internal/domain/entity"
	"github.com/jhoicas/zatca-api/internal/domain/repository"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
)

// QueryUseCase consulta facturas emitidas y arma sus descargas.
type QueryUseCase struct {
	repo     repository.EInvoiceRepository
	pdf      InvoicePDFGenerator
	defaults zatca.Defaults
}

// NewQueryUseCase construye el caso de uso de consulta.
func NewQueryUseCase(repo repository.EInvoiceRepository, pdf InvoicePDFGenerator, defaults zatca.Defaults) *QueryUseCase {
	return &QueryUseCase{repo: repo, pdf: pdf, defaults: defaults}
}

// GetByUUID devuelve la factura emitida o domain.ErrNotFound.
func (uc *QueryUseCase) GetByUUID(ctx context.Context, id string) (*entity.EInvoiceRecord, error) {
	rec, err := uc.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListBySeller página de facturas de un vendedor, de la más reciente a la más antigua.
func (uc *QueryUseCase) ListBySeller(ctx context.Context, sellerVAT string, limit, offset int) ([]*entity.EInvoiceRecord, error) {
	return uc.repo.ListBySeller(ctx, sellerVAT, limit, offset)
}

// XMLFile descarga del XML tal como se emitió.
func (uc *QueryUseCase) XMLFile(ctx context.Context, id string) (infzatca.ExportFile, error) {
	rec, r, err := uc.load(ctx, id)
	if err != nil {
		return infzatca.ExportFile{}, err
	}
	return infzatca.XMLFile(rec.XML, infzatca.ExportBaseName(r)), nil
}

// JSONFile descarga del JSON tal como se emitió.
func (uc *QueryUseCase) JSONFile(ctx context.Context, id string) (infzatca.ExportFile, error) {
	rec, r, err := uc.load(ctx, id)
	if err != nil {
		return infzatca.ExportFile{}, err
	}
	return infzatca.JSONFile(rec.JSON, infzatca.ExportBaseName(r)), nil
}

// PDFFile regenera la representación impresa desde el payload guardado.
func (uc *QueryUseCase) PDFFile(ctx context.Context, id string) (infzatca.ExportFile, error) {
	if uc.pdf == nil {
		return infzatca.ExportFile{}, fmt.Errorf("einvoice: generador PDF no configurado")
	}
	rec, r, err := uc.load(ctx, id)
	if err != nil {
		return infzatca.ExportFile{}, err
	}
	content, err := uc.pdf.GenerateInvoicePDF(ctx, r, rec.QRData, rec.InvoiceHash)
	if err != nil {
		return infzatca.ExportFile{}, err
	}
	return infzatca.ExportFile{
		Filename:    infzatca.ExportBaseName(r) + ".pdf",
		ContentType: infzatca.ContentTypePDF,
		Content:     content,
	}, nil
}

func (uc *QueryUseCase) load(ctx context.Context, id string) (*entity.EInvoiceRecord, *zatca.ResolvedInvoice, error) {
	rec, err := uc.GetByUUID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var data zatca.InvoiceData
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, fmt.Errorf("einvoice: payload de %s: %w", id, err)
	}
	return rec, zatca.Resolve(&data, uc.defaults), nil
}
