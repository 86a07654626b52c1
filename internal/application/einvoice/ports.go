package einvoice

import (
	"context"

	"github.com/jhoicas/zatca-api/internal/domain/repository"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

// ChainTxRunner ejecuta una función dentro de una transacción con los repos de la cadena de facturas.
type ChainTxRunner interface {
	RunChain(ctx context.Context, fn func(
		chainRepo repository.ChainRepository,
		invoiceRepo repository.EInvoiceRepository,
	) error) error
}

// InvoicePDFGenerator genera la representación impresa de la factura con su QR.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *zatca.ResolvedInvoice, qrData, invoiceHash string) ([]byte, error)
}
