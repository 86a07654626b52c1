package repository

import (
	"context"

	"github.com/jhoicas/zatca-api/internal/domain/entity"
)

// EInvoiceRepository define el puerto de persistencia de las facturas ZATCA emitidas.
type EInvoiceRepository interface {
	Create(ctx context.Context, rec *entity.EInvoiceRecord) error
	// GetByUUID retorna nil, nil si no existe.
	GetByUUID(ctx context.Context, uuid string) (*entity.EInvoiceRecord, error)
	// ListBySeller devuelve una página de facturas del vendedor, la más reciente primero.
	ListBySeller(ctx context.Context, sellerVAT string, limit, offset int) ([]*entity.EInvoiceRecord, error)
}

// ChainRepository cabezas de cadena por vendedor (PIH + contador).
type ChainRepository interface {
	// LockHead bloquea la cabeza del vendedor hasta el fin de la transacción; nil si aún no existe.
	LockHead(ctx context.Context, sellerVAT string) (*entity.ChainHead, error)
	SaveHead(ctx context.Context, head *entity.ChainHead) error
}
