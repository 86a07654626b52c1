package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zatca-api/internal/domain"
	"github.com/jhoicas/zatca-api/internal/domain/entity"
	"github.com/jhoicas/zatca-api/internal/domain/repository"
)

var _ repository.EInvoiceRepository = (*EInvoiceRepo)(nil)

// EInvoiceRepo implementación de EInvoiceRepository (usable con pool o tx).
type EInvoiceRepo struct {
	q Querier
}

// NewEInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEInvoiceRepository(q Querier) *EInvoiceRepo {
	return &EInvoiceRepo{q: q}
}

const einvoiceColumns = `id, seller_vat, invoice_number, uuid, invoice_type_code, sequence, issue_date,
		       subtotal, tax_amount, total, xml, json, qr_data, invoice_hash, invoice_hash_hex,
		       previous_hash, stamped, payload, created_at`

// Create persiste la factura emitida.
func (r *EInvoiceRepo) Create(ctx context.Context, rec *entity.EInvoiceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
		INSERT INTO zatca_invoices (` + einvoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.SellerVAT, rec.InvoiceNumber, rec.UUID, rec.InvoiceTypeCode, rec.Sequence, rec.IssueDate,
		rec.Subtotal, rec.TaxAmount, rec.Total, rec.XML, rec.JSON, nullIfEmpty(rec.QRData),
		rec.InvoiceHash, rec.InvoiceHashHex, rec.PreviousHash, rec.Stamped, rec.Payload, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicate, rec.SellerVAT, rec.InvoiceNumber)
		}
		return fmt.Errorf("insert zatca invoice: %w", err)
	}
	return nil
}

// GetByUUID obtiene una factura por su UUID.
func (r *EInvoiceRepo) GetByUUID(ctx context.Context, id string) (*entity.EInvoiceRecord, error) {
	// la columna es UUID: un identificador mal formado no puede existir
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + einvoiceColumns + ` FROM zatca_invoices WHERE uuid = $1`
	rec, err := scanEInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get zatca invoice: %w", err)
	}
	return rec, nil
}

// ListBySeller lista las facturas del vendedor, la más reciente primero.
func (r *EInvoiceRepo) ListBySeller(ctx context.Context, sellerVAT string, limit, offset int) ([]*entity.EInvoiceRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + einvoiceColumns + ` FROM zatca_invoices WHERE seller_vat = $1 ORDER BY sequence DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, sellerVAT, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list zatca invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.EInvoiceRecord
	for rows.Next() {
		rec, err := scanEInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zatca invoice: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func scanEInvoice(row pgx.Row) (*entity.EInvoiceRecord, error) {
	var rec entity.EInvoiceRecord
	var qrData *string
	err := row.Scan(
		&rec.ID, &rec.SellerVAT, &rec.InvoiceNumber, &rec.UUID, &rec.InvoiceTypeCode, &rec.Sequence, &rec.IssueDate,
		&rec.Subtotal, &rec.TaxAmount, &rec.Total, &rec.XML, &rec.JSON, &qrData,
		&rec.InvoiceHash, &rec.InvoiceHashHex, &rec.PreviousHash, &rec.Stamped, &rec.Payload, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.QRData = derefStr(qrData)
	return &rec, nil
}
