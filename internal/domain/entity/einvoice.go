package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// EInvoiceRecord factura ZATCA emitida y sus artefactos tal como se entregaron.
type EInvoiceRecord struct {
	ID              string
	SellerVAT       string
	InvoiceNumber   string
	UUID            string
	InvoiceTypeCode string
	Sequence        int64 // posición en la cadena del vendedor (1, 2, 3...)
	IssueDate       time.Time
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	XML             string // XML exportado (firmado si hubo sello)
	JSON            string
	QRData          string // TLV Base64
	InvoiceHash     string // SHA-256 Base64 del XML sin firma; PIH de la siguiente factura
	InvoiceHashHex  string
	PreviousHash    string
	Stamped         bool
	Payload         []byte // InvoiceData serializada, para regenerar el PDF
	CreatedAt       time.Time
}

// ChainHead último eslabón de la cadena de facturas de un vendedor.
type ChainHead struct {
	SellerVAT string
	Sequence  int64
	LastHash  string
	UpdatedAt time.Time
}
