// Package zatca modela la factura electrónica ZATCA (Arabia Saudita) y las reglas puras
// que la acompañan: resolución de campos derivados, validación, QR TLV, hash y UUID.
package zatca

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address dirección postal de una parte. Todos los campos son opcionales.
type Address struct {
	Street         string `json:"street,omitempty"`
	BuildingNumber string `json:"building_number,omitempty"`
	District       string `json:"district,omitempty"`
	City           string `json:"city,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	Country        string `json:"country,omitempty"` // ISO 3166-1 alfa-2; vacío = país por defecto
}

// Seller emisor (AccountingSupplierParty).
type Seller struct {
	Name               string  `json:"name"`
	VATNumber          string  `json:"vat_number"`
	CommercialRegister string  `json:"commercial_register,omitempty"`
	Address            Address `json:"address"`
}

// Buyer adquiriente (AccountingCustomerParty). TaxNumber o IDNumber identifican al comprador;
// la presencia de TaxNumber convierte la factura en estándar (B2B).
type Buyer struct {
	Name      string  `json:"name"`
	TaxNumber string  `json:"tax_number,omitempty"`
	IDNumber  string  `json:"id_number,omitempty"`
	Address   Address `json:"address"`
}

// LineItem línea de la factura. Total lo calcula el llamador (UnitPrice*Quantity + TaxAmount).
type LineItem struct {
	Description string              `json:"description"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	TaxRate     decimal.Decimal     `json:"tax_rate"`
	TaxAmount   decimal.NullDecimal `json:"tax_amount"` // opcional; se deriva si no viene
	Total       decimal.Decimal     `json:"total"`
	UnitCode    string              `json:"unit_code,omitempty"`
}

// InvoiceData datos lógicos de la factura tal como los arma el ERP. Inmutable por llamada.
type InvoiceData struct {
	UUID            string    `json:"uuid"`
	InvoiceNumber   string    `json:"invoice_number"`
	InvoiceTypeCode string    `json:"invoice_type_code"` // 388, 381, 383
	InvoiceDate     time.Time `json:"invoice_date"`

	Seller Seller     `json:"seller"`
	Buyer  Buyer      `json:"buyer"`
	Items  []LineItem `json:"items"`

	// Totales agregados por el llamador; el generador no los recalcula.
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
	TaxRate   decimal.Decimal `json:"tax_rate"`

	Currency      string `json:"currency,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Notes         string `json:"notes,omitempty"`

	// Notas crédito/débito: factura original y motivo de emisión.
	BillingReferenceID string `json:"billing_reference_id,omitempty"`
	Reason             string `json:"reason,omitempty"`

	// Hash de la factura anterior de la cadena (Base64). Vacío = Defaults.InitialPreviousInvoiceHash.
	PreviousInvoiceHash string `json:"previous_invoice_hash,omitempty"`
}

// Defaults constantes de configuración inyectadas en el borde de la llamada.
type Defaults struct {
	Currency                   string
	UnitCode                   string
	Country                    string
	InitialPreviousInvoiceHash string
	// Location zona horaria para IssueDate/IssueTime; nil = la zona de InvoiceDate.
	Location *time.Location
}
