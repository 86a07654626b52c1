package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-api/internal/domain/entity"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

// AddressRequest dirección postal; todos los campos son opcionales.
type AddressRequest struct {
	Street         string `json:"street,omitempty" validate:"max=1000"`
	BuildingNumber string `json:"building_number,omitempty" validate:"max=127"`
	District       string `json:"district,omitempty" validate:"max=127"`
	City           string `json:"city,omitempty" validate:"max=127"`
	PostalCode     string `json:"postal_code,omitempty" validate:"max=127"`
	Country        string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// SellerRequest emisor de la factura.
type SellerRequest struct {
	Name               string         `json:"name" validate:"required,max=1000"`
	VATNumber          string         `json:"vat_number" validate:"required,len=15,numeric"`
	CommercialRegister string         `json:"commercial_register,omitempty" validate:"max=127"`
	Address            AddressRequest `json:"address"`
}

// BuyerRequest comprador. Con tax_number la factura es estándar (B2B).
type BuyerRequest struct {
	Name      string         `json:"name" validate:"required_with=TaxNumber,max=1000"`
	TaxNumber string         `json:"tax_number,omitempty" validate:"omitempty,len=15,numeric"`
	IDNumber  string         `json:"id_number,omitempty" validate:"max=127"`
	Address   AddressRequest `json:"address"`
}

// LineItemRequest línea de factura.
type LineItemRequest struct {
	Description string           `json:"description" validate:"required,max=1000"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
	TaxAmount   *decimal.Decimal `json:"tax_amount,omitempty"`
	Total       decimal.Decimal  `json:"total"`
	UnitCode    string           `json:"unit_code,omitempty" validate:"max=10"`
}

// InvoiceRequest body para POST /api/zatca/invoices y /preview.
type InvoiceRequest struct {
	UUID            string            `json:"uuid,omitempty" validate:"omitempty,uuid4"`
	InvoiceNumber   string            `json:"invoice_number" validate:"required,max=127"`
	InvoiceTypeCode string            `json:"invoice_type_code,omitempty" validate:"omitempty,oneof=388 381 383"`
	InvoiceDate     time.Time         `json:"invoice_date"`
	Seller          SellerRequest     `json:"seller"`
	Buyer           BuyerRequest      `json:"buyer"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
	TaxRate   decimal.Decimal `json:"tax_rate"`

	Currency      string `json:"currency,omitempty" validate:"omitempty,iso4217"`
	PaymentMethod string `json:"payment_method,omitempty" validate:"max=32"`
	Notes         string `json:"notes,omitempty" validate:"max=1000"`

	BillingReferenceID  string `json:"billing_reference_id,omitempty" validate:"max=127"`
	Reason              string `json:"reason,omitempty" validate:"max=1000"`
	PreviousInvoiceHash string `json:"previous_invoice_hash,omitempty" validate:"omitempty,base64"`
}

// ToDomain convierte el request en la factura del dominio.
func (r *InvoiceRequest) ToDomain() *zatca.InvoiceData {
	items := make([]zatca.LineItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = zatca.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Total:       it.Total,
			UnitCode:    it.UnitCode,
		}
		if it.TaxAmount != nil {
			items[i].TaxAmount = decimal.NewNullDecimal(*it.TaxAmount)
		}
	}
	return &zatca.InvoiceData{
		UUID:            r.UUID,
		InvoiceNumber:   r.InvoiceNumber,
		InvoiceTypeCode: r.InvoiceTypeCode,
		InvoiceDate:     r.InvoiceDate,
		Seller: zatca.Seller{
			Name:               r.Seller.Name,
			VATNumber:          r.Seller.VATNumber,
			CommercialRegister: r.Seller.CommercialRegister,
			Address:            r.Seller.Address.toDomain(),
		},
		Buyer: zatca.Buyer{
			Name:      r.Buyer.Name,
			TaxNumber: r.Buyer.TaxNumber,
			IDNumber:  r.Buyer.IDNumber,
			Address:   r.Buyer.Address.toDomain(),
		},
		Items:               items,
		Subtotal:            r.Subtotal,
		TaxAmount:           r.TaxAmount,
		Total:               r.Total,
		TaxRate:             r.TaxRate,
		Currency:            r.Currency,
		PaymentMethod:       r.PaymentMethod,
		Notes:               r.Notes,
		BillingReferenceID:  r.BillingReferenceID,
		Reason:              r.Reason,
		PreviousInvoiceHash: r.PreviousInvoiceHash,
	}
}

func (a AddressRequest) toDomain() zatca.Address {
	return zatca.Address{
		Street:         a.Street,
		BuildingNumber: a.BuildingNumber,
		District:       a.District,
		City:           a.City,
		PostalCode:     a.PostalCode,
		Country:        a.Country,
	}
}

// BatchRequest body para POST /api/zatca/invoices/batch.
type BatchRequest struct {
	Invoices []InvoiceRequest `json:"invoices" validate:"required,min=1,max=100,dive"`
}

// ArtifactsResponse artefactos generados. XML y JSON viajan como texto para no alterar sus bytes.
type ArtifactsResponse struct {
	UUID           string `json:"uuid"`
	InvoiceNumber  string `json:"invoice_number"`
	InvoiceSubtype string `json:"invoice_subtype"`
	InvoiceHash    string `json:"invoice_hash"`
	InvoiceHashHex string `json:"invoice_hash_hex"`
	QRData         string `json:"qr_data"`
	XML            string `json:"xml"`
	JSON           string `json:"json"`
	Stamped        bool   `json:"stamped"`
}

// IssueResponse factura emitida en la cadena del vendedor.
type IssueResponse struct {
	ArtifactsResponse
	Sequence     int64  `json:"sequence"`
	PreviousHash string `json:"previous_hash"`
}

// EInvoiceResponse factura almacenada para GET /api/zatca/invoices/:uuid.
type EInvoiceResponse struct {
	ID              string          `json:"id"`
	UUID            string          `json:"uuid"`
	SellerVAT       string          `json:"seller_vat"`
	InvoiceNumber   string          `json:"invoice_number"`
	InvoiceTypeCode string          `json:"invoice_type_code"`
	Sequence        int64           `json:"sequence"`
	IssueDate       string          `json:"issue_date"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	QRData          string          `json:"qr_data"`
	InvoiceHash     string          `json:"invoice_hash"`
	PreviousHash    string          `json:"previous_hash"`
	Stamped         bool            `json:"stamped"`
	CreatedAt       string          `json:"created_at"`
}

// NewEInvoiceResponse arma la respuesta desde el registro persistido.
func NewEInvoiceResponse(rec *entity.EInvoiceRecord) EInvoiceResponse {
	return EInvoiceResponse{
		ID:              rec.ID,
		UUID:            rec.UUID,
		SellerVAT:       rec.SellerVAT,
		InvoiceNumber:   rec.InvoiceNumber,
		InvoiceTypeCode: rec.InvoiceTypeCode,
		Sequence:        rec.Sequence,
		IssueDate:       rec.IssueDate.Format(time.RFC3339),
		Subtotal:        rec.Subtotal,
		TaxAmount:       rec.TaxAmount,
		Total:           rec.Total,
		QRData:          rec.QRData,
		InvoiceHash:     rec.InvoiceHash,
		PreviousHash:    rec.PreviousHash,
		Stamped:         rec.Stamped,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
}

// QRDecodeRequest body para POST /api/zatca/qr/decode.
type QRDecodeRequest struct {
	Payload string `json:"payload" validate:"required,base64"`
}

// QRFieldResponse etiqueta TLV decodificada. Las etiquetas binarias (8 y 9) van en Base64.
type QRFieldResponse struct {
	Tag   int    `json:"tag"`
	Name  string `json:"name"`
	Value string `json:"value"`
}
