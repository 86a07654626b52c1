package zatca

import (
	"github.com/shopspring/decimal"

	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// BuyerIdentityKind esquema con el que se identifica al comprador.
type BuyerIdentityKind int

const (
	BuyerIdentityNone BuyerIdentityKind = iota
	BuyerIdentityVAT
	BuyerIdentityNational
)

// BuyerIdentity variante resuelta una sola vez: VAT(número) | National(id) | None.
type BuyerIdentity struct {
	Kind  BuyerIdentityKind
	Value string
}

// SchemeID devuelve el schemeID del cbc:ID de PartyIdentification ("" si None).
func (b BuyerIdentity) SchemeID() string {
	switch b.Kind {
	case BuyerIdentityVAT:
		return pkgzatca.SchemeVAT
	case BuyerIdentityNational:
		return pkgzatca.SchemeNAT
	default:
		return ""
	}
}

// IsStandard indica factura estándar (B2B).
func (b BuyerIdentity) IsStandard() bool {
	return b.Kind == BuyerIdentityVAT
}

// ResolvedLine línea con el impuesto ya derivado y la unidad por defecto aplicada.
type ResolvedLine struct {
	Number              int
	Description         string
	Quantity            decimal.Decimal
	UnitCode            string
	UnitPrice           decimal.Decimal
	LineExtensionAmount decimal.Decimal // UnitPrice * Quantity
	TaxRate             decimal.Decimal
	TaxAmount           decimal.Decimal
	Total               decimal.Decimal
}

// ResolvedInvoice vista derivada de InvoiceData que consumen los generadores XML y JSON.
// Todas las reglas condicionales se deciden aquí para que ambos formatos no diverjan.
type ResolvedInvoice struct {
	Data *InvoiceData

	IssueDate        string
	IssueTime        string
	Zone             string // "Z" en UTC, si no el desfase "+03:00"
	Subtype          string
	TypeCode         string
	Currency         string
	Country          string
	BuyerCountry     string
	BuyerIdentity    BuyerIdentity
	PaymentMeansCode string // vacío = sin cac:PaymentMeans
	PreviousHash     string
	Lines            []ResolvedLine
}

// ResolveBuyerIdentity aplica la precedencia VAT > NAT > ninguno.
func ResolveBuyerIdentity(b Buyer) BuyerIdentity {
	if b.TaxNumber != "" {
		return BuyerIdentity{Kind: BuyerIdentityVAT, Value: b.TaxNumber}
	}
	if b.IDNumber != "" {
		return BuyerIdentity{Kind: BuyerIdentityNational, Value: b.IDNumber}
	}
	return BuyerIdentity{Kind: BuyerIdentityNone}
}

// LineTaxAmount devuelve el impuesto de la línea o lo deriva como UnitPrice*Quantity*TaxRate/100.
func LineTaxAmount(item LineItem) decimal.Decimal {
	if item.TaxAmount.Valid {
		return item.TaxAmount.Decimal
	}
	return pkgzatca.Percent(item.UnitPrice.Mul(item.Quantity), item.TaxRate)
}

// Resolve calcula los campos derivados. No valida: un dato faltante produce valores vacíos.
func Resolve(data *InvoiceData, d Defaults) *ResolvedInvoice {
	d = d.withFallbacks()

	issued := data.InvoiceDate
	if d.Location != nil {
		issued = issued.In(d.Location)
	}

	identity := ResolveBuyerIdentity(data.Buyer)
	subtype := pkgzatca.SubtypeSimplified
	if identity.IsStandard() {
		subtype = pkgzatca.SubtypeStandard
	}

	typeCode := data.InvoiceTypeCode
	if typeCode == "" {
		typeCode = pkgzatca.InvoiceTypeTax
	}
	currency := data.Currency
	if currency == "" {
		currency = d.Currency
	}
	country := data.Seller.Address.Country
	if country == "" {
		country = d.Country
	}
	buyerCountry := data.Buyer.Address.Country
	if buyerCountry == "" {
		buyerCountry = d.Country
	}
	pih := data.PreviousInvoiceHash
	if pih == "" {
		pih = d.InitialPreviousInvoiceHash
	}
	var paymentCode string
	if data.PaymentMethod != "" {
		paymentCode = pkgzatca.PaymentMeansCode(data.PaymentMethod)
	}

	lines := make([]ResolvedLine, len(data.Items))
	for i, item := range data.Items {
		unit := item.UnitCode
		if unit == "" {
			unit = d.UnitCode
		}
		lines[i] = ResolvedLine{
			Number:              i + 1,
			Description:         item.Description,
			Quantity:            item.Quantity,
			UnitCode:            unit,
			UnitPrice:           item.UnitPrice,
			LineExtensionAmount: item.UnitPrice.Mul(item.Quantity),
			TaxRate:             item.TaxRate,
			TaxAmount:           LineTaxAmount(item),
			Total:               item.Total,
		}
	}

	return &ResolvedInvoice{
		Data:             data,
		IssueDate:        issued.Format("2006-01-02"),
		IssueTime:        issued.Format("15:04:05"),
		Zone:             issued.Format("Z07:00"),
		Subtype:          subtype,
		TypeCode:         typeCode,
		Currency:         currency,
		Country:          country,
		BuyerCountry:     buyerCountry,
		BuyerIdentity:    identity,
		PaymentMeansCode: paymentCode,
		PreviousHash:     pih,
		Lines:            lines,
	}
}

// Timestamp marca de tiempo ISO 8601 del QR (etiqueta 3) con su zona; coincide con IssueDate/IssueTime.
func (r *ResolvedInvoice) Timestamp() string {
	return r.IssueDate + "T" + r.IssueTime + r.Zone
}

// DefaultDefaults valores por defecto de la ZATCA.
func DefaultDefaults() Defaults {
	return Defaults{
		Currency:                   pkgzatca.DefaultCurrency,
		UnitCode:                   pkgzatca.DefaultUnitCode,
		Country:                    pkgzatca.DefaultCountryCode,
		InitialPreviousInvoiceHash: pkgzatca.InitialPreviousInvoiceHash,
	}
}

func (d Defaults) withFallbacks() Defaults {
	def := DefaultDefaults()
	if d.Currency == "" {
		d.Currency = def.Currency
	}
	if d.UnitCode == "" {
		d.UnitCode = def.UnitCode
	}
	if d.Country == "" {
		d.Country = def.Country
	}
	if d.InitialPreviousInvoiceHash == "" {
		d.InitialPreviousInvoiceHash = def.InitialPreviousInvoiceHash
	}
	return d
}
