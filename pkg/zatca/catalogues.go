// Package zatca contiene catálogos y utilidades alineados a la especificación de
// facturación electrónica de la ZATCA (Arabia Saudita), fases 1 y 2.
package zatca

// =============================================================================
// Tipos de documento (UN/CEFACT 1001) - cbc:InvoiceTypeCode
// =============================================================================

const (
	InvoiceTypeTax    = "388" // Factura de impuestos
	InvoiceTypeCredit = "381" // Nota crédito
	InvoiceTypeDebit  = "383" // Nota débito
)

// ValidInvoiceTypeCodes códigos de documento aceptados.
var ValidInvoiceTypeCodes = map[string]bool{
	InvoiceTypeTax:    true,
	InvoiceTypeCredit: true,
	InvoiceTypeDebit:  true,
}

// =============================================================================
// Subtipo de factura (atributo name de cbc:InvoiceTypeCode)
// =============================================================================

const (
	SubtypeStandard   = "0100000" // B2B: el comprador tiene número de IVA
	SubtypeSimplified = "0200000" // B2C: sin número de IVA del comprador
)

// =============================================================================
// Medios de pago (UN/CEFACT 4461) - cbc:PaymentMeansCode
// =============================================================================

const (
	PaymentMeansCash     = "10" // Efectivo
	PaymentMeansCredit   = "30" // Crédito / otros
	PaymentMeansTransfer = "42" // Transferencia bancaria
)

// Métodos de pago tal como llegan desde el formulario de venta.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
)

// PaymentMeansCode traduce el método de pago del ERP al código UN/CEFACT.
func PaymentMeansCode(method string) string {
	switch method {
	case PaymentMethodCash:
		return PaymentMeansCash
	case PaymentMethodTransfer:
		return PaymentMeansTransfer
	default:
		return PaymentMeansCredit
	}
}

// =============================================================================
// Esquemas de identificación de partes (schemeID)
// =============================================================================

const (
	SchemeCRN = "CRN" // Registro comercial del vendedor
	SchemeVAT = "VAT" // Número de IVA del comprador
	SchemeNAT = "NAT" // Identificación nacional del comprador
)

// =============================================================================
// Impuestos
// =============================================================================

const (
	TaxSchemeVAT        = "VAT"
	TaxCategoryStandard = "S" // Tarifa estándar
)

// =============================================================================
// Documento
// =============================================================================

const (
	ProfileReporting    = "reporting:1.0"
	DocRefICV           = "ICV" // Invoice Counter Value
	DocRefPIH           = "PIH" // Previous Invoice Hash
	SignatureExtension  = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
	DefaultCurrency     = "SAR"
	DefaultUnitCode     = "PCE"
	DefaultCountryCode  = "SA"
	AttachmentMimePlain = "text/plain"
)

// InitialPreviousInvoiceHash es el PIH publicado por la ZATCA para la primera factura
// de la cadena: Base64 del SHA-256 hexadecimal de "0".
const InitialPreviousInvoiceHash = "NWZlY2ViNjZmZmM4NmYzOGQ5NTI3ODZjNmQ2OTZjNzljMmRiYzIzOWRkNGU5MWI0NjcyOWQ3M2EyN2ZiNTdlOQ=="
