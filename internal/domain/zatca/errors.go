package zatca

import "errors"

// Tipos de error de la facturación ZATCA.
var (
	ErrInvalidInvoice       = errors.New("factura inválida para ZATCA")
	ErrMissingRequiredField = errors.New("campo obligatorio ausente")
	ErrFieldTooLong         = errors.New("campo excede 255 bytes")
	ErrHashingUnavailable   = errors.New("hash SHA-256 no disponible")
	ErrInconsistentTotals   = errors.New("totales inconsistentes con las líneas")
	ErrInvalidVATNumber     = errors.New("número de IVA inválido")
)

// FieldError asocia un tipo de error con el campo que lo produjo.
type FieldError struct {
	Kind   error
	Field  string
	Detail string
}

func (e *FieldError) Error() string {
	msg := e.Kind.Error() + ": " + e.Field
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *FieldError) Unwrap() error { return e.Kind }

func missing(field string) error {
	return &FieldError{Kind: ErrMissingRequiredField, Field: field}
}
