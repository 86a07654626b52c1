package zatca

import (
	"encoding/base64"
	"fmt"

	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// Etiquetas TLV del QR ZATCA. El orden es fijo y significativo.
const (
	TagSellerName           byte = 1
	TagVATNumber            byte = 2
	TagTimestamp            byte = 3
	TagInvoiceTotal         byte = 4
	TagVATTotal             byte = 5
	TagInvoiceHash          byte = 6 // fase 2
	TagSignature            byte = 7 // fase 2
	TagPublicKey            byte = 8 // fase 2
	TagCertificateSignature byte = 9 // fase 2
)

const maxTLVValueLen = 255

var tagNames = map[byte]string{
	TagSellerName:           "sellerName",
	TagVATNumber:            "vatNumber",
	TagTimestamp:            "timestamp",
	TagInvoiceTotal:         "invoiceTotal",
	TagVATTotal:             "vatTotal",
	TagInvoiceHash:          "invoiceHash",
	TagSignature:            "signature",
	TagPublicKey:            "publicKey",
	TagCertificateSignature: "certificateSignature",
}

// TagName nombre legible de la etiqueta ("" si no es una etiqueta ZATCA).
func TagName(tag byte) string {
	return tagNames[tag]
}

// IsBinaryTag indica las etiquetas cuyo valor son bytes DER y no texto UTF-8.
func IsBinaryTag(tag byte) bool {
	return tag == TagPublicKey || tag == TagCertificateSignature
}

// QRFields valores del QR. Los campos vacíos no se codifican (la etiqueta se omite).
type QRFields struct {
	SellerName   string
	VATNumber    string
	Timestamp    string // ISO 8601
	InvoiceTotal string
	VATTotal     string

	InvoiceHash          string // Base64 del SHA-256 del XML
	Signature            string // Base64 de la firma
	PublicKey            []byte
	CertificateSignature []byte
}

// TLVField etiqueta decodificada.
type TLVField struct {
	Tag   byte
	Value []byte
}

func (f QRFields) tagged() []TLVField {
	return []TLVField{
		{TagSellerName, []byte(f.SellerName)},
		{TagVATNumber, []byte(f.VATNumber)},
		{TagTimestamp, []byte(f.Timestamp)},
		{TagInvoiceTotal, []byte(f.InvoiceTotal)},
		{TagVATTotal, []byte(f.VATTotal)},
		{TagInvoiceHash, []byte(f.InvoiceHash)},
		{TagSignature, []byte(f.Signature)},
		{TagPublicKey, f.PublicKey},
		{TagCertificateSignature, f.CertificateSignature},
	}
}

// EncodeTLV concatena [tag][len][valor] para cada campo con valor, en orden ascendente de etiqueta.
// Un valor de más de 255 bytes retorna ErrFieldTooLong; nunca se trunca.
func EncodeTLV(f QRFields) ([]byte, error) {
	var out []byte
	for _, field := range f.tagged() {
		if len(field.Value) == 0 {
			continue
		}
		if len(field.Value) > maxTLVValueLen {
			return nil, &FieldError{
				Kind:   ErrFieldTooLong,
				Field:  fmt.Sprintf("tag %d", field.Tag),
				Detail: fmt.Sprintf("%d bytes", len(field.Value)),
			}
		}
		out = append(out, field.Tag, byte(len(field.Value)))
		out = append(out, field.Value...)
	}
	return out, nil
}

// GenerateQRData devuelve el payload Base64 del QR.
func GenerateQRData(f QRFields) (string, error) {
	raw, err := EncodeTLV(f)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeQRData decodifica un payload Base64 en sus etiquetas, en el orden en que aparecen.
func DecodeQRData(payload string) ([]TLVField, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("zatca: QR no es Base64 válido: %w", err)
	}
	var fields []TLVField
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return nil, fmt.Errorf("zatca: TLV truncado en el byte %d", i)
		}
		tag, length := raw[i], int(raw[i+1])
		i += 2
		if i+length > len(raw) {
			return nil, fmt.Errorf("zatca: TLV etiqueta %d declara %d bytes y solo quedan %d", tag, length, len(raw)-i)
		}
		value := make([]byte, length)
		copy(value, raw[i:i+length])
		fields = append(fields, TLVField{Tag: tag, Value: value})
		i += length
	}
	return fields, nil
}

// NewQRFields arma las etiquetas 1-5 desde la factura resuelta. Las etiquetas de fase 2
// solo se llenan cuando existe un sello; sin sello el QR queda en fase 1.
func NewQRFields(r *ResolvedInvoice, stamp *pkgzatca.Stamp, invoiceHashB64 string) QRFields {
	f := QRFields{
		SellerName:   r.Data.Seller.Name,
		VATNumber:    r.Data.Seller.VATNumber,
		Timestamp:    r.Timestamp(),
		InvoiceTotal: pkgzatca.Fmt(r.Data.Total),
		VATTotal:     pkgzatca.Fmt(r.Data.TaxAmount),
	}
	if stamp != nil {
		f.InvoiceHash = invoiceHashB64
		f.Signature = stamp.SignatureValue
		f.PublicKey = stamp.PublicKey
		f.CertificateSignature = stamp.CertificateSignature
	}
	return f
}
