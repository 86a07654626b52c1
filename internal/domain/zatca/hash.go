package zatca

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"hash"
)

// InvoiceHash digest SHA-256 del XML exacto en sus dos representaciones.
type InvoiceHash struct {
	Hex    string
	Base64 string
}

// Hasher calcula el hash de encadenamiento. New permite inyectar el constructor del digest;
// si es nil el hash no está disponible y la exportación debe bloquearse.
type Hasher struct {
	New func() hash.Hash
}

// NewHasher crea el hasher con SHA-256 de la stdlib.
func NewHasher() *Hasher {
	return &Hasher{New: sha256.New}
}

// Hash calcula el digest sobre los bytes UTF-8 del XML tal cual fue generado.
func (h *Hasher) Hash(xml string) (InvoiceHash, error) {
	if h == nil || h.New == nil {
		return InvoiceHash{}, ErrHashingUnavailable
	}
	d := h.New()
	if d == nil {
		return InvoiceHash{}, ErrHashingUnavailable
	}
	if _, err := d.Write([]byte(xml)); err != nil {
		return InvoiceHash{}, &FieldError{Kind: ErrHashingUnavailable, Field: "xml", Detail: err.Error()}
	}
	sum := d.Sum(nil)
	return InvoiceHash{
		Hex:    hex.EncodeToString(sum),
		Base64: base64.StdEncoding.EncodeToString(sum),
	}, nil
}

// GenerateInvoiceHash SHA-256 hexadecimal (minúsculas) del XML.
func GenerateInvoiceHash(xml string) string {
	sum := sha256.Sum256([]byte(xml))
	return hex.EncodeToString(sum[:])
}

// GenerateInvoiceHashBase64 SHA-256 en Base64 del XML (PIH y etiqueta 6 del QR).
func GenerateInvoiceHashBase64(xml string) string {
	sum := sha256.Sum256([]byte(xml))
	return base64.StdEncoding.EncodeToString(sum[:])
}
