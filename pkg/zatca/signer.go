// Package zatca: interfaz para el sellado (fase 2) de documentos XML.

package zatca

import "crypto/tls"

// Stamp resultado del sellado: XML firmado y los valores que viajan en las etiquetas 7-9 del QR.
type Stamp struct {
	SignedXML            []byte
	SignatureValue       string // Base64 de la firma (etiqueta 7)
	PublicKey            []byte // Llave pública DER (etiqueta 8)
	CertificateSignature []byte // Firma del certificado emitida por la CA de la ZATCA (etiqueta 9)
}

// Signer sella el XML de la factura con el certificado de la unidad de facturación.
type Signer interface {
	// Sign toma el XML sin firma y retorna el XML con ds:Signature dentro de ext:ExtensionContent.
	Sign(xmlBytes []byte, cert tls.Certificate) (*Stamp, error)
}
