// Carga del certificado de la unidad de facturación desde .p12 (PKCS#12) o par PEM.

package signer

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM (separados o combinados).
// Si certPath está vacío retorna cert vacío y err nil: el sellado queda deshabilitado.
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, nil
	}
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}

// Load elige el formato por la extensión: .p12/.pfx usa PKCS#12, el resto PEM.
func Load(certPath, keyPath, password string) (tls.Certificate, error) {
	switch strings.ToLower(filepath.Ext(certPath)) {
	case ".p12", ".pfx":
		return LoadFromP12(certPath, password)
	default:
		return LoadFromPEM(certPath, keyPath)
	}
}

// CertDigestAndIssuerSerial devuelve el digest SHA-256 del certificado (Base64), el emisor y el serial decimal.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serial string) {
	h := sha256.Sum256(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serial = cert.SerialNumber.String()
	return digestB64, issuerName, serial
}

func leaf(cert tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("zatca: certificado vacío")
	}
	c, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("zatca: parsear certificado: %w", err)
	}
	return c, nil
}
