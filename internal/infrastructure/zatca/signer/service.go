// Servicio de sellado (fase 2) de la factura ZATCA: firma XAdES enveloped con la llave del
// certificado de la unidad de facturación e inyección de ds:Signature en ext:ExtensionContent.

package signer

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// ErrSignatureMismatch la firma del documento no corresponde a su contenido o certificado.
var ErrSignatureMismatch = errors.New("zatca: firma inválida")

// DigitalSignatureService firma el XML e inyecta el nodo ds:Signature.
type DigitalSignatureService struct {
	now func() time.Time
}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{now: time.Now}
}

// Sign implementa pkg/zatca.Signer. La llave privada debe implementar crypto.Signer (ECDSA o RSA).
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) (*pkgzatca.Stamp, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("zatca: XML vacío")
	}
	priv, ok := cert.PrivateKey.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("zatca: el certificado debe incluir una llave privada ECDSA o RSA")
	}
	x509Cert, err := leaf(cert)
	if err != nil {
		return nil, err
	}
	sigAlg, err := signatureAlgorithm(priv.Public())
	if err != nil {
		return nil, err
	}

	// 1) Digest del documento sin extensiones (C14N). Reference URI=""
	docDigestB64, err := documentDigest(xmlBytes)
	if err != nil {
		return nil, err
	}

	// 2) SignedInfo firmado con la llave del certificado
	signedInfoXML := buildSignedInfo(sigAlg, docDigestB64)
	siDoc := etree.NewDocument()
	if err := siDoc.ReadFromString(signedInfoXML); err != nil {
		return nil, fmt.Errorf("zatca: parsear SignedInfo: %w", err)
	}
	signHash, err := signedInfoHash(siDoc.Root())
	if err != nil {
		return nil, err
	}
	signatureValue, err := priv.Sign(rand.Reader, signHash[:], crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("zatca: firmar SignedInfo: %w", err)
	}
	signatureValueB64 := base64.StdEncoding.EncodeToString(signatureValue)

	// 3) KeyInfo y QualifyingProperties
	certB64 := base64.StdEncoding.EncodeToString(x509Cert.Raw)
	signingTime := s.now().UTC().Format("2006-01-02T15:04:05Z")
	certDigestB64, issuerName, serial := CertDigestAndIssuerSerial(x509Cert)
	signatureXML := buildFullSignature(signedInfoXML, signatureValueB64, certB64, signingTime, certDigestB64, issuerName, serial)

	// 4) Inyectar en ext:ExtensionContent
	signed, err := injectSignature(xmlBytes, signatureXML)
	if err != nil {
		return nil, err
	}

	publicKey, err := x509.MarshalPKIXPublicKey(priv.Public())
	if err != nil {
		return nil, fmt.Errorf("zatca: serializar llave pública: %w", err)
	}
	return &pkgzatca.Stamp{
		SignedXML:            signed,
		SignatureValue:       signatureValueB64,
		PublicKey:            publicKey,
		CertificateSignature: x509Cert.Signature,
	}, nil
}

// Verify comprueba que el documento firmado no fue alterado y que la firma corresponde al certificado embebido.
func (s *DigitalSignatureService) Verify(signedXML []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signedXML); err != nil {
		return fmt.Errorf("zatca: parsear XML: %w", err)
	}
	sig := doc.FindElement("//ds:Signature")
	if sig == nil {
		return fmt.Errorf("%w: no se encontró ds:Signature", ErrSignatureMismatch)
	}
	signedInfo := sig.FindElement("./ds:SignedInfo")
	digestEl := sig.FindElement("./ds:SignedInfo/ds:Reference/ds:DigestValue")
	valueEl := sig.FindElement("./ds:SignatureValue")
	certEl := sig.FindElement("./ds:KeyInfo/ds:X509Data/ds:X509Certificate")
	if signedInfo == nil || digestEl == nil || valueEl == nil || certEl == nil {
		return fmt.Errorf("%w: ds:Signature incompleta", ErrSignatureMismatch)
	}

	digest, err := documentDigest(signedXML)
	if err != nil {
		return err
	}
	if digest != digestEl.Text() {
		return fmt.Errorf("%w: el digest del documento no coincide", ErrSignatureMismatch)
	}

	der, err := base64.StdEncoding.DecodeString(certEl.Text())
	if err != nil {
		return fmt.Errorf("%w: certificado no es Base64", ErrSignatureMismatch)
	}
	x509Cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	value, err := base64.StdEncoding.DecodeString(valueEl.Text())
	if err != nil {
		return fmt.Errorf("%w: SignatureValue no es Base64", ErrSignatureMismatch)
	}

	hash, err := signedInfoHash(signedInfo)
	if err != nil {
		return err
	}

	switch pub := x509Cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, hash[:], value) {
			return ErrSignatureMismatch
		}
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hash[:], value); err != nil {
			return ErrSignatureMismatch
		}
	default:
		return fmt.Errorf("%w: llave pública no soportada", ErrSignatureMismatch)
	}
	return nil
}

func signatureAlgorithm(pub crypto.PublicKey) (string, error) {
	switch pub.(type) {
	case *ecdsa.PublicKey:
		return AlgECDSASHA256, nil
	case *rsa.PublicKey:
		return AlgRSASHA256, nil
	default:
		return "", fmt.Errorf("zatca: tipo de llave %T no soportado", pub)
	}
}

// documentDigest SHA-256 (Base64) del documento canónico sin ext:UBLExtensions:
// la firma vive dentro de las extensiones y no puede firmarse a sí misma.
func documentDigest(xmlBytes []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return "", fmt.Errorf("zatca: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("zatca: documento sin raíz")
	}
	if ext := root.SelectElement("ext:UBLExtensions"); ext != nil {
		root.RemoveChild(ext)
	}
	stripped, err := doc.WriteToBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonicalOrRaw(stripped))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// signedInfoHash SHA-256 del SignedInfo canónico. Firma y verificación serializan el nodo igual.
func signedInfoHash(signedInfo *etree.Element) ([32]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(signedInfo.Copy())
	raw, err := doc.WriteToBytes()
	if err != nil {
		return [32]byte{}, fmt.Errorf("zatca: serializar SignedInfo: %w", err)
	}
	return sha256.Sum256(canonicalOrRaw(raw)), nil
}

func canonicalOrRaw(data []byte) []byte {
	out, err := canonicalizeXML(data)
	if err != nil {
		return data
	}
	return out
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(sigAlg, docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"></ds:CanonicalizationMethod>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + sigAlg + `"></ds:SignatureMethod>`)
	sb.WriteString(`<ds:Reference Id="invoiceSignedData" URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"></ds:Transform>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"></ds:Transform></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"></ds:DigestMethod>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildFullSignature(signedInfoXML, signatureValueB64, certB64, signingTime, certDigestB64, issuerName, serial string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" Id="` + SignatureID + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`<ds:Object><xades:QualifyingProperties xmlns:xades="` + NamespaceXAdES + `" Target="` + SignatureID + `">`)
	sb.WriteString(`<xades:SignedProperties Id="` + SignedPropertiesID + `">`)
	sb.WriteString(`<xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + signingTime + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert><xades:CertDigest><ds:DigestMethod Algorithm="` + AlgSHA256 + `"></ds:DigestMethod>`)
	sb.WriteString(`<ds:DigestValue>` + certDigestB64 + `</ds:DigestValue></xades:CertDigest>`)
	sb.WriteString(`<xades:IssuerSerial><ds:X509IssuerName>` + escapeXML(issuerName) + `</ds:X509IssuerName><ds:X509SerialNumber>` + serial + `</ds:X509SerialNumber></xades:IssuerSerial></xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`</xades:SignedSignatureProperties></xades:SignedProperties></xades:QualifyingProperties></ds:Object>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

func injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("zatca: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("zatca: documento sin raíz")
	}
	content := root.FindElement("./ext:UBLExtensions/ext:UBLExtension/ext:ExtensionContent")
	if content == nil {
		return nil, fmt.Errorf("zatca: no se encontró ext:ExtensionContent para inyectar la firma")
	}
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("zatca: parsear Signature: %w", err)
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		content.AddChild(sigRoot)
	}
	doc.WriteSettings.CanonicalEndTags = true
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("zatca: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

var _ pkgzatca.Signer = (*DigitalSignatureService)(nil)
