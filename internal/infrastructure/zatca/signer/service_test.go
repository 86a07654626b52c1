package signer_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/infrastructure/zatca/signer"
)

const unsignedXML = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2" xmlns:ext="urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2">
  <ext:UBLExtensions>
    <ext:UBLExtension>
      <ext:ExtensionURI>urn:oasis:names:specification:ubl:dsig:enveloped:xades</ext:ExtensionURI>
      <ext:ExtensionContent></ext:ExtensionContent>
    </ext:UBLExtension>
  </ext:UBLExtensions>
  <cbc:ID>INV-0001</cbc:ID>
  <cbc:Note>Widget &amp; Co</cbc:Note>
</Invoice>
`

// testCertificate genera un certificado autofirmado ECDSA P-256 en memoria.
func testCertificate(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1234),
		Subject:      pkix.Name{CommonName: "EGS-TEST", Organization: []string{"Acme Trading Co."}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}
}

func TestSign_InyectaFirmaEnExtensionContent(t *testing.T) {
	cert := testCertificate(t)
	svc := signer.NewDigitalSignatureService()

	stamp, err := svc.Sign([]byte(unsignedXML), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(stamp.SignedXML))
	sig := doc.FindElement("//ext:ExtensionContent/ds:Signature")
	require.NotNil(t, sig, "ds:Signature debe quedar dentro de ext:ExtensionContent")
	assert.Equal(t, stamp.SignatureValue, sig.FindElement("./ds:SignatureValue").Text())
	assert.Equal(t, "Widget & Co", doc.FindElement("//cbc:Note").Text(), "el resto del documento no cambia")
}

func TestSign_ValoresDelQR(t *testing.T) {
	cert := testCertificate(t)
	stamp, err := signer.NewDigitalSignatureService().Sign([]byte(unsignedXML), cert)
	require.NoError(t, err)

	pub, err := x509.ParsePKIXPublicKey(stamp.PublicKey)
	require.NoError(t, err)
	assert.True(t, cert.PrivateKey.(*ecdsa.PrivateKey).PublicKey.Equal(pub))
	assert.Equal(t, cert.Leaf.Signature, stamp.CertificateSignature)
	assert.LessOrEqual(t, len(stamp.PublicKey), 255, "la llave P-256 cabe en una etiqueta TLV")

	_, err = base64.StdEncoding.DecodeString(stamp.SignatureValue)
	assert.NoError(t, err)
}

func TestVerify_FirmaValida(t *testing.T) {
	svc := signer.NewDigitalSignatureService()
	stamp, err := svc.Sign([]byte(unsignedXML), testCertificate(t))
	require.NoError(t, err)

	assert.NoError(t, svc.Verify(stamp.SignedXML))
}

func TestVerify_DocumentoAlterado(t *testing.T) {
	svc := signer.NewDigitalSignatureService()
	stamp, err := svc.Sign([]byte(unsignedXML), testCertificate(t))
	require.NoError(t, err)

	tampered := strings.Replace(string(stamp.SignedXML), "INV-0001", "INV-0002", 1)
	assert.ErrorIs(t, svc.Verify([]byte(tampered)), signer.ErrSignatureMismatch)
}

func TestVerify_SinFirma(t *testing.T) {
	assert.ErrorIs(t, signer.NewDigitalSignatureService().Verify([]byte(unsignedXML)), signer.ErrSignatureMismatch)
}

func TestSign_SinLlavePrivada(t *testing.T) {
	cert := testCertificate(t)
	cert.PrivateKey = nil

	_, err := signer.NewDigitalSignatureService().Sign([]byte(unsignedXML), cert)
	assert.Error(t, err)
}

func TestSign_SinExtensionContent(t *testing.T) {
	xml := `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"><ID>1</ID></Invoice>`

	_, err := signer.NewDigitalSignatureService().Sign([]byte(xml), testCertificate(t))
	assert.Error(t, err)
}
