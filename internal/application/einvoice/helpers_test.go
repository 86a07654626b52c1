package einvoice_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/zatca-api/pkg/logger"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// invoice factura simplificada consistente (1 x 100.00 al 15%) sin UUID.
func invoice(number string) *zatca.InvoiceData {
	return &zatca.InvoiceData{
		InvoiceNumber: number,
		InvoiceDate:   time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		Seller: zatca.Seller{
			Name:      "Acme Trading Co.",
			VATNumber: "300000000000003",
		},
		Buyer: zatca.Buyer{Name: "Walk-in"},
		Items: []zatca.LineItem{{
			Description: "Service",
			Quantity:    d("1"),
			UnitPrice:   d("100"),
			TaxRate:     d("15"),
			Total:       d("115"),
		}},
		Subtotal:      d("100"),
		TaxAmount:     d("15"),
		Total:         d("115"),
		TaxRate:       d("15"),
		PaymentMethod: "cash",
	}
}

func newGenerator(t *testing.T, cfg einvoice.Config, withSigner bool) *einvoice.GenerateUseCase {
	t.Helper()
	var s pkgzatca.Signer
	if withSigner {
		s = signer.NewDigitalSignatureService()
	}
	return einvoice.NewGenerateUseCase(
		infzatca.NewXMLBuilderService(),
		infzatca.NewJSONBuilderService(),
		zatca.NewHasher(),
		s,
		zatca.NewMemoryUUIDRegistry(time.Hour),
		cfg,
		logger.Nop(),
	)
}

func testCertificate(t *testing.T) *tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(77),
		Subject:      pkix.Name{CommonName: "EGS-TEST"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}
}

type fakePDF struct {
	calls   int
	qrData  string
	invoice string
}

func (f *fakePDF) GenerateInvoicePDF(_ context.Context, r *zatca.ResolvedInvoice, qrData, _ string) ([]byte, error) {
	f.calls++
	f.qrData = qrData
	f.invoice = r.Data.InvoiceNumber
	return []byte("%PDF-1.3 fake"), nil
}
