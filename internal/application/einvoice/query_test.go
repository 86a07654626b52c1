package einvoice_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/memory"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
)

func issued(t *testing.T, pdf einvoice.InvoicePDFGenerator) (*einvoice.QueryUseCase, *einvoice.IssueResult) {
	t.Helper()
	store := memory.NewChainStore()
	issue := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)
	res, err := issue.IssueInvoice(context.Background(), invoice("Q-1"))
	require.NoError(t, err)
	return einvoice.NewQueryUseCase(store.Invoices(), pdf, zatca.DefaultDefaults()), res
}

func TestGetByUUID_NoEncontrado(t *testing.T) {
	q, _ := issued(t, nil)

	_, err := q.GetByUUID(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestXMLFile_DevuelveElXMLEmitido(t *testing.T) {
	q, res := issued(t, nil)

	f, err := q.XMLFile(context.Background(), res.Record.UUID)
	require.NoError(t, err)
	assert.Equal(t, infzatca.ContentTypeXML, f.ContentType)
	assert.Equal(t, res.Record.XML, string(f.Content))
	assert.True(t, strings.HasSuffix(f.Filename, ".xml"))
	assert.Contains(t, f.Filename, "300000000000003_20240502T100000_Q-1")
}

func TestJSONFile_DevuelveElJSONEmitido(t *testing.T) {
	q, res := issued(t, nil)

	f, err := q.JSONFile(context.Background(), res.Record.UUID)
	require.NoError(t, err)
	assert.Equal(t, infzatca.ContentTypeJSON, f.ContentType)
	assert.Equal(t, res.Record.JSON, string(f.Content))
}

func TestPDFFile_RegeneraDesdeElPayload(t *testing.T) {
	pdf := &fakePDF{}
	q, res := issued(t, pdf)

	f, err := q.PDFFile(context.Background(), res.Record.UUID)
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, "Q-1", pdf.invoice)
	assert.Equal(t, res.Record.QRData, pdf.qrData)
	assert.Equal(t, infzatca.ContentTypePDF, f.ContentType)
	assert.True(t, strings.HasSuffix(f.Filename, ".pdf"))
}

func TestListBySeller_MasRecientePrimero(t *testing.T) {
	store := memory.NewChainStore()
	issue := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)
	ctx := context.Background()
	for _, n := range []string{"L-1", "L-2", "L-3"} {
		_, err := issue.IssueInvoice(ctx, invoice(n))
		require.NoError(t, err)
	}
	q := einvoice.NewQueryUseCase(store.Invoices(), nil, zatca.DefaultDefaults())

	list, err := q.ListBySeller(ctx, "300000000000003", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "L-3", list[0].InvoiceNumber)
	assert.Equal(t, "L-2", list[1].InvoiceNumber)
}
