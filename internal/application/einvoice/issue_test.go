package einvoice_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/memory"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

func TestIssueInvoice_PrimeraFacturaUsaPIHInicial(t *testing.T) {
	store := memory.NewChainStore()
	uc := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)

	res, err := uc.IssueInvoice(context.Background(), invoice("C-1"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Record.Sequence)
	assert.Equal(t, pkgzatca.InitialPreviousInvoiceHash, res.Record.PreviousHash)
	assert.Equal(t, res.Artifacts.Hash.Base64, res.Record.InvoiceHash)
	assert.Contains(t, res.Record.XML, pkgzatca.InitialPreviousInvoiceHash)
}

func TestIssueInvoice_EncadenaConElHashAnterior(t *testing.T) {
	store := memory.NewChainStore()
	uc := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)
	ctx := context.Background()

	first, err := uc.IssueInvoice(ctx, invoice("C-1"))
	require.NoError(t, err)

	in := invoice("C-2")
	in.PreviousInvoiceHash = "ignorado"
	second, err := uc.IssueInvoice(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, int64(2), second.Record.Sequence)
	assert.Equal(t, first.Record.InvoiceHash, second.Record.PreviousHash)
	assert.Contains(t, second.Record.XML, first.Record.InvoiceHash)
}

func TestIssueInvoice_DuplicadoNoAvanzaLaCadena(t *testing.T) {
	store := memory.NewChainStore()
	uc := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)
	ctx := context.Background()

	first, err := uc.IssueInvoice(ctx, invoice("C-1"))
	require.NoError(t, err)

	dup := invoice("C-1")
	dup.UUID = "8e6000cf-1a98-4174-b3e7-b5d5954bc10d"
	_, err = uc.IssueInvoice(ctx, dup)
	require.ErrorIs(t, err, domain.ErrDuplicate)

	next, err := uc.IssueInvoice(ctx, invoice("C-2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Record.Sequence)
	assert.Equal(t, first.Record.InvoiceHash, next.Record.PreviousHash)
}

func TestIssueInvoice_GuardaElPayload(t *testing.T) {
	store := memory.NewChainStore()
	uc := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)

	res, err := uc.IssueInvoice(context.Background(), invoice("C-9"))
	require.NoError(t, err)

	var data zatca.InvoiceData
	require.NoError(t, json.Unmarshal(res.Record.Payload, &data))
	assert.Equal(t, "C-9", data.InvoiceNumber)
	assert.Equal(t, res.Record.UUID, data.UUID)
	assert.Equal(t, pkgzatca.InitialPreviousInvoiceHash, data.PreviousInvoiceHash)
	assert.True(t, data.Total.Equal(d("115")))
}

func TestIssueInvoice_ValidaAntesDeAbrirLaTransaccion(t *testing.T) {
	store := memory.NewChainStore()
	uc := einvoice.NewIssueUseCase(newGenerator(t, einvoice.Config{}, false), store)
	in := invoice("C-1")
	in.Seller.VATNumber = "123"

	_, err := uc.IssueInvoice(context.Background(), in)
	require.ErrorIs(t, err, zatca.ErrInvalidVATNumber)

	list, err := store.Invoices().ListBySeller(context.Background(), "123", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
