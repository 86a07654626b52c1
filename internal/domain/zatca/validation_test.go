package zatca_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

func TestValidateInvoice_Valida(t *testing.T) {
	require.NoError(t, zatca.ValidateInvoice(buildTestInvoice()))
}

func TestValidateInvoice_CamposObligatorios(t *testing.T) {
	inv := buildTestInvoice()
	inv.InvoiceNumber = ""
	inv.Seller.Name = ""
	inv.Seller.VATNumber = ""
	inv.Items = nil

	err := zatca.ValidateInvoice(inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, zatca.ErrInvalidInvoice)
	assert.ErrorIs(t, err, zatca.ErrMissingRequiredField)
	assert.Contains(t, err.Error(), "invoiceNumber")
	assert.Contains(t, err.Error(), "seller.name")
	assert.Contains(t, err.Error(), "seller.vatNumber")
	assert.Contains(t, err.Error(), "items")
}

func TestValidateInvoice_CampoEnFieldError(t *testing.T) {
	inv := buildTestInvoice()
	inv.Seller.VATNumber = "123"

	err := zatca.ValidateInvoice(inv)
	var fe *zatca.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "seller.vatNumber", fe.Field)
	assert.ErrorIs(t, err, zatca.ErrInvalidVATNumber)
}

func TestValidateInvoice_CompradorEstandarSinNombre(t *testing.T) {
	inv := buildTestInvoice()
	inv.Buyer.Name = ""
	inv.Buyer.TaxNumber = "311111111111113"

	err := zatca.ValidateInvoice(inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buyer.name")
}

func TestValidateInvoice_TotalesInconsistentes(t *testing.T) {
	inv := buildTestInvoice()
	inv.Total = decimal.NewFromInt(120)

	err := zatca.ValidateInvoice(inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, zatca.ErrInconsistentTotals))
	assert.NotErrorIs(t, err, zatca.ErrMissingRequiredField)
}

func TestValidateInvoice_RedondeoTolerado(t *testing.T) {
	inv := buildTestInvoice()
	inv.Items[0].TaxAmount = decimal.NewNullDecimal(d("15.004"))
	inv.Items[0].Total = d("115.004")

	assert.NoError(t, zatca.ValidateInvoice(inv))
}

func TestValidateInvoice_NotaCreditoSinReferencia(t *testing.T) {
	inv := buildTestInvoice()
	inv.InvoiceTypeCode = "381"

	err := zatca.ValidateInvoice(inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billingReferenceId")

	inv.BillingReferenceID = "INV-0000"
	assert.NoError(t, zatca.ValidateInvoice(inv))
}

func TestValidateInvoice_TipoNoSoportado(t *testing.T) {
	inv := buildTestInvoice()
	inv.InvoiceTypeCode = "380"

	err := zatca.ValidateInvoice(inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoiceTypeCode")
}

func TestValidateInvoice_Nil(t *testing.T) {
	assert.ErrorIs(t, zatca.ValidateInvoice(nil), zatca.ErrInvalidInvoice)
}
