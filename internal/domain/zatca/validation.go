package zatca

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// ValidateInvoice verifica las precondiciones antes de generar los artefactos.
// Los generadores son permisivos; este paso es el que falla con el campo exacto.
// Además exige que los totales del documento coincidan con la suma de las líneas.
func ValidateInvoice(data *InvoiceData) error {
	if data == nil {
		return errors.Join(ErrInvalidInvoice, missing("invoice"))
	}
	var errs []error

	if strings.TrimSpace(data.InvoiceNumber) == "" {
		errs = append(errs, missing("invoiceNumber"))
	}
	if data.InvoiceDate.IsZero() {
		errs = append(errs, missing("invoiceDate"))
	}
	typeCode := data.InvoiceTypeCode
	if typeCode == "" {
		typeCode = pkgzatca.InvoiceTypeTax
	}
	if !pkgzatca.ValidInvoiceTypeCodes[typeCode] {
		errs = append(errs, &FieldError{Kind: ErrInvalidInvoice, Field: "invoiceTypeCode", Detail: "usar 388, 381 o 383"})
	}
	if typeCode != pkgzatca.InvoiceTypeTax && strings.TrimSpace(data.BillingReferenceID) == "" {
		errs = append(errs, missing("billingReferenceId"))
	}

	// Vendedor
	if strings.TrimSpace(data.Seller.Name) == "" {
		errs = append(errs, missing("seller.name"))
	}
	if data.Seller.VATNumber == "" {
		errs = append(errs, missing("seller.vatNumber"))
	} else if err := pkgzatca.ValidateVATNumber(data.Seller.VATNumber); err != nil {
		errs = append(errs, &FieldError{Kind: ErrInvalidVATNumber, Field: "seller.vatNumber", Detail: err.Error()})
	}

	// Comprador: en facturas estándar el nombre y el IVA son obligatorios.
	if data.Buyer.TaxNumber != "" {
		if strings.TrimSpace(data.Buyer.Name) == "" {
			errs = append(errs, missing("buyer.name"))
		}
		if err := pkgzatca.ValidateVATNumber(data.Buyer.TaxNumber); err != nil {
			errs = append(errs, &FieldError{Kind: ErrInvalidVATNumber, Field: "buyer.taxNumber", Detail: err.Error()})
		}
	}

	if len(data.Items) == 0 {
		errs = append(errs, missing("items"))
	} else {
		errs = append(errs, validateTotals(data)...)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

func validateTotals(data *InvoiceData) []error {
	var errs []error
	var sumTotal, sumTax decimal.Decimal
	for i, item := range data.Items {
		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, missing("items["+strconv.Itoa(i)+"].description"))
		}
		sumTotal = sumTotal.Add(item.Total)
		sumTax = sumTax.Add(LineTaxAmount(item))
	}
	if !pkgzatca.Round2(sumTotal).Equal(pkgzatca.Round2(data.Total)) {
		errs = append(errs, &FieldError{
			Kind:   ErrInconsistentTotals,
			Field:  "total",
			Detail: "total " + pkgzatca.Fmt(data.Total) + " ≠ suma de líneas " + pkgzatca.Fmt(sumTotal),
		})
	}
	if !pkgzatca.Round2(sumTax).Equal(pkgzatca.Round2(data.TaxAmount)) {
		errs = append(errs, &FieldError{
			Kind:   ErrInconsistentTotals,
			Field:  "taxAmount",
			Detail: "impuesto " + pkgzatca.Fmt(data.TaxAmount) + " ≠ suma de líneas " + pkgzatca.Fmt(sumTax),
		})
	}
	return errs
}
