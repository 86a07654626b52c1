package zatca_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// buildTestInvoice factura simplificada consistente: 2 x 50.00 al 15%.
func buildTestInvoice() *zatca.InvoiceData {
	return &zatca.InvoiceData{
		UUID:          "3cf5ee18-ee25-44ea-a444-2c37ba7f28be",
		InvoiceNumber: "INV-0001",
		InvoiceDate:   time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC),
		Seller: zatca.Seller{
			Name:               "Acme Trading Co.",
			VATNumber:          "300000000000003",
			CommercialRegister: "1010010000",
			Address:            zatca.Address{Street: "King Fahd Rd", City: "Riyadh", PostalCode: "12345"},
		},
		Buyer: zatca.Buyer{Name: "Walk-in"},
		Items: []zatca.LineItem{{
			Description: "Widget",
			Quantity:    d("2"),
			UnitPrice:   d("50"),
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
