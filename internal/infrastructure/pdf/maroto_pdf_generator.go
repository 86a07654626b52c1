// Package pdf implementa la representación impresa de la factura ZATCA con su código QR.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Vendedor + IVA      │  Tipo / N° Factura + Fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VENDEDOR: Dirección / CR                                    │
//	│  COMPRADOR: Nombre + IVA/NAT                                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA% | IVA | Total      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Sin IVA / IVA / Total con IVA                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: UUID + hash + QR TLV                                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 108, Blue: 53}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa einvoice.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes. qrData es el payload TLV Base64.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	_ context.Context,
	invoice *zatca.ResolvedInvoice,
	qrData string,
	invoiceHash string,
) ([]byte, error) {
	if invoice == nil || invoice.Data == nil {
		return nil, fmt.Errorf("pdf: factura vacía")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(documentTitle(invoice), true).
		WithAuthor(invoice.Data.Seller.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(sellerRow(invoice))
	m.AddRows(buyerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(invoice) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(invoice))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(invoice, qrData, invoiceHash) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func documentTitle(r *zatca.ResolvedInvoice) string {
	var kind string
	switch r.TypeCode {
	case pkgzatca.InvoiceTypeCredit:
		kind = "CREDIT NOTE"
	case pkgzatca.InvoiceTypeDebit:
		kind = "DEBIT NOTE"
	default:
		kind = "TAX INVOICE"
	}
	if r.Subtype == pkgzatca.SubtypeSimplified {
		return "SIMPLIFIED " + kind
	}
	return kind
}

// headerRow: vendedor + IVA (izq) y tipo + número + fecha (der).
func headerRow(r *zatca.ResolvedInvoice) core.Row {
	seller := r.Data.Seller
	return row.New(18).Add(
		col.New(7).Add(
			text.New(seller.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("VAT: "+seller.VATNumber, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(documentTitle(r), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(r.Data.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+r.IssueDate+" "+r.IssueTime, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func sellerRow(r *zatca.ResolvedInvoice) core.Row {
	seller := r.Data.Seller
	return row.New(12).Add(
		col.New(12).Add(
			text.New("VENDEDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   CR: %s",
				nonEmpty(formatAddress(seller.Address, r.Country), "—"),
				nonEmpty(seller.CommercialRegister, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func buyerRow(r *zatca.ResolvedInvoice) core.Row {
	buyer := r.Data.Buyer
	identity := "—"
	if r.BuyerIdentity.Kind != zatca.BuyerIdentityNone {
		identity = r.BuyerIdentity.SchemeID() + ": " + r.BuyerIdentity.Value
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("COMPRADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(buyer.Name, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s   |   Dirección: %s",
				identity,
				nonEmpty(formatAddress(buyer.Address, r.BuyerCountry), "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("IVA", 2, align.Right),
		h("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableDetailRows(r *zatca.ResolvedInvoice) []core.Row {
	result := make([]core.Row, 0, len(r.Lines))
	for _, l := range r.Lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(4).Add(text.New(
				l.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				l.TaxRate.String()+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(l.TaxAmount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(l.Total),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalsRow(r *zatca.ResolvedInvoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2, Top: 12,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 12,
		})
	}

	data := r.Data
	return row.New(20).Add(
		col.New(4),
		col.New(4).Add(
			label("Total sin IVA:"),
			text.New("IVA ("+data.TaxRate.String()+"%):", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6,
			}),
			grandLabel("Total con IVA:"),
		),
		col.New(4).Add(
			value(r.Currency+" "+formatMoney(data.Subtotal)),
			text.New(r.Currency+" "+formatMoney(data.TaxAmount), props.Text{
				Size: 9, Align: align.Right, Right: 1, Top: 6,
			}),
			grandValue(r.Currency+" "+formatMoney(data.Total)),
		),
	)
}

// footerRows: UUID, hash partido y QR TLV.
func footerRows(r *zatca.ResolvedInvoice, qrData, invoiceHash string) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("UUID: "+r.Data.UUID, props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if invoiceHash != "" {
		for _, chunk := range splitEvery("Hash: "+invoiceHash, 90) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5}),
			)))
		}
	}

	rows = append(rows, row.New(3))

	if qrData != "" {
		rows = append(rows, row.New(50).Add(
			col.New(4).Add(code.NewQr(qrData, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Escanea el código QR para verificar\nesta factura con la app de la ZATCA.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New(documentTitle(r), props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 22,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatAddress(a zatca.Address, country string) string {
	var parts []string
	for _, p := range []string{strings.TrimSpace(a.BuildingNumber + " " + a.Street), a.District, a.City, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(append(parts, country), ", ")
}

// formatMoney formatea con 2 decimales y comas de miles.
// Ej: 25000 → "25,000.00", -1234.5 → "-1,234.50"
func formatMoney(d decimal.Decimal) string {
	s := pkgzatca.Fmt(d)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
