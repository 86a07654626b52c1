// Package zatca implementa los generadores de artefactos ZATCA: XML UBL 2.1, JSON y archivos de exportación.
package zatca

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// Namespaces UBL 2.1.
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
)

// XMLBuilderService construye el XML UBL 2.1 de la factura (sin firma).
// La cadena resultante es parte del contrato: cualquier cambio de formato cambia el hash.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// GenerateXML resuelve los datos con los defaults y genera el XML.
func (s *XMLBuilderService) GenerateXML(data *zatca.InvoiceData, defaults zatca.Defaults) (string, error) {
	if data == nil {
		return "", fmt.Errorf("zatca: factura nil")
	}
	return s.Build(zatca.Resolve(data, defaults))
}

// Build genera el documento Invoice respetando el orden de elementos exigido por la ZATCA.
func (s *XMLBuilderService) Build(r *zatca.ResolvedInvoice) (string, error) {
	if r == nil || r.Data == nil {
		return "", fmt.Errorf("zatca: factura resuelta vacía")
	}
	data := r.Data

	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ext", NsExt)

	// ---- ext:UBLExtensions siempre como primer hijo: el firmador inyecta ds:Signature aquí
	ext := root.CreateElement("ext:UBLExtensions").CreateElement("ext:UBLExtension")
	text(ext, "ext:ExtensionURI", pkgzatca.SignatureExtension)
	ext.CreateElement("ext:ExtensionContent")

	text(root, "cbc:ProfileID", pkgzatca.ProfileReporting)
	text(root, "cbc:ID", data.InvoiceNumber)
	text(root, "cbc:UUID", data.UUID)
	text(root, "cbc:IssueDate", r.IssueDate)
	text(root, "cbc:IssueTime", r.IssueTime)
	text(root, "cbc:InvoiceTypeCode", r.TypeCode).CreateAttr("name", r.Subtype)
	text(root, "cbc:DocumentCurrencyCode", r.Currency)
	text(root, "cbc:TaxCurrencyCode", r.Currency)
	if data.Notes != "" {
		text(root, "cbc:Note", data.Notes)
	}

	// Notas crédito/débito referencian la factura original.
	if r.TypeCode != pkgzatca.InvoiceTypeTax && data.BillingReferenceID != "" {
		ref := root.CreateElement("cac:BillingReference").CreateElement("cac:InvoiceDocumentReference")
		text(ref, "cbc:ID", data.BillingReferenceID)
	}

	// ---- Referencias de encadenamiento: ICV y PIH
	icv := root.CreateElement("cac:AdditionalDocumentReference")
	text(icv, "cbc:ID", pkgzatca.DocRefICV)
	text(icv, "cbc:UUID", data.InvoiceNumber)

	pih := root.CreateElement("cac:AdditionalDocumentReference")
	text(pih, "cbc:ID", pkgzatca.DocRefPIH)
	text(pih.CreateElement("cac:Attachment"), "cbc:EmbeddedDocumentBinaryObject", r.PreviousHash).
		CreateAttr("mimeCode", pkgzatca.AttachmentMimePlain)

	s.writeSupplier(root, r)
	s.writeCustomer(root, r)

	if r.PaymentMeansCode != "" {
		pm := root.CreateElement("cac:PaymentMeans")
		text(pm, "cbc:PaymentMeansCode", r.PaymentMeansCode)
		if data.Reason != "" {
			text(pm, "cbc:InstructionNote", data.Reason)
		}
	}

	// ---- TaxTotal: el primero con subtotal; el segundo repite el monto en la moneda de impuestos
	tax := root.CreateElement("cac:TaxTotal")
	amount(tax, "cbc:TaxAmount", data.TaxAmount, r.Currency)
	sub := tax.CreateElement("cac:TaxSubtotal")
	amount(sub, "cbc:TaxableAmount", data.Subtotal, r.Currency)
	amount(sub, "cbc:TaxAmount", data.TaxAmount, r.Currency)
	s.writeTaxCategory(sub, "cac:TaxCategory", data.TaxRate)

	amount(root.CreateElement("cac:TaxTotal"), "cbc:TaxAmount", data.TaxAmount, r.Currency)

	lmt := root.CreateElement("cac:LegalMonetaryTotal")
	amount(lmt, "cbc:LineExtensionAmount", data.Subtotal, r.Currency)
	amount(lmt, "cbc:TaxExclusiveAmount", data.Subtotal, r.Currency)
	amount(lmt, "cbc:TaxInclusiveAmount", data.Total, r.Currency)
	amount(lmt, "cbc:PayableAmount", data.Total, r.Currency)

	for _, line := range r.Lines {
		s.writeLine(root, line, r.Currency)
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("zatca: serializar XML: %w", err)
	}
	return out, nil
}

func (s *XMLBuilderService) writeSupplier(root *etree.Element, r *zatca.ResolvedInvoice) {
	seller := r.Data.Seller
	party := root.CreateElement("cac:AccountingSupplierParty").CreateElement("cac:Party")

	text(party.CreateElement("cac:PartyIdentification"), "cbc:ID", seller.CommercialRegister).
		CreateAttr("schemeID", pkgzatca.SchemeCRN)
	s.writeAddress(party, seller.Address, r.Country)

	pts := party.CreateElement("cac:PartyTaxScheme")
	text(pts, "cbc:CompanyID", seller.VATNumber)
	text(pts.CreateElement("cac:TaxScheme"), "cbc:ID", pkgzatca.TaxSchemeVAT)

	text(party.CreateElement("cac:PartyLegalEntity"), "cbc:RegistrationName", seller.Name)
}

func (s *XMLBuilderService) writeCustomer(root *etree.Element, r *zatca.ResolvedInvoice) {
	buyer := r.Data.Buyer
	party := root.CreateElement("cac:AccountingCustomerParty").CreateElement("cac:Party")

	if r.BuyerIdentity.Kind != zatca.BuyerIdentityNone {
		text(party.CreateElement("cac:PartyIdentification"), "cbc:ID", r.BuyerIdentity.Value).
			CreateAttr("schemeID", r.BuyerIdentity.SchemeID())
	}
	s.writeAddress(party, buyer.Address, r.BuyerCountry)

	if r.BuyerIdentity.IsStandard() {
		pts := party.CreateElement("cac:PartyTaxScheme")
		text(pts, "cbc:CompanyID", r.BuyerIdentity.Value)
		text(pts.CreateElement("cac:TaxScheme"), "cbc:ID", pkgzatca.TaxSchemeVAT)
	}

	text(party.CreateElement("cac:PartyLegalEntity"), "cbc:RegistrationName", buyer.Name)
}

func (s *XMLBuilderService) writeAddress(party *etree.Element, a zatca.Address, country string) {
	addr := party.CreateElement("cac:PostalAddress")
	text(addr, "cbc:StreetName", a.Street)
	text(addr, "cbc:BuildingNumber", a.BuildingNumber)
	text(addr, "cbc:CitySubdivisionName", a.District)
	text(addr, "cbc:CityName", a.City)
	text(addr, "cbc:PostalZone", a.PostalCode)
	text(addr.CreateElement("cac:Country"), "cbc:IdentificationCode", country)
}

func (s *XMLBuilderService) writeTaxCategory(parent *etree.Element, tag string, rate decimal.Decimal) {
	cat := parent.CreateElement(tag)
	text(cat, "cbc:ID", pkgzatca.TaxCategoryStandard)
	text(cat, "cbc:Percent", pkgzatca.Fmt(rate))
	text(cat.CreateElement("cac:TaxScheme"), "cbc:ID", pkgzatca.TaxSchemeVAT)
}

func (s *XMLBuilderService) writeLine(root *etree.Element, line zatca.ResolvedLine, currency string) {
	il := root.CreateElement("cac:InvoiceLine")
	text(il, "cbc:ID", strconv.Itoa(line.Number))
	text(il, "cbc:InvoicedQuantity", line.Quantity.String()).CreateAttr("unitCode", line.UnitCode)
	amount(il, "cbc:LineExtensionAmount", line.LineExtensionAmount, currency)

	tax := il.CreateElement("cac:TaxTotal")
	amount(tax, "cbc:TaxAmount", line.TaxAmount, currency)
	amount(tax, "cbc:RoundingAmount", line.Total, currency)

	item := il.CreateElement("cac:Item")
	text(item, "cbc:Name", line.Description)
	s.writeTaxCategory(item, "cac:ClassifiedTaxCategory", line.TaxRate)

	amount(il.CreateElement("cac:Price"), "cbc:PriceAmount", line.UnitPrice, currency)
}

// text crea el hijo con texto; el serializador de etree escapa & < > " '.
func text(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement(tag)
	if value != "" {
		el.SetText(value)
	}
	return el
}

// amount crea un monto con currencyID y exactamente 2 decimales.
func amount(parent *etree.Element, tag string, value decimal.Decimal, currency string) *etree.Element {
	el := text(parent, tag, pkgzatca.Fmt(value))
	el.CreateAttr("currencyID", currency)
	return el
}
