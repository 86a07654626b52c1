package zatca

import (
	"encoding/json"
	"fmt"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// InvoiceDocument representación JSON de la factura. Refleja los mismos campos lógicos del XML;
// los montos viajan como números redondeados a 2 decimales.
type InvoiceDocument struct {
	InvoiceMetadata         InvoiceMetadata    `json:"invoiceMetadata"`
	DocumentReferences      DocumentReferences `json:"documentReferences"`
	AccountingSupplierParty SupplierParty      `json:"accountingSupplierParty"`
	AccountingCustomerParty CustomerParty      `json:"accountingCustomerParty"`
	PaymentMeans            *PaymentMeans      `json:"paymentMeans,omitempty"`
	TaxTotal                TaxTotal           `json:"taxTotal"`
	LegalMonetaryTotal      LegalMonetaryTotal `json:"legalMonetaryTotal"`
	InvoiceLines            []InvoiceLine      `json:"invoiceLines"`
	DigitalSignature        *DigitalSignature  `json:"digitalSignature,omitempty"`
}

type InvoiceMetadata struct {
	ProfileID            string `json:"profileID"`
	ID                   string `json:"id"`
	UUID                 string `json:"uuid"`
	IssueDate            string `json:"issueDate"`
	IssueTime            string `json:"issueTime"`
	InvoiceTypeCode      string `json:"invoiceTypeCode"`
	InvoiceSubtype       string `json:"invoiceSubtype"`
	DocumentCurrencyCode string `json:"documentCurrencyCode"`
	TaxCurrencyCode      string `json:"taxCurrencyCode"`
	Note                 string `json:"note,omitempty"`
	BillingReference     string `json:"billingReference,omitempty"`
}

type DocumentReferences struct {
	InvoiceCounterValue string `json:"invoiceCounterValue"`
	PreviousInvoiceHash string `json:"previousInvoiceHash"`
}

type PostalAddress struct {
	StreetName          string `json:"streetName"`
	BuildingNumber      string `json:"buildingNumber"`
	CitySubdivisionName string `json:"citySubdivisionName"`
	CityName            string `json:"cityName"`
	PostalZone          string `json:"postalZone"`
	Country             string `json:"country"`
}

type PartyIdentification struct {
	SchemeID string `json:"schemeID"`
	ID       string `json:"id"`
}

type SupplierParty struct {
	PartyIdentification PartyIdentification `json:"partyIdentification"`
	PostalAddress       PostalAddress       `json:"postalAddress"`
	VATNumber           string              `json:"vatNumber"`
	RegistrationName    string              `json:"registrationName"`
}

type CustomerParty struct {
	PartyIdentification *PartyIdentification `json:"partyIdentification,omitempty"`
	PostalAddress       PostalAddress        `json:"postalAddress"`
	VATNumber           string               `json:"vatNumber,omitempty"`
	RegistrationName    string               `json:"registrationName"`
}

type PaymentMeans struct {
	PaymentMeansCode string `json:"paymentMeansCode"`
	InstructionNote  string `json:"instructionNote,omitempty"`
}

type TaxCategory struct {
	ID        string  `json:"id"`
	Percent   float64 `json:"percent"`
	TaxScheme string  `json:"taxScheme"`
}

type TaxTotal struct {
	TaxAmount     float64     `json:"taxAmount"`
	TaxableAmount float64     `json:"taxableAmount"`
	TaxCategory   TaxCategory `json:"taxCategory"`
	Currency      string      `json:"currency"`
}

type LegalMonetaryTotal struct {
	LineExtensionAmount float64 `json:"lineExtensionAmount"`
	TaxExclusiveAmount  float64 `json:"taxExclusiveAmount"`
	TaxInclusiveAmount  float64 `json:"taxInclusiveAmount"`
	PayableAmount       float64 `json:"payableAmount"`
}

type InvoiceLine struct {
	ID                  int         `json:"id"`
	InvoicedQuantity    float64     `json:"invoicedQuantity"`
	UnitCode            string      `json:"unitCode"`
	LineExtensionAmount float64     `json:"lineExtensionAmount"`
	TaxAmount           float64     `json:"taxAmount"`
	RoundingAmount      float64     `json:"roundingAmount"`
	ItemName            string      `json:"itemName"`
	TaxCategory         TaxCategory `json:"classifiedTaxCategory"`
	PriceAmount         float64     `json:"priceAmount"`
}

// DigitalSignature valores de fase 2; solo presente cuando la factura fue sellada.
type DigitalSignature struct {
	InvoiceHash    string `json:"invoiceHash"`
	SignatureValue string `json:"signatureValue,omitempty"`
	QRCode         string `json:"qrCode,omitempty"`
}

// JSONBuilderService construye la representación JSON a partir de la misma factura resuelta que el XML.
type JSONBuilderService struct{}

// NewJSONBuilderService crea el servicio.
func NewJSONBuilderService() *JSONBuilderService {
	return &JSONBuilderService{}
}

// Build arma el documento. Las reglas de presencia condicional vienen de ResolvedInvoice.
func (s *JSONBuilderService) Build(r *zatca.ResolvedInvoice) (*InvoiceDocument, error) {
	if r == nil || r.Data == nil {
		return nil, fmt.Errorf("zatca: factura resuelta vacía")
	}
	data := r.Data

	doc := &InvoiceDocument{
		InvoiceMetadata: InvoiceMetadata{
			ProfileID:            pkgzatca.ProfileReporting,
			ID:                   data.InvoiceNumber,
			UUID:                 data.UUID,
			IssueDate:            r.IssueDate,
			IssueTime:            r.IssueTime,
			InvoiceTypeCode:      r.TypeCode,
			InvoiceSubtype:       r.Subtype,
			DocumentCurrencyCode: r.Currency,
			TaxCurrencyCode:      r.Currency,
			Note:                 data.Notes,
		},
		DocumentReferences: DocumentReferences{
			InvoiceCounterValue: data.InvoiceNumber,
			PreviousInvoiceHash: r.PreviousHash,
		},
		AccountingSupplierParty: SupplierParty{
			PartyIdentification: PartyIdentification{SchemeID: pkgzatca.SchemeCRN, ID: data.Seller.CommercialRegister},
			PostalAddress:        postalAddress(data.Seller.Address, r.Country),
			VATNumber:            data.Seller.VATNumber,
			RegistrationName:     data.Seller.Name,
		},
		AccountingCustomerParty: CustomerParty{
			PostalAddress:    postalAddress(data.Buyer.Address, r.BuyerCountry),
			RegistrationName: data.Buyer.Name,
		},
		TaxTotal: TaxTotal{
			TaxAmount:     pkgzatca.Float2(data.TaxAmount),
			TaxableAmount: pkgzatca.Float2(data.Subtotal),
			TaxCategory:   taxCategory(data.TaxRate.InexactFloat64()),
			Currency:      r.Currency,
		},
		LegalMonetaryTotal: LegalMonetaryTotal{
			LineExtensionAmount: pkgzatca.Float2(data.Subtotal),
			TaxExclusiveAmount:  pkgzatca.Float2(data.Subtotal),
			TaxInclusiveAmount:  pkgzatca.Float2(data.Total),
			PayableAmount:       pkgzatca.Float2(data.Total),
		},
		InvoiceLines: make([]InvoiceLine, 0, len(r.Lines)),
	}

	if r.TypeCode != pkgzatca.InvoiceTypeTax {
		doc.InvoiceMetadata.BillingReference = data.BillingReferenceID
	}
	if r.BuyerIdentity.Kind != zatca.BuyerIdentityNone {
		doc.AccountingCustomerParty.PartyIdentification = &PartyIdentification{
			SchemeID: r.BuyerIdentity.SchemeID(),
			ID:       r.BuyerIdentity.Value,
		}
	}
	if r.BuyerIdentity.IsStandard() {
		doc.AccountingCustomerParty.VATNumber = r.BuyerIdentity.Value
	}
	if r.PaymentMeansCode != "" {
		doc.PaymentMeans = &PaymentMeans{PaymentMeansCode: r.PaymentMeansCode, InstructionNote: data.Reason}
	}

	for _, line := range r.Lines {
		doc.InvoiceLines = append(doc.InvoiceLines, InvoiceLine{
			ID:                  line.Number,
			InvoicedQuantity:    line.Quantity.InexactFloat64(),
			UnitCode:            line.UnitCode,
			LineExtensionAmount: pkgzatca.Float2(line.LineExtensionAmount),
			TaxAmount:           pkgzatca.Float2(line.TaxAmount),
			RoundingAmount:      pkgzatca.Float2(line.Total),
			ItemName:            line.Description,
			TaxCategory:         taxCategory(line.TaxRate.InexactFloat64()),
			PriceAmount:         pkgzatca.Float2(line.UnitPrice),
		})
	}
	return doc, nil
}

// WithSignature agrega la sección de fase 2 al documento.
func (doc *InvoiceDocument) WithSignature(hashB64, signatureValue, qr string) *InvoiceDocument {
	doc.DigitalSignature = &DigitalSignature{InvoiceHash: hashB64, SignatureValue: signatureValue, QRCode: qr}
	return doc
}

// Marshal serializa con indentación de 2 espacios.
func (s *JSONBuilderService) Marshal(doc *InvoiceDocument) (string, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("zatca: serializar JSON: %w", err)
	}
	return string(b), nil
}

// GenerateJSON resuelve, arma y serializa en un paso.
func (s *JSONBuilderService) GenerateJSON(data *zatca.InvoiceData, defaults zatca.Defaults) (string, error) {
	if data == nil {
		return "", fmt.Errorf("zatca: factura nil")
	}
	doc, err := s.Build(zatca.Resolve(data, defaults))
	if err != nil {
		return "", err
	}
	return s.Marshal(doc)
}

func postalAddress(a zatca.Address, country string) PostalAddress {
	return PostalAddress{
		StreetName:          a.Street,
		BuildingNumber:      a.BuildingNumber,
		CitySubdivisionName: a.District,
		CityName:            a.City,
		PostalZone:          a.PostalCode,
		Country:             country,
	}
}

func taxCategory(percent float64) TaxCategory {
	return TaxCategory{ID: pkgzatca.TaxCategoryStandard, Percent: percent, TaxScheme: pkgzatca.TaxSchemeVAT}
}
