package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/application/dto"
	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/zatca-api/internal/infrastructure/pdf"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
	apphttp "github.com/jhoicas/zatca-api/internal/interfaces/http"
	"github.com/jhoicas/zatca-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp arma la API completa sobre el store en memoria.
func buildTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewChainStore()
	defaults := zatca.DefaultDefaults()
	gen := einvoice.NewGenerateUseCase(
		infzatca.NewXMLBuilderService(),
		infzatca.NewJSONBuilderService(),
		zatca.NewHasher(),
		nil,
		zatca.NewMemoryUUIDRegistry(time.Hour),
		einvoice.Config{Defaults: defaults},
		logger.Nop(),
	)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Generate: gen,
		Issue:    einvoice.NewIssueUseCase(gen, store),
		Query:    einvoice.NewQueryUseCase(store.Invoices(), infrapdf.NewMarotoPDFGenerator(), defaults),
	})
	return app
}

const invoiceBody = `{
  "invoice_number": "INV-100",
  "invoice_date": "2024-06-01T08:15:00Z",
  "seller": {"name": "Acme Trading Co.", "vat_number": "300000000000003"},
  "buyer": {"name": "Walk-in"},
  "items": [{"description": "Widget", "quantity": 2, "unit_price": 50, "tax_rate": 15, "total": 115}],
  "subtotal": 100, "tax_amount": 15, "total": 115, "tax_rate": 15,
  "payment_method": "cash"
}`

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestPreview_DevuelveArtefactos(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices/preview", invoiceBody)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode[dto.ArtifactsResponse](t, resp)
	assert.Equal(t, "INV-100", out.InvoiceNumber)
	assert.Equal(t, "0200000", out.InvoiceSubtype)
	assert.NotEmpty(t, out.UUID)
	assert.Equal(t, zatca.GenerateInvoiceHashBase64(out.XML), out.InvoiceHash)
	assert.Contains(t, out.XML, "<cbc:ID>INV-100</cbc:ID>")
	assert.False(t, out.Stamped)
}

func TestPreview_CuerpoInvalido(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices/preview", "{no es json")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPreview_ReglasDelRequest(t *testing.T) {
	app := buildTestApp(t)
	body := strings.Replace(invoiceBody, `"vat_number": "300000000000003"`, `"vat_number": "12"`, 1)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices/preview", body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Message, "VATNumber")
}

func TestPreview_TotalesInconsistentes(t *testing.T) {
	app := buildTestApp(t)
	body := strings.Replace(invoiceBody, `"total": 115, "tax_rate"`, `"total": 120, "tax_rate"`, 1)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices/preview", body)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INVALID_INVOICE", out.Code)
}

func TestIssue_CreaYPermiteDescargar(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices", invoiceBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	issued := decode[dto.IssueResponse](t, resp)
	assert.Equal(t, int64(1), issued.Sequence)

	resp = doJSON(t, app, http.MethodGet, "/api/zatca/invoices/"+issued.UUID, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rec := decode[dto.EInvoiceResponse](t, resp)
	assert.Equal(t, issued.InvoiceHash, rec.InvoiceHash)

	resp = doJSON(t, app, http.MethodGet, "/api/zatca/invoices/"+issued.UUID+"/xml", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, infzatca.ContentTypeXML, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xml")
	xmlBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, issued.XML, string(xmlBody))

	resp = doJSON(t, app, http.MethodGet, "/api/zatca/invoices/"+issued.UUID+"/json", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, infzatca.ContentTypeJSON, resp.Header.Get("Content-Type"))

	resp = doJSON(t, app, http.MethodGet, "/api/zatca/invoices/"+issued.UUID+"/pdf", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	pdfBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBody, []byte("%PDF")))
}

func TestIssue_DuplicadoDevuelveConflicto(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices", invoiceBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	dup := strings.Replace(invoiceBody, `"invoice_number"`, `"uuid": "8e6000cf-1a98-4174-b3e7-b5d5954bc10d", "invoice_number"`, 1)
	resp = doJSON(t, app, http.MethodPost, "/api/zatca/invoices", dup)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGetByUUID_NoEncontrado(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/zatca/invoices/no-existe", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestList_RequiereVendedor(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/zatca/invoices", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	doJSON(t, app, http.MethodPost, "/api/zatca/invoices", invoiceBody)
	resp = doJSON(t, app, http.MethodGet, "/api/zatca/invoices?seller_vat=300000000000003", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[struct {
		Items []dto.EInvoiceResponse `json:"items"`
	}](t, resp)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "INV-100", out.Items[0].InvoiceNumber)
}

func TestList_Paginado(t *testing.T) {
	app := buildTestApp(t)
	for _, n := range []string{"INV-100", "INV-101", "INV-102"} {
		resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices", strings.Replace(invoiceBody, "INV-100", n, 1))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/zatca/invoices?seller_vat=300000000000003&limit=2&offset=1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[struct {
		Items []dto.EInvoiceResponse `json:"items"`
		Page  dto.PageResponse       `json:"page"`
	}](t, resp)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "INV-101", out.Items[0].InvoiceNumber)
	assert.Equal(t, "INV-100", out.Items[1].InvoiceNumber)
	assert.Equal(t, dto.PageResponse{Limit: 2, Offset: 1, Total: 2}, out.Page)

	resp = doJSON(t, app, http.MethodGet, "/api/zatca/invoices?seller_vat=300000000000003&limit=500", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBatch_DevuelveZip(t *testing.T) {
	app := buildTestApp(t)
	second := strings.Replace(invoiceBody, "INV-100", "INV-101", 1)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices/batch", `{"invoices": [`+invoiceBody+`,`+second+`]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, infzatca.ContentTypeZIP, resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestBatch_Vacio(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/invoices/batch", `{"invoices": []}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDecodeQR_DevuelveEtiquetas(t *testing.T) {
	app := buildTestApp(t)
	payload := "AQxGaXJveiBBc2hyYWYCCjEyMzQ1Njc4OTEDEzIwMjEtMTEtMTcgMDg6MzA6MDAEBjEwMC4wMAUFMTUuMDA="

	resp := doJSON(t, app, http.MethodPost, "/api/zatca/qr/decode", `{"payload": "`+payload+`"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode[[]dto.QRFieldResponse](t, resp)
	require.Len(t, out, 5)
	assert.Equal(t, dto.QRFieldResponse{Tag: 1, Name: "sellerName", Value: "Firoz Ashraf"}, out[0])
	assert.Equal(t, "15.00", out[4].Value)
}

func TestDecodeQR_PayloadTruncado(t *testing.T) {
	app := buildTestApp(t)

	// etiqueta 1 declara 12 bytes y solo trae 2
	resp := doJSON(t, app, http.MethodPost, "/api/zatca/qr/decode", `{"payload": "AQxGaQ=="}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
