package http

import (
	"encoding/base64"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-api/internal/application/dto"
	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
)

// ZATCAHandler expone la generación, emisión y descarga de facturas ZATCA.
type ZATCAHandler struct {
	generate  *einvoice.GenerateUseCase
	issue     *einvoice.IssueUseCase
	query     *einvoice.QueryUseCase
	validator *validator.Validate
}

// NewZATCAHandler construye el handler.
func NewZATCAHandler(generate *einvoice.GenerateUseCase, issue *einvoice.IssueUseCase, query *einvoice.QueryUseCase) *ZATCAHandler {
	return &ZATCAHandler{
		generate:  generate,
		issue:     issue,
		query:     query,
		validator: validator.New(),
	}
}

// Preview genera los artefactos sin persistir ni encadenar.
// POST /api/zatca/invoices/preview
func (h *ZATCAHandler) Preview(c *fiber.Ctx) error {
	in, err := h.parseInvoice(c)
	if err != nil {
		return writeError(c, err)
	}
	a, err := h.generate.Preview(c.UserContext(), in.ToDomain())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(artifactsResponse(a))
}

// Issue emite la factura en la cadena del vendedor.
// POST /api/zatca/invoices
func (h *ZATCAHandler) Issue(c *fiber.Ctx) error {
	in, err := h.parseInvoice(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.issue.IssueInvoice(c.UserContext(), in.ToDomain())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.IssueResponse{
		ArtifactsResponse: artifactsResponse(res.Artifacts),
		Sequence:          res.Record.Sequence,
		PreviousHash:      res.Record.PreviousHash,
	})
}

// Batch genera varias facturas y devuelve un ZIP con su XML y JSON.
// POST /api/zatca/invoices/batch
func (h *ZATCAHandler) Batch(c *fiber.Ctx) error {
	var in dto.BatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateBody(h.validator, &in); err != nil {
		return writeError(c, err)
	}
	invoices := make([]*zatca.InvoiceData, len(in.Invoices))
	for i := range in.Invoices {
		invoices[i] = in.Invoices[i].ToDomain()
	}
	batch, err := h.generate.GenerateBatch(c.UserContext(), invoices)
	if err != nil {
		return writeError(c, err)
	}
	zipped, err := einvoice.BundleBatch(batch)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, infzatca.ExportFile{
		Filename:    "invoices.zip",
		ContentType: infzatca.ContentTypeZIP,
		Content:     zipped,
	})
}

// List últimas facturas emitidas por un vendedor.
// GET /api/zatca/invoices?seller_vat=...&limit=...&offset=...
func (h *ZATCAHandler) List(c *fiber.Ctx) error {
	sellerVAT := c.Query("seller_vat")
	if sellerVAT == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "seller_vat requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return writeError(c, errInvalidBody)
	}
	page.DefaultPage()
	if err := validateBody(h.validator, &page); err != nil {
		return writeError(c, err)
	}
	list, err := h.query.ListBySeller(c.UserContext(), sellerVAT, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.EInvoiceResponse, 0, len(list))
	for _, rec := range list {
		out = append(out, dto.NewEInvoiceResponse(rec))
	}
	return c.JSON(fiber.Map{"items": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(out)}})
}

// GetByUUID obtiene la factura emitida.
// GET /api/zatca/invoices/:uuid
func (h *ZATCAHandler) GetByUUID(c *fiber.Ctx) error {
	rec, err := h.query.GetByUUID(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewEInvoiceResponse(rec))
}

// DownloadXML GET /api/zatca/invoices/:uuid/xml
func (h *ZATCAHandler) DownloadXML(c *fiber.Ctx) error {
	f, err := h.query.XMLFile(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, f)
}

// DownloadJSON GET /api/zatca/invoices/:uuid/json
func (h *ZATCAHandler) DownloadJSON(c *fiber.Ctx) error {
	f, err := h.query.JSONFile(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, f)
}

// DownloadPDF GET /api/zatca/invoices/:uuid/pdf
func (h *ZATCAHandler) DownloadPDF(c *fiber.Ctx) error {
	f, err := h.query.PDFFile(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, f)
}

// DecodeQR decodifica un payload TLV Base64.
// POST /api/zatca/qr/decode
func (h *ZATCAHandler) DecodeQR(c *fiber.Ctx) error {
	var in dto.QRDecodeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateBody(h.validator, &in); err != nil {
		return writeError(c, err)
	}
	fields, err := zatca.DecodeQRData(in.Payload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QR", Message: err.Error()})
	}
	out := make([]dto.QRFieldResponse, len(fields))
	for i, f := range fields {
		value := string(f.Value)
		if zatca.IsBinaryTag(f.Tag) || !utf8.Valid(f.Value) {
			value = base64.StdEncoding.EncodeToString(f.Value)
		}
		out[i] = dto.QRFieldResponse{Tag: int(f.Tag), Name: zatca.TagName(f.Tag), Value: value}
	}
	return c.JSON(out)
}

func (h *ZATCAHandler) parseInvoice(c *fiber.Ctx) (*dto.InvoiceRequest, error) {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return nil, errInvalidBody
	}
	if err := validateBody(h.validator, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func artifactsResponse(a *einvoice.Artifacts) dto.ArtifactsResponse {
	return dto.ArtifactsResponse{
		UUID:           a.Resolved.Data.UUID,
		InvoiceNumber:  a.Resolved.Data.InvoiceNumber,
		InvoiceSubtype: a.Resolved.Subtype,
		InvoiceHash:    a.Hash.Base64,
		InvoiceHashHex: a.Hash.Hex,
		QRData:         a.QRData,
		XML:            a.ExportXML,
		JSON:           a.JSON,
		Stamped:        a.Stamp != nil,
	}
}

// sendFile entrega el artefacto como adjunto con sus bytes intactos.
func sendFile(c *fiber.Ctx, f infzatca.ExportFile) error {
	c.Attachment(f.Filename)
	c.Set(fiber.HeaderContentType, f.ContentType)
	return c.Send(f.Content)
}
