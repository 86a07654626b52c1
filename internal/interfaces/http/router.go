package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-api/internal/application/einvoice"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Generate *einvoice.GenerateUseCase
	Issue    *einvoice.IssueUseCase
	Query    *einvoice.QueryUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	zatcaGroup := api.Group("/zatca")
	h := NewZATCAHandler(deps.Generate, deps.Issue, deps.Query)

	// Facturas
	invoices := zatcaGroup.Group("/invoices")
	invoices.Post("/preview", h.Preview)
	invoices.Post("/batch", h.Batch)
	invoices.Post("/", h.Issue)
	invoices.Get("/", h.List)
	invoices.Get("/:uuid", h.GetByUUID)
	invoices.Get("/:uuid/xml", h.DownloadXML)
	invoices.Get("/:uuid/json", h.DownloadJSON)
	invoices.Get("/:uuid/pdf", h.DownloadPDF)

	// QR
	zatcaGroup.Post("/qr/decode", h.DecodeQR)
}
