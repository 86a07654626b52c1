package zatca

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

// Content types de las descargas.
const (
	ContentTypeXML  = "application/xml;charset=utf-8"
	ContentTypeJSON = "application/json;charset=utf-8"
	ContentTypeZIP  = "application/zip"
	ContentTypePDF  = "application/pdf"
)

// ExportFile artefacto listo para descargar o escribir en disco. Content se entrega tal cual
// fue generado (UTF-8), sin reformatear: el hash depende de estos bytes.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// XMLFile empaqueta el XML; agrega ".xml" si el nombre no lo trae.
func XMLFile(content, filename string) ExportFile {
	return ExportFile{
		Filename:    ensureExtension(filename, ".xml"),
		ContentType: ContentTypeXML,
		Content:     []byte(content),
	}
}

// JSONFile empaqueta el JSON; agrega ".json" si el nombre no lo trae.
func JSONFile(content, filename string) ExportFile {
	return ExportFile{
		Filename:    ensureExtension(filename, ".json"),
		ContentType: ContentTypeJSON,
		Content:     []byte(content),
	}
}

func ensureExtension(filename, ext string) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		name = "invoice"
	}
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// ExportBaseName nombre recomendado por la ZATCA: {IVA}_{AAAAMMDD}T{HHMMSS}_{número}
// donde el número de factura solo conserva caracteres alfanuméricos (el resto se reemplaza por "-").
func ExportBaseName(r *zatca.ResolvedInvoice) string {
	date := strings.ReplaceAll(r.IssueDate, "-", "")
	clock := strings.ReplaceAll(r.IssueTime, ":", "")
	number := nonAlnum.ReplaceAllString(r.Data.InvoiceNumber, "-")
	return r.Data.Seller.VATNumber + "_" + date + "T" + clock + "_" + number
}

// BundleZip empaqueta varios artefactos en un ZIP en memoria.
func BundleZip(files []ExportFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Filename] {
			return nil, fmt.Errorf("zip: entrada duplicada %s", f.Filename)
		}
		seen[f.Filename] = true

		fw, err := zw.Create(f.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", f.Filename, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", f.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}
