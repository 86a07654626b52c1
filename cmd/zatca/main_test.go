package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

const invoiceJSON = `{
  "invoice_number": "CLI-1",
  "invoice_date": "2024-02-01T12:00:00Z",
  "seller": {"name": "SELLER", "vat_number": "300000000000003"},
  "buyer": {"name": "Walk-in"},
  "items": [{"description": "Item", "quantity": 1, "unit_price": 10, "tax_rate": 15, "total": 11.5}],
  "subtotal": 10, "tax_amount": 1.5, "total": 11.5, "tax_rate": 15
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerate_EscribeXMLYJSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(input, []byte(invoiceJSON), 0o644))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "generate", "--input", input, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "subtype:  0200000")

	xmlPath := filepath.Join(outDir, "300000000000003_20240201T120000_CLI-1.xml")
	xmlBytes, err := os.ReadFile(xmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "hash:     "+zatca.GenerateInvoiceHashBase64(string(xmlBytes)))

	_, err = os.Stat(filepath.Join(outDir, "300000000000003_20240201T120000_CLI-1.json"))
	assert.NoError(t, err)
}

func TestGenerate_PIHExplicito(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(input, []byte(invoiceJSON), 0o644))

	_, err := run(t, "generate", "--input", input, "--out", dir, "--pih", "cHJldmlvdXM=")
	require.NoError(t, err)

	xmlBytes, err := os.ReadFile(filepath.Join(dir, "300000000000003_20240201T120000_CLI-1.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(xmlBytes), "cHJldmlvdXM=")
}

func TestGenerate_EntradaWindows1256(t *testing.T) {
	dir := t.TempDir()
	encoded, err := charmap.Windows1256.NewEncoder().String(strings.Replace(invoiceJSON, "SELLER", "شركة", 1))
	require.NoError(t, err)
	input := filepath.Join(dir, "legacy.json")
	require.NoError(t, os.WriteFile(input, []byte(encoded), 0o644))

	_, err = run(t, "generate", "--input", input, "--out", dir, "--encoding", "windows-1256")
	require.NoError(t, err)

	xmlBytes, err := os.ReadFile(filepath.Join(dir, "300000000000003_20240201T120000_CLI-1.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(xmlBytes), "<cbc:RegistrationName>شركة</cbc:RegistrationName>")
}

func TestGenerate_CodificacionDesconocida(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(input, []byte(invoiceJSON), 0o644))

	_, err := run(t, "generate", "--input", input, "--encoding", "ebcdic")
	assert.ErrorContains(t, err, "codificación no soportada")
}

func TestGenerate_FacturaInvalida(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(input, []byte(strings.Replace(invoiceJSON, `"total": 11.5}`, `"total": 12}`, 1)), 0o644))

	_, err := run(t, "generate", "--input", input, "--out", dir)
	assert.ErrorIs(t, err, zatca.ErrInconsistentTotals)
}

func TestQRDecode_ImprimeEtiquetas(t *testing.T) {
	out, err := run(t, "qr", "decode", "AQxGaXJveiBBc2hyYWYCCjEyMzQ1Njc4OTEDEzIwMjEtMTEtMTcgMDg6MzA6MDAEBjEwMC4wMAUFMTUuMDA=")
	require.NoError(t, err)
	assert.Contains(t, out, "Firoz Ashraf")
	assert.Contains(t, out, "2021-11-17 08:30:00")
	assert.Equal(t, 5, strings.Count(out, "\n"))
}

func TestHash_DeArchivo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.xml")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	out, err := run(t, "hash", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	assert.Contains(t, out, "ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0=")
}
