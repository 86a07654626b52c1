package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	infrapdf "github.com/jhoicas/zatca-api/internal/infrastructure/pdf"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/zatca-api/pkg/logger"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

type generateOptions struct {
	input    string
	out      string
	encoding string
	pih      string
	pdf      bool
	certPath string
	keyPath  string
	password string
}

func newGenerateCmd(newLogger func() *logger.Logger) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera XML, JSON, hash y QR de una factura",
		Example: `  # Factura en UTF-8, artefactos en ./out
  zatca generate --input invoice.json --out out

  # Export de un ERP legado en Windows-1256, encadenada a la factura anterior
  zatca generate --input legacy.json --encoding windows-1256 --pih NWZlY2Vi...

  # Con sello fase 2 y PDF
  zatca generate --input invoice.json --cert egs.p12 --password secret --pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts, newLogger())
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Archivo JSON con la factura")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "Directorio de salida")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "utf-8", "Codificación del archivo de entrada: utf-8, windows-1256, iso-8859-6")
	cmd.Flags().StringVar(&opts.pih, "pih", "", "Hash Base64 de la factura anterior (vacío = PIH inicial)")
	cmd.Flags().BoolVar(&opts.pdf, "pdf", false, "Genera también la representación impresa")
	cmd.Flags().StringVar(&opts.certPath, "cert", "", "Certificado .p12/.pem para el sello fase 2")
	cmd.Flags().StringVar(&opts.keyPath, "key", "", "Llave privada PEM (si --cert es PEM)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Contraseña del .p12")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	data, err := readInvoice(opts.input, opts.encoding)
	if err != nil {
		return err
	}
	if opts.pih != "" {
		data.PreviousInvoiceHash = opts.pih
	}

	var stampSigner pkgzatca.Signer
	var cert *tls.Certificate
	if opts.certPath != "" {
		c, err := signer.Load(opts.certPath, opts.keyPath, opts.password)
		if err != nil {
			return err
		}
		cert = &c
		stampSigner = signer.NewDigitalSignatureService()
	}

	gen := einvoice.NewGenerateUseCase(
		infzatca.NewXMLBuilderService(),
		infzatca.NewJSONBuilderService(),
		zatca.NewHasher(),
		stampSigner,
		nil,
		einvoice.Config{Defaults: zatca.DefaultDefaults(), Certificate: cert},
		log,
	)
	a, err := gen.Preview(ctx, data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("crear %s: %w", opts.out, err)
	}
	xmlFile, jsonFile := a.Files()
	files := []infzatca.ExportFile{xmlFile, jsonFile}
	if opts.pdf {
		content, err := infrapdf.NewMarotoPDFGenerator().GenerateInvoicePDF(ctx, a.Resolved, a.QRData, a.Hash.Base64)
		if err != nil {
			return err
		}
		files = append(files, infzatca.ExportFile{
			Filename:    a.BaseName() + ".pdf",
			ContentType: infzatca.ContentTypePDF,
			Content:     content,
		})
	}
	for _, f := range files {
		path := filepath.Join(opts.out, f.Filename)
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return fmt.Errorf("escribir %s: %w", path, err)
		}
		log.Debug().Str("file", path).Int("bytes", len(f.Content)).Msg("artefacto escrito")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "uuid:     %s\n", a.Resolved.Data.UUID)
	fmt.Fprintf(w, "subtype:  %s\n", a.Resolved.Subtype)
	fmt.Fprintf(w, "hash:     %s\n", a.Hash.Base64)
	fmt.Fprintf(w, "qr:       %s\n", a.QRData)
	fmt.Fprintf(w, "stamped:  %t\n", a.Stamp != nil)
	for _, f := range files {
		fmt.Fprintf(w, "written:  %s\n", filepath.Join(opts.out, f.Filename))
	}
	return nil
}

// readInvoice lee el JSON de la factura y lo transcodifica a UTF-8 si hace falta.
func readInvoice(path, enc string) (*zatca.InvoiceData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	dec, err := inputDecoder(enc)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		if raw, err = dec.Bytes(raw); err != nil {
			return nil, fmt.Errorf("decodificar %s como %s: %w", path, enc, err)
		}
	}
	var data zatca.InvoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("JSON inválido en %s: %w", path, err)
	}
	return &data, nil
}

func inputDecoder(enc string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(enc, "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1256", "cp1256":
		return charmap.Windows1256.NewDecoder(), nil
	case "iso-8859-6":
		return charmap.ISO8859_6.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("codificación no soportada: %s", enc)
	}
}
