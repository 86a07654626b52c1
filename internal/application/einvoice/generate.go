// Package einvoice orquesta la generación de facturas ZATCA:
//
//	Resolve → XML UBL 2.1 → SHA-256 → [Sello fase 2] → QR TLV → JSON
//
// El pipeline es puro salvo el registro de UUID de sesión; la emisión encadenada
// (IssueInvoice) agrega persistencia transaccional del PIH.
package einvoice

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-api/pkg/logger"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

// Config parámetros del generador inyectados desde la configuración.
type Config struct {
	Defaults zatca.Defaults
	// Certificate certificado de la unidad de facturación; nil = sin sello (fase 1).
	Certificate      *tls.Certificate
	BatchConcurrency int
}

// Artifacts resultado de generar una factura.
type Artifacts struct {
	Resolved *zatca.ResolvedInvoice
	// XML es la cadena exacta sobre la que se calcula el hash.
	XML string
	// ExportXML es lo que se entrega: el XML firmado si hubo sello, si no igual a XML.
	ExportXML string
	JSON      string
	Hash      zatca.InvoiceHash
	QRData    string
	Stamp     *pkgzatca.Stamp
}

// BaseName nombre de archivo sugerido para las descargas.
func (a *Artifacts) BaseName() string {
	return infzatca.ExportBaseName(a.Resolved)
}

// Files devuelve el XML y el JSON listos para descargar.
func (a *Artifacts) Files() (xmlFile, jsonFile infzatca.ExportFile) {
	base := a.BaseName()
	return infzatca.XMLFile(a.ExportXML, base), infzatca.JSONFile(a.JSON, base)
}

// GenerateUseCase genera los artefactos de una factura.
type GenerateUseCase struct {
	xmlBuilder  *infzatca.XMLBuilderService
	jsonBuilder *infzatca.JSONBuilderService
	hasher      *zatca.Hasher
	signer      pkgzatca.Signer
	uuids       zatca.UUIDRegistry
	cfg         Config
	log         *logger.Logger
}

// NewGenerateUseCase construye el caso de uso. signer puede ser nil si no hay certificado.
func NewGenerateUseCase(
	xmlBuilder *infzatca.XMLBuilderService,
	jsonBuilder *infzatca.JSONBuilderService,
	hasher *zatca.Hasher,
	signer pkgzatca.Signer,
	uuids zatca.UUIDRegistry,
	cfg Config,
	log *logger.Logger,
) *GenerateUseCase {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	return &GenerateUseCase{
		xmlBuilder:  xmlBuilder,
		jsonBuilder: jsonBuilder,
		hasher:      hasher,
		signer:      signer,
		uuids:       uuids,
		cfg:         cfg,
		log:         log.WithComponent("einvoice"),
	}
}

// Defaults valores por defecto configurados.
func (uc *GenerateUseCase) Defaults() zatca.Defaults {
	return uc.cfg.Defaults
}

// Preview valida y genera sin persistir.
func (uc *GenerateUseCase) Preview(ctx context.Context, data *zatca.InvoiceData) (*Artifacts, error) {
	if err := zatca.ValidateInvoice(data); err != nil {
		return nil, err
	}
	return uc.Generate(ctx, data)
}

// Generate ejecuta el pipeline sin validar. data no se modifica; si no trae UUID se toma del
// registro de sesión para que dos renders de la misma factura compartan UUID, hash y QR.
func (uc *GenerateUseCase) Generate(ctx context.Context, data *zatca.InvoiceData) (*Artifacts, error) {
	if data == nil {
		return nil, fmt.Errorf("einvoice: factura nil")
	}
	inv := *data
	if inv.UUID == "" {
		id, err := uc.sessionUUID(ctx, &inv)
		if err != nil {
			return nil, err
		}
		inv.UUID = id
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 1. Resolver campos derivados (subtipo, identidad del comprador, defaults)
	// ═══════════════════════════════════════════════════════════════════════
	resolved := zatca.Resolve(&inv, uc.cfg.Defaults)

	// ═══════════════════════════════════════════════════════════════════════
	// 2. XML UBL 2.1 y hash sobre la cadena exacta
	// ═══════════════════════════════════════════════════════════════════════
	xmlStr, err := uc.xmlBuilder.Build(resolved)
	if err != nil {
		return nil, err
	}
	hash, err := uc.hasher.Hash(xmlStr)
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 3. Sello fase 2 (opcional)
	// ═══════════════════════════════════════════════════════════════════════
	exportXML := xmlStr
	var stamp *pkgzatca.Stamp
	if uc.signer != nil && uc.cfg.Certificate != nil {
		stamp, err = uc.signer.Sign([]byte(xmlStr), *uc.cfg.Certificate)
		if err != nil {
			return nil, fmt.Errorf("einvoice: sellar factura %s: %w", inv.InvoiceNumber, err)
		}
		exportXML = string(stamp.SignedXML)
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 4. QR TLV y JSON
	// ═══════════════════════════════════════════════════════════════════════
	qr, err := zatca.GenerateQRData(zatca.NewQRFields(resolved, stamp, hash.Base64))
	if err != nil {
		return nil, err
	}

	doc, err := uc.jsonBuilder.Build(resolved)
	if err != nil {
		return nil, err
	}
	if stamp != nil {
		doc.WithSignature(hash.Base64, stamp.SignatureValue, qr)
	}
	jsonStr, err := uc.jsonBuilder.Marshal(doc)
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("invoice", inv.InvoiceNumber).
		Str("uuid", inv.UUID).
		Str("subtype", resolved.Subtype).
		Str("hash", hash.Hex).
		Bool("stamped", stamp != nil).
		Msg("factura generada")

	return &Artifacts{
		Resolved:  resolved,
		XML:       xmlStr,
		ExportXML: exportXML,
		JSON:      jsonStr,
		Hash:      hash,
		QRData:    qr,
		Stamp:     stamp,
	}, nil
}

func (uc *GenerateUseCase) sessionUUID(ctx context.Context, inv *zatca.InvoiceData) (string, error) {
	if uc.uuids == nil || inv.InvoiceNumber == "" {
		return zatca.GenerateInvoiceUUID(), nil
	}
	id, err := uc.uuids.Resolve(ctx, zatca.UUIDKey(inv.Seller.VATNumber, inv.InvoiceNumber))
	if err != nil {
		return "", fmt.Errorf("einvoice: uuid de sesión: %w", err)
	}
	return id, nil
}
