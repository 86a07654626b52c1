package einvoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/zatca-api/internal/domain/entity"
	"github.com/jhoicas/zatca-api/internal/domain/repository"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

// IssueResult factura emitida dentro de la cadena del vendedor.
type IssueResult struct {
	Artifacts *Artifacts
	Record    *entity.EInvoiceRecord
}

// IssueUseCase emite facturas encadenadas: cada una toma como PIH el hash de la anterior.
type IssueUseCase struct {
	generator *GenerateUseCase
	txRunner  ChainTxRunner
	now       func() time.Time
}

// NewIssueUseCase construye el caso de uso de emisión.
func NewIssueUseCase(generator *GenerateUseCase, txRunner ChainTxRunner) *IssueUseCase {
	return &IssueUseCase{generator: generator, txRunner: txRunner, now: time.Now}
}

// IssueInvoice valida, bloquea la cabeza de la cadena del vendedor, genera con su PIH,
// persiste el registro y avanza la cabeza; todo en la misma transacción.
// Un PreviousInvoiceHash enviado por el llamador se ignora: manda la cadena.
func (uc *IssueUseCase) IssueInvoice(ctx context.Context, data *zatca.InvoiceData) (*IssueResult, error) {
	if err := zatca.ValidateInvoice(data); err != nil {
		return nil, err
	}
	log := uc.generator.log

	var result *IssueResult
	err := uc.txRunner.RunChain(ctx, func(
		chainRepo repository.ChainRepository,
		invoiceRepo repository.EInvoiceRepository,
	) error {
		head, err := chainRepo.LockHead(ctx, data.Seller.VATNumber)
		if err != nil {
			return fmt.Errorf("bloquear cadena: %w", err)
		}

		inv := *data
		inv.PreviousInvoiceHash = ""
		var sequence int64 = 1
		if head != nil {
			inv.PreviousInvoiceHash = head.LastHash
			sequence = head.Sequence + 1
		}

		artifacts, err := uc.generator.Generate(ctx, &inv)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(artifacts.Resolved.Data)
		if err != nil {
			return fmt.Errorf("serializar factura: %w", err)
		}

		now := uc.now().UTC()
		rec := &entity.EInvoiceRecord{
			SellerVAT:       inv.Seller.VATNumber,
			InvoiceNumber:   inv.InvoiceNumber,
			UUID:            artifacts.Resolved.Data.UUID,
			InvoiceTypeCode: artifacts.Resolved.TypeCode,
			Sequence:        sequence,
			IssueDate:       inv.InvoiceDate,
			Subtotal:        inv.Subtotal,
			TaxAmount:       inv.TaxAmount,
			Total:           inv.Total,
			XML:             artifacts.ExportXML,
			JSON:            artifacts.JSON,
			QRData:          artifacts.QRData,
			InvoiceHash:     artifacts.Hash.Base64,
			InvoiceHashHex:  artifacts.Hash.Hex,
			PreviousHash:    artifacts.Resolved.PreviousHash,
			Stamped:         artifacts.Stamp != nil,
			Payload:         payload,
			CreatedAt:       now,
		}
		if err := invoiceRepo.Create(ctx, rec); err != nil {
			return err
		}

		if err := chainRepo.SaveHead(ctx, &entity.ChainHead{
			SellerVAT: inv.Seller.VATNumber,
			Sequence:  sequence,
			LastHash:  artifacts.Hash.Base64,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("avanzar cadena: %w", err)
		}

		result = &IssueResult{Artifacts: artifacts, Record: rec}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("invoice", data.InvoiceNumber).Msg("emisión fallida")
		return nil, err
	}

	log.Info().
		Str("invoice", result.Record.InvoiceNumber).
		Str("uuid", result.Record.UUID).
		Int64("sequence", result.Record.Sequence).
		Msg("factura emitida")
	return result, nil
}
