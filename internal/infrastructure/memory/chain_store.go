// Package memory implementa la persistencia de la cadena de facturas en memoria (desarrollo y tests).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/zatca-api/internal/domain"
	"github.com/jhoicas/zatca-api/internal/domain/entity"
	"github.com/jhoicas/zatca-api/internal/domain/repository"
)

// ChainStore guarda cabezas y facturas. RunChain serializa las transacciones con un mutex
// y solo aplica los cambios si fn termina sin error.
type ChainStore struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	heads    map[string]entity.ChainHead
	invoices map[string]entity.EInvoiceRecord // por UUID
}

// NewChainStore crea el store vacío.
func NewChainStore() *ChainStore {
	return &ChainStore{
		heads:    make(map[string]entity.ChainHead),
		invoices: make(map[string]entity.EInvoiceRecord),
	}
}

// RunChain ejecuta fn con repos transaccionales sobre el store.
func (s *ChainStore) RunChain(ctx context.Context, fn func(
	chainRepo repository.ChainRepository,
	invoiceRepo repository.EInvoiceRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{
		store:    s,
		heads:    make(map[string]entity.ChainHead),
		invoices: make(map[string]entity.EInvoiceRecord),
	}
	if err := fn(tx, (*memTxInvoices)(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, h := range tx.heads {
		s.heads[k] = h
	}
	for k, rec := range tx.invoices {
		s.invoices[k] = rec
	}
	return nil
}

// Invoices repositorio de lectura fuera de transacción.
func (s *ChainStore) Invoices() repository.EInvoiceRepository {
	return (*memTxInvoices)(&memTx{store: s})
}

type memTx struct {
	store    *ChainStore
	heads    map[string]entity.ChainHead
	invoices map[string]entity.EInvoiceRecord
}

func (t *memTx) LockHead(_ context.Context, sellerVAT string) (*entity.ChainHead, error) {
	if h, ok := t.heads[sellerVAT]; ok {
		return &h, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if h, ok := t.store.heads[sellerVAT]; ok {
		return &h, nil
	}
	return nil, nil
}

func (t *memTx) SaveHead(_ context.Context, head *entity.ChainHead) error {
	if t.heads == nil {
		return fmt.Errorf("memory: SaveHead fuera de transacción")
	}
	t.heads[head.SellerVAT] = *head
	return nil
}

type memTxInvoices memTx

func (t *memTxInvoices) Create(_ context.Context, rec *entity.EInvoiceRecord) error {
	if t.invoices == nil {
		return fmt.Errorf("memory: Create fuera de transacción")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, existing := range t.all() {
		if existing.UUID == rec.UUID ||
			(existing.SellerVAT == rec.SellerVAT && existing.InvoiceNumber == rec.InvoiceNumber) {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicate, rec.SellerVAT, rec.InvoiceNumber)
		}
	}
	t.invoices[rec.UUID] = *rec
	return nil
}

func (t *memTxInvoices) GetByUUID(_ context.Context, id string) (*entity.EInvoiceRecord, error) {
	if rec, ok := t.invoices[id]; ok {
		return &rec, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if rec, ok := t.store.invoices[id]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (t *memTxInvoices) ListBySeller(_ context.Context, sellerVAT string, limit, offset int) ([]*entity.EInvoiceRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	t.store.mu.RLock()
	all := t.all()
	t.store.mu.RUnlock()

	var list []*entity.EInvoiceRecord
	for i := range all {
		if all[i].SellerVAT == sellerVAT {
			list = append(list, &all[i])
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Sequence > list[j].Sequence })
	if offset >= len(list) {
		return nil, nil
	}
	if offset > 0 {
		list = list[offset:]
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// all combina lo confirmado con lo pendiente de la tx. Requiere store.mu tomado.
func (t *memTxInvoices) all() []entity.EInvoiceRecord {
	out := make([]entity.EInvoiceRecord, 0, len(t.store.invoices)+len(t.invoices))
	for _, rec := range t.store.invoices {
		out = append(out, rec)
	}
	for _, rec := range t.invoices {
		out = append(out, rec)
	}
	return out
}
