package zatca

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenerateInvoiceUUID genera un UUID v4 con fuente criptográfica (crypto/rand).
func GenerateInvoiceUUID() string {
	return uuid.New().String()
}

// UUIDRegistry entrega un UUID estable por factura durante la sesión de exportación.
// Regenerarlo en cada render rompería la consistencia entre hash y QR.
type UUIDRegistry interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// UUIDKey clave de sesión: el número de factura se acota por vendedor.
func UUIDKey(sellerVAT, invoiceNumber string) string {
	return sellerVAT + "/" + invoiceNumber
}

type uuidEntry struct {
	value   string
	expires time.Time
}

// MemoryUUIDRegistry implementación en memoria con expiración.
// Las entradas vencidas se barren como mucho una vez por TTL.
type MemoryUUIDRegistry struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	entries   map[string]uuidEntry
}

// NewMemoryUUIDRegistry crea el registro. ttl <= 0 = sin expiración.
func NewMemoryUUIDRegistry(ttl time.Duration) *MemoryUUIDRegistry {
	return &MemoryUUIDRegistry{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]uuidEntry),
	}
}

// Resolve devuelve el UUID memorizado para key o genera uno nuevo.
func (r *MemoryUUIDRegistry) Resolve(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)
	if e, ok := r.entries[key]; ok && (r.ttl <= 0 || now.Before(e.expires)) {
		return e.value, nil
	}
	e := uuidEntry{value: GenerateInvoiceUUID(), expires: now.Add(r.ttl)}
	r.entries[key] = e
	return e.value, nil
}

// Len número de UUID memorizados (vigentes o pendientes de barrido).
func (r *MemoryUUIDRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// sweep elimina las entradas vencidas. Requiere r.mu tomado.
func (r *MemoryUUIDRegistry) sweep(now time.Time) {
	if r.ttl <= 0 || now.Sub(r.lastSweep) < r.ttl {
		return
	}
	r.lastSweep = now
	for k, e := range r.entries {
		if !now.Before(e.expires) {
			delete(r.entries, k)
		}
	}
}

var _ UUIDRegistry = (*MemoryUUIDRegistry)(nil)
