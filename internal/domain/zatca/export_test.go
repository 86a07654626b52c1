package zatca

import "time"

// SetClock reemplaza el reloj del registro en tests.
func (r *MemoryUUIDRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
