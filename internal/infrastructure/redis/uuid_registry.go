package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

const uuidKeyPrefix = "zatca:uuid:"

// UUIDRegistry comparte el UUID de sesión de cada factura entre instancias de la API.
// SETNX garantiza que dos peticiones simultáneas para la misma factura obtengan el mismo UUID.
type UUIDRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

var _ zatca.UUIDRegistry = (*UUIDRegistry)(nil)

// NewUUIDRegistry crea el registro. ttl <= 0 = sin expiración.
func NewUUIDRegistry(client *redis.Client, ttl time.Duration) *UUIDRegistry {
	return &UUIDRegistry{client: client, ttl: ttl}
}

// Resolve devuelve el UUID registrado para key o registra uno nuevo.
func (r *UUIDRegistry) Resolve(ctx context.Context, key string) (string, error) {
	redisKey := uuidKeyPrefix + key
	candidate := zatca.GenerateInvoiceUUID()

	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	ok, err := r.client.SetNX(ctx, redisKey, candidate, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis: registrar uuid: %w", err)
	}
	if ok {
		return candidate, nil
	}

	existing, err := r.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// expiró entre SETNX y GET
		return r.Resolve(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("redis: leer uuid: %w", err)
	}
	return existing, nil
}
