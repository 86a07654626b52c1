package zatca_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

func TestGenerateInvoiceUUID_Version4(t *testing.T) {
	id, err := uuid.Parse(zatca.GenerateInvoiceUUID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
	assert.NotEqual(t, zatca.GenerateInvoiceUUID(), zatca.GenerateInvoiceUUID())
}

func TestMemoryUUIDRegistry_EstableEnLaSesion(t *testing.T) {
	ctx := context.Background()
	reg := zatca.NewMemoryUUIDRegistry(time.Hour)
	key := zatca.UUIDKey("300000000000003", "INV-0001")

	first, err := reg.Resolve(ctx, key)
	require.NoError(t, err)
	second, err := reg.Resolve(ctx, key)
	require.NoError(t, err)
	other, err := reg.Resolve(ctx, zatca.UUIDKey("300000000000003", "INV-0002"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}

func TestMemoryUUIDRegistry_SinExpiracion(t *testing.T) {
	ctx := context.Background()
	reg := zatca.NewMemoryUUIDRegistry(0)

	a, _ := reg.Resolve(ctx, "k")
	b, _ := reg.Resolve(ctx, "k")
	assert.Equal(t, a, b)
}

func TestMemoryUUIDRegistry_ExpiradosSeEliminan(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	reg := zatca.NewMemoryUUIDRegistry(time.Minute)
	reg.SetClock(func() time.Time { return clock })

	for i := 0; i < 1000; i++ {
		_, err := reg.Resolve(ctx, zatca.UUIDKey("300000000000003", fmt.Sprintf("INV-%04d", i)))
		require.NoError(t, err)
	}
	require.Equal(t, 1000, reg.Len())

	clock = clock.Add(time.Hour)
	_, err := reg.Resolve(ctx, zatca.UUIDKey("300000000000003", "INV-9999"))
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Len(), "solo debe quedar la entrada vigente")
}

func TestMemoryUUIDRegistry_VigentesSobrevivenAlBarrido(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	reg := zatca.NewMemoryUUIDRegistry(time.Minute)
	reg.SetClock(func() time.Time { return clock })

	old, err := reg.Resolve(ctx, "viejo")
	require.NoError(t, err)
	clock = clock.Add(50 * time.Second)
	recent, err := reg.Resolve(ctx, "reciente")
	require.NoError(t, err)

	clock = clock.Add(20 * time.Second)
	again, err := reg.Resolve(ctx, "reciente")
	require.NoError(t, err)
	assert.Equal(t, recent, again)

	renewed, err := reg.Resolve(ctx, "viejo")
	require.NoError(t, err)
	assert.NotEqual(t, old, renewed)
	assert.Equal(t, 2, reg.Len())
}
