package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zatca-api/internal/domain/entity"
	"github.com/jhoicas/zatca-api/internal/domain/repository"
)

var _ repository.ChainRepository = (*ChainRepo)(nil)

const lockChainQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

// ChainRepo cabezas de cadena en zatca_chain_heads. LockHead solo tiene sentido dentro de una tx.
type ChainRepo struct {
	q Querier
}

// NewChainRepository construye el adaptador.
func NewChainRepository(q Querier) *ChainRepo {
	return &ChainRepo{q: q}
}

// LockHead serializa la cadena del vendedor con un advisory lock de transacción y lee su cabeza.
// El advisory lock cubre también la primera factura, cuando aún no hay fila que bloquear.
func (r *ChainRepo) LockHead(ctx context.Context, sellerVAT string) (*entity.ChainHead, error) {
	if _, err := r.q.Exec(ctx, lockChainQuery, sellerVAT); err != nil {
		return nil, fmt.Errorf("lock chain: %w", err)
	}
	const query = `
		SELECT seller_vat, sequence, last_hash, updated_at
		FROM zatca_chain_heads WHERE seller_vat = $1
		FOR UPDATE`
	var h entity.ChainHead
	err := r.q.QueryRow(ctx, query, sellerVAT).Scan(&h.SellerVAT, &h.Sequence, &h.LastHash, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock chain head: %w", err)
	}
	return &h, nil
}

// SaveHead inserta o avanza la cabeza de la cadena.
func (r *ChainRepo) SaveHead(ctx context.Context, head *entity.ChainHead) error {
	const query = `
		INSERT INTO zatca_chain_heads (seller_vat, sequence, last_hash, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (seller_vat) DO UPDATE
		SET sequence = EXCLUDED.sequence, last_hash = EXCLUDED.last_hash, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, head.SellerVAT, head.Sequence, head.LastHash, head.UpdatedAt); err != nil {
		return fmt.Errorf("save chain head: %w", err)
	}
	return nil
}
