package cache

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Override map names. Each work item kind carries two independent
// id-keyed maps: the owner decided by the user and the status decided by
// the user. Absence of a row means "no override"; the remote value stands.
const (
	MapOwner  = "owner"
	MapStatus = "status"
)

// OverrideStore is the durable backup layer for user intent. Values here
// win over freshly fetched remote values at hydration; they are written
// only after a confirmed remote success and removed when the intent is
// undone (release, return to remote-agreed state).
type OverrideStore interface {
	Set(ctx context.Context, kind, mapName, itemID, value string) error
	Clear(ctx context.Context, kind, mapName, itemID string) error
	Map(ctx context.Context, kind, mapName string) (map[string]string, error)
}

type overrideStore struct {
	pool *pgxpool.Pool
}

// NewOverrideStore instantiates the postgres-backed store. A nil pool
// yields a store that reads empty and drops writes, so the gateway keeps
// working remote-only.
func NewOverrideStore(pool *pgxpool.Pool) OverrideStore {
	return &overrideStore{pool: pool}
}

func (s *overrideStore) Set(ctx context.Context, kind, mapName, itemID, value string) error {
	if s.pool == nil {
		return nil
	}
	const query = `
        INSERT INTO item_overrides (kind, map_name, item_id, value, updated_at)
        VALUES ($1,$2,$3,$4,NOW())
        ON CONFLICT (kind, map_name, item_id)
        DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query, kind, mapName, itemID, value)
	return err
}

func (s *overrideStore) Clear(ctx context.Context, kind, mapName, itemID string) error {
	if s.pool == nil {
		return nil
	}
	const query = `DELETE FROM item_overrides WHERE kind=$1 AND map_name=$2 AND item_id=$3`
	_, err := s.pool.Exec(ctx, query, kind, mapName, itemID)
	return err
}

func (s *overrideStore) Map(ctx context.Context, kind, mapName string) (map[string]string, error) {
	result := make(map[string]string)
	if s.pool == nil {
		return result, nil
	}
	const query = `SELECT item_id, value FROM item_overrides WHERE kind=$1 AND map_name=$2`
	rows, err := s.pool.Query(ctx, query, kind, mapName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, value string
		if err := rows.Scan(&itemID, &value); err != nil {
			return nil, err
		}
		result[itemID] = value
	}
	return result, rows.Err()
}
