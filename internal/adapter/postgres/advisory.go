package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// advisoryLockSQL blocks until the per-user lock is granted; the lock is
// released automatically at transaction end.
const advisoryLockSQL = `SELECT pg_advisory_xact_lock($1)`

// AcquireUserLock takes a transaction-scoped advisory lock keyed by the
// user ID. Two concurrent admission passes for the same user serialize
// on this lock, so both cannot observe the same free slot. Must be
// called inside a transaction (ctx from TxManager.RunInTx).
func AcquireUserLock(ctx context.Context, q Querier, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, advisoryLockSQL, userLockKey(userID)); err != nil {
		return fmt.Errorf("advisory lock for user %s: %w", userID, err)
	}
	return nil
}

// userLockKey folds a UUID into the int64 keyspace pg_advisory_xact_lock
// expects. Collisions only widen the lock, never narrow it.
func userLockKey(userID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(userID[:]) //nolint:errcheck
	return int64(h.Sum64())
}
