package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/requestcontext"
)

// Runner provides a transactional boundary for service-level mutations.
// Implementations wrap a database transaction or, in-memory, a sharded lock.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// SQLRunner runs the callback inside a database transaction carried in
// context, so every store call made through the callback joins it.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	// Nested calls join the ambient transaction instead of opening a new one.
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(WithTx(ctx, dbTx)); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// numShards spreads in-memory transactions across independent locks so
// unrelated callers do not serialize behind each other.
const numShards = 128

// defaultTxTimeout bounds how long an in-memory transaction may run.
const defaultTxTimeout = 5 * time.Second

// MemoryRunner serializes transactions with sharded mutexes, keyed by the
// calling user so operations on the same account are mutually exclusive.
type MemoryRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{timeout: defaultTxTimeout}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	shard := r.selectShard(ctx)
	r.shards[shard].Lock()
	defer r.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func (r *MemoryRunner) selectShard(ctx context.Context) int {
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		return int(fnvHash(userID.String()) % numShards)
	}
	return 0
}

// fnvHash is FNV-1a, chosen for its distribution over short ID strings.
func fnvHash(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
