// Package identity allocates official worker IDs.
//
// The official ID is the public, government-format identifier
// IND-WRK-<CODE>-<YEAR>-<NNNNNN>: CODE is the category code (DLV, AEP, or
// the generic WRK), YEAR is the verification year, NNNNNN a zero-padded
// sequence scoped to that (CODE, YEAR) bucket.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/sentinel"
)

// maxAttempts bounds collision retries. Count-then-construct is not atomic
// across processes, so a candidate can collide; after this many collisions
// the issuance fails explicitly rather than risking a duplicate.
const maxAttempts = 10

// Prefix is the fixed leading segment of every official worker ID.
const Prefix = "IND-WRK"

// Sequencer supplies the persistence queries issuance needs. The worker
// store satisfies it, so issuance runs against the caller's transactional
// handle and observes uncommitted assignments in the same transaction.
type Sequencer interface {
	// CountByPrefix returns how many official IDs start with the prefix.
	CountByPrefix(ctx context.Context, prefix string) (int, error)
	// Exists reports whether the exact official ID is already assigned.
	Exists(ctx context.Context, officialID string) (bool, error)
}

// Issuer allocates official worker IDs with per-(CODE,YEAR) serialization.
// Buckets are independent namespaces; issuance for DLV-2026 never waits on
// AEP-2026.
type Issuer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIssuer() *Issuer {
	return &Issuer{locks: make(map[string]*sync.Mutex)}
}

// BucketPrefix returns the ID prefix for a (category, year) bucket,
// including the trailing dash.
func BucketPrefix(category id.WorkerCategory, year int) string {
	return fmt.Sprintf("%s-%s-%d-", Prefix, category.Code(), year)
}

// Issue allocates the next official ID in the (category, year) bucket and
// hands it to claim, which must persist the assignment before returning.
// The bucket lock is held across allocation and claim, so two in-process
// issuances can never claim the same candidate. A claim that fails with
// sentinel.ErrConflict lost a cross-process race on the unique constraint
// and is retried with the next candidate.
//
// The candidate sequence starts at count+1; after maxAttempts collisions
// issuance fails with an exhausted error rather than risking a duplicate.
func (i *Issuer) Issue(ctx context.Context, seq Sequencer, category id.WorkerCategory, year int, claim func(officialID string) error) (string, error) {
	bucket := i.bucketLock(category.Code(), year)
	bucket.Lock()
	defer bucket.Unlock()

	prefix := BucketPrefix(category, year)
	count, err := seq.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to count issued worker IDs")
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%06d", prefix, count+1+attempt)
		taken, err := seq.Exists(ctx, candidate)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check worker ID availability")
		}
		if taken {
			continue
		}
		if err := claim(candidate); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return "", err
		}
		return candidate, nil
	}

	return "", dErrors.Newf(dErrors.CodeExhausted, "identity issuance exhausted after %d attempts for bucket %s", maxAttempts, prefix)
}

func (i *Issuer) bucketLock(code string, year int) *sync.Mutex {
	key := fmt.Sprintf("%s-%d", code, year)

	i.mu.Lock()
	defer i.mu.Unlock()
	lock, ok := i.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		i.locks[key] = lock
	}
	return lock
}
