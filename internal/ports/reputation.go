package ports

import "context"

// ReputationService is the external URL reputation lookup. The contract is
// best-effort: callers treat any error as "not malicious" (fail-open) and the
// implementation must honor context cancellation.
type ReputationService interface {
	Lookup(ctx context.Context, url string) (malicious bool, err error)
}
