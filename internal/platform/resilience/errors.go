package resilience

import "github.com/cockroachdb/errors"

// Fetch failure taxonomy. Errors returned by the fetch client are marked with
// exactly one of these and can be classified with errors.Is.
var (
	ErrTransient      = errors.New("transient upstream failure")
	ErrNonRetryable   = errors.New("non-retryable upstream failure")
	ErrCircuitOpen    = errors.New("circuit breaker is open")
	ErrBudgetExceeded = errors.New("request budget exceeded")
)

// IsSkippable reports failures raised before any network attempt. Callers skip
// the affected work for this cycle instead of failing the whole run.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrBudgetExceeded)
}
