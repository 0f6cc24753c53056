package client

import "sync"

// RetryStats tracks retry activity across all operations of one client
// instance. Counters start at zero at construction and are never reset.
// All methods are safe for concurrent use.
type RetryStats struct {
	mu             sync.Mutex
	totalRetries   int
	failedRequests int
	retriedMethods map[string]int
}

func newRetryStats() *RetryStats {
	return &RetryStats{
		retriedMethods: make(map[string]int),
	}
}

// trackRetry records one failed attempt of a retryable fault for the given
// operation name.
func (s *RetryStats) trackRetry(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRetries++
	s.retriedMethods[method]++
}

// trackFailure records one terminal failure surfaced to the caller.
func (s *RetryStats) trackFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedRequests++
}

// RetryStatsSnapshot is a read-only copy of the retry counters.
type RetryStatsSnapshot struct {
	// TotalRetries counts failed attempts of retryable faults across all
	// operations. A call that succeeds after two failures contributes 2;
	// an exhausted call contributes every failed attempt.
	TotalRetries int

	// FailedRequests counts terminal failures surfaced to callers.
	FailedRequests int

	// RetriedMethods maps operation names to their failed-attempt counts.
	RetriedMethods map[string]int
}

// Snapshot returns a consistent copy of the current counters. Mutating the
// returned map does not affect the client's statistics.
func (s *RetryStats) Snapshot() RetryStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods := make(map[string]int, len(s.retriedMethods))
	for method, count := range s.retriedMethods {
		methods[method] = count
	}

	return RetryStatsSnapshot{
		TotalRetries:   s.totalRetries,
		FailedRequests: s.failedRequests,
		RetriedMethods: methods,
	}
}
