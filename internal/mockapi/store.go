// Package mockapi implements an in-memory double of the review backend.
//
// The store is an explicitly constructed instance handed to whatever
// consumes it, tests or the `mock serve` command, with a Reset lifecycle
// call between test cases. There is no process-wide singleton.
package mockapi

import (
	"fmt"
	"sync"

	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/shared"
)

// Failure is one scripted error response, consumed in FIFO order before
// any real handling.
type Failure struct {
	Status int
	Code   string
	Retry  bool
}

// Store holds the mock backend's state behind a mutex so a single
// instance can back an HTTP listener.
type Store struct {
	mu sync.Mutex

	assets map[string]*models.Asset
	order  []string

	batches     map[string]*models.BatchReport
	batchPolls  map[string]int
	reportPolls int

	idempotency map[string]string

	flags        map[string]bool
	pollInterval float64

	failures      []Failure
	decisionsMade int
	executeCount  int
	previewCount  int
}

// NewStore creates an empty mock backend store with bulk features
// enabled and a short poll interval.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset restores the store to its initial empty state. Call between
// test cases.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets = make(map[string]*models.Asset)
	s.order = nil
	s.batches = make(map[string]*models.BatchReport)
	s.batchPolls = make(map[string]int)
	s.reportPolls = 0
	s.idempotency = make(map[string]string)
	s.flags = map[string]bool{
		"bulk_decisions": true,
		"batch_moves":    true,
		"purge":          true,
	}
	s.pollInterval = 1
	s.failures = nil
	s.decisionsMade = 0
	s.executeCount = 0
	s.previewCount = 0
}

// SeedAsset inserts an asset, generating an ID when absent.
func (s *Store) SeedAsset(a models.Asset) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.Summary.ID == "" {
		a.Summary.ID = shared.GenerateID()
	}
	if a.Summary.State == "" {
		a.Summary.State = models.DecisionPending
	}
	if _, exists := s.assets[a.Summary.ID]; !exists {
		s.order = append(s.order, a.Summary.ID)
	}
	copied := a
	s.assets[a.Summary.ID] = &copied
	return a.Summary.ID
}

// Seed inserts n pending assets with generated IDs, for quick fixtures.
func (s *Store) Seed(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, s.SeedAsset(models.Asset{
			Summary: models.AssetSummary{
				Title:     fmt.Sprintf("Clip %d", i+1),
				MediaType: "video",
			},
		}))
	}
	return ids
}

// Asset returns a copy of the stored asset.
func (s *Store) Asset(id string) (models.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return models.Asset{}, false
	}
	return *a, true
}

// SetFlags replaces the policy feature flags.
func (s *Store) SetFlags(flags map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = flags
}

// SetPollInterval sets min_poll_interval_seconds in the policy document.
func (s *Store) SetPollInterval(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollInterval = seconds
}

// SetReportPolls makes batch reports stay RUNNING for n polls before
// turning terminal, exercising the report polling loop.
func (s *Store) SetReportPolls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportPolls = n
}

// FailNext scripts failures for the next len(failures) requests,
// regardless of endpoint.
func (s *Store) FailNext(failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failures...)
}

// DecisionsMade reports how many decision state changes were actually
// applied, which stays at one under idempotent retries of the same key.
func (s *Store) DecisionsMade() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decisionsMade
}

// ExecuteCount reports how many batch executions were actually started.
func (s *Store) ExecuteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeCount
}

// PreviewCount reports how many batch previews were served.
func (s *Store) PreviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewCount
}

// nextFailure pops the scripted failure queue.
func (s *Store) nextFailure() (Failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return Failure{}, false
	}
	f := s.failures[0]
	s.failures = s.failures[1:]
	return f, true
}
