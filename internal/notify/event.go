// Package notify emits a tamper-evident run event after each sync run,
// to an HTTP endpoint, a local audit directory, or nowhere.
package notify

import (
	"time"
)

// RunEvent describes the outcome of one sync run for the audit trail.
type RunEvent struct {
	Version   string    `json:"version"`
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	Run      RunInfo      `json:"run"`
	Counts   CountInfo    `json:"counts"`
	Producer ProducerInfo `json:"producer"`
	Chain    ChainInfo    `json:"chain"`
}

// RunInfo identifies the run being audited.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	OwnerID    string    `json:"owner_id"`
	ScrapeDate time.Time `json:"scrape_date"`
	StartedAt  time.Time `json:"started_at"`
	Duration   string    `json:"duration"`
}

// CountInfo carries the run's reconciliation tallies.
type CountInfo struct {
	Records  int `json:"records"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Flagged  int `json:"flagged"`
	Failed   int `json:"failed"`
}

// ProducerInfo identifies the software that produced the event.
type ProducerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	GitSHA  string `json:"git_sha"`
}

// ChainInfo provides hash chaining for a tamper-evident audit log.
type ChainInfo struct {
	PrevEventHash string `json:"prev_event_hash"`
	EventHash     string `json:"event_hash"`
}

// ChainKey returns the unique key for this run's chain. Each owner has
// its own chain.
func (r RunInfo) ChainKey() string {
	return r.OwnerID
}

// SetChainHashes links the event to its predecessor and seals it with
// its own hash.
func (e *RunEvent) SetChainHashes(prevHash string) {
	e.Chain.PrevEventHash = prevHash
	e.Chain.EventHash = ComputeEventHash(e)
}
