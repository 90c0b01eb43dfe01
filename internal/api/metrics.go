package api

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/AgentShepherd/shellgate/internal/rules"
)

// Metrics counts decisions served by the HTTP surface since start.
type Metrics struct {
	Total   atomic.Int64
	Allowed atomic.Int64
	Blocked atomic.Int64

	mu     sync.Mutex
	byRule map[string]int64
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{byRule: make(map[string]int64)}
}

// Record counts one decision.
func (m *Metrics) Record(res rules.Result) {
	m.Total.Add(1)
	if res.Allowed {
		m.Allowed.Add(1)
		return
	}
	m.Blocked.Add(1)
	rule := res.Rule
	if rule == "" {
		rule = "unknown"
	}
	m.mu.Lock()
	m.byRule[rule]++
	m.mu.Unlock()
}

// RuleCount is the number of blocks attributed to one rule.
type RuleCount struct {
	Rule  string `json:"rule"`
	Count int64  `json:"count"`
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Total     int64       `json:"total"`
	Allowed   int64       `json:"allowed"`
	Blocked   int64       `json:"blocked"`
	BlockRate float64     `json:"block_rate"`
	ByRule    []RuleCount `json:"by_rule"`
}

// Snapshot returns the current counters, blocks sorted by count descending.
func (m *Metrics) Snapshot() Stats {
	s := Stats{
		Total:   m.Total.Load(),
		Allowed: m.Allowed.Load(),
		Blocked: m.Blocked.Load(),
		ByRule:  []RuleCount{},
	}
	if s.Total > 0 {
		s.BlockRate = float64(s.Blocked) / float64(s.Total) * 100
	}

	m.mu.Lock()
	for rule, n := range m.byRule {
		s.ByRule = append(s.ByRule, RuleCount{Rule: rule, Count: n})
	}
	m.mu.Unlock()

	sort.Slice(s.ByRule, func(i, j int) bool {
		if s.ByRule[i].Count != s.ByRule[j].Count {
			return s.ByRule[i].Count > s.ByRule[j].Count
		}
		return s.ByRule[i].Rule < s.ByRule[j].Rule
	})
	return s
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.Total.Store(0)
	m.Allowed.Store(0)
	m.Blocked.Store(0)
	m.mu.Lock()
	m.byRule = make(map[string]int64)
	m.mu.Unlock()
}
