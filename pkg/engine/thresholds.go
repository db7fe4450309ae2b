package engine

import (
	"fmt"
	"time"

	"github.com/hushdisk/hushdisk/pkg/device"
)

// TierThreshold pairs a power tier with the idle duration that makes it
// eligible.
type TierThreshold struct {
	Tier      device.PowerState
	Threshold time.Duration
}

// TierThresholdSet is an ordered list of tier thresholds, strictly
// deepening with strictly increasing thresholds. Construction rejects
// violating configurations.
type TierThresholdSet struct {
	tiers []TierThreshold
}

// NewTierThresholdSet validates and builds a threshold set from entries
// ordered shallowest first.
func NewTierThresholdSet(entries []TierThreshold) (*TierThresholdSet, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("threshold set is empty")
	}
	for i, entry := range entries {
		if entry.Tier == device.Active {
			return nil, fmt.Errorf("ACTIVE cannot carry a threshold")
		}
		if entry.Threshold <= 0 {
			return nil, fmt.Errorf("tier %s has non-positive threshold %v", entry.Tier, entry.Threshold)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if entry.Tier.Depth() <= prev.Tier.Depth() {
			return nil, fmt.Errorf("tier %s does not deepen after %s", entry.Tier, prev.Tier)
		}
		if entry.Threshold <= prev.Threshold {
			return nil, fmt.Errorf("tier %s threshold %v does not increase after %s (%v)",
				entry.Tier, entry.Threshold, prev.Tier, prev.Threshold)
		}
	}

	set := &TierThresholdSet{tiers: make([]TierThreshold, len(entries))}
	copy(set.tiers, entries)
	return set, nil
}

// DefaultThresholds is the stock staging ladder.
func DefaultThresholds() *TierThresholdSet {
	set, err := NewTierThresholdSet([]TierThreshold{
		{Tier: device.IdleA, Threshold: 60 * time.Second},
		{Tier: device.IdleB, Threshold: 10 * time.Minute},
		{Tier: device.IdleC, Threshold: 30 * time.Minute},
		{Tier: device.StandbyZ, Threshold: 60 * time.Minute},
	})
	if err != nil {
		panic(err)
	}
	return set
}

// DeepestFirst returns the entries ordered by decreasing depth, the
// evaluation order of the decision algorithm.
func (s *TierThresholdSet) DeepestFirst() []TierThreshold {
	out := make([]TierThreshold, len(s.tiers))
	for i, entry := range s.tiers {
		out[len(s.tiers)-1-i] = entry
	}
	return out
}

// ShallowestFirst returns the entries in configuration order.
func (s *TierThresholdSet) ShallowestFirst() []TierThreshold {
	out := make([]TierThreshold, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// NextDeeper returns the shallowest entry strictly deeper than current,
// used for the informational holding status.
func (s *TierThresholdSet) NextDeeper(current device.PowerState) (TierThreshold, bool) {
	for _, entry := range s.tiers {
		if entry.Tier.Depth() > current.Depth() {
			return entry, true
		}
	}
	return TierThreshold{}, false
}
