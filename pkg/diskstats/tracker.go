package diskstats

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Record is a device's idle bookkeeping: when activity was last seen and
// the counter values at that moment. It is what survives restarts.
type Record struct {
	LastCheck       time.Time
	ReadsCompleted  uint64
	WritesCompleted uint64
}

// Tracker derives monotonic idle durations per device from the counter
// source. The last-check timestamp advances whenever reads or writes
// increase, or whenever requests are in flight.
type Tracker struct {
	source  Source
	now     func() time.Time
	devices map[string]*Record
}

func NewTracker(source Source) *Tracker {
	return &Tracker{
		source:  source,
		now:     time.Now,
		devices: make(map[string]*Record),
	}
}

// Seed primes a device's bookkeeping, typically from the persistence
// store, so idle time survives a process restart. An unseeded device is
// treated as idle since first observation.
func (t *Tracker) Seed(name string, record Record) {
	t.devices[name] = &Record{
		LastCheck:       record.LastCheck,
		ReadsCompleted:  record.ReadsCompleted,
		WritesCompleted: record.WritesCompleted,
	}
}

// Forget drops a device's bookkeeping, e.g. after hot-removal.
func (t *Tracker) Forget(name string) {
	delete(t.devices, name)
}

// Update reads the device's counters and returns the start of its
// current idle run. Schema mismatches and read failures propagate so the
// caller can exclude the device for the cycle.
func (t *Tracker) Update(name string) (time.Time, error) {
	counters, err := t.source.ReadCounters(name)
	if err != nil {
		return time.Time{}, err
	}

	now := t.now()
	record, ok := t.devices[name]
	if !ok {
		record = &Record{LastCheck: now}
		t.devices[name] = record
	}

	active := counters.ReadsCompleted > record.ReadsCompleted ||
		counters.WritesCompleted > record.WritesCompleted ||
		counters.IOsInProgress != 0
	if active {
		log.WithFields(log.Fields{
			"device": name,
			"reads":  counters.ReadsCompleted,
			"writes": counters.WritesCompleted,
		}).Debug("Device activity observed")
		record.LastCheck = now
	}

	record.ReadsCompleted = counters.ReadsCompleted
	record.WritesCompleted = counters.WritesCompleted

	return record.LastCheck, nil
}

// IdleSince returns the recorded idle-run start without touching the
// source.
func (t *Tracker) IdleSince(name string) (time.Time, bool) {
	record, ok := t.devices[name]
	if !ok {
		return time.Time{}, false
	}
	return record.LastCheck, true
}

// Snapshot exports every device's bookkeeping for persistence. It is
// idempotent and safe to call at any point between cycles.
func (t *Tracker) Snapshot() map[string]Record {
	out := make(map[string]Record, len(t.devices))
	for name, record := range t.devices {
		out[name] = *record
	}
	return out
}
