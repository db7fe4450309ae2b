// Package store persists per-device idle bookkeeping across daemon
// restarts as a single JSON document on disk.
package store

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/diskstats"
)

// record is the on-disk shape of one device's bookkeeping. The last
// check time is a fractional unix timestamp in seconds.
type record struct {
	TimeLastCheck          float64 `json:"time_last_check"`
	CurrentReadsCompleted  uint64  `json:"current_reads_completed"`
	CurrentWritesCompleted uint64  `json:"current_writes_completed"`
}

// Store reads and writes the idle-state file. A missing or corrupt file
// is never fatal, devices simply start a fresh idle run.
type Store struct {
	mutex sync.Mutex
	path  string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file and returns the per-device records it could
// decode. Undecodable entries are dropped individually so one corrupt
// record does not discard the rest.
func (s *Store) Load() map[string]diskstats.Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make(map[string]diskstats.Record)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("path", s.path).Warn("Failed to read idle-state file, starting fresh")
		}
		return out
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).WithField("path", s.path).Warn("Failed to decode idle-state file, starting fresh")
		return out
	}

	for name, blob := range raw {
		var rec record
		if err := json.Unmarshal(blob, &rec); err != nil {
			log.WithError(err).WithField("device", name).Warn("Dropping undecodable idle-state record")
			continue
		}
		sec, frac := math.Modf(rec.TimeLastCheck)
		out[name] = diskstats.Record{
			LastCheck:       time.Unix(int64(sec), int64(frac*float64(time.Second))),
			ReadsCompleted:  rec.CurrentReadsCompleted,
			WritesCompleted: rec.CurrentWritesCompleted,
		}
	}
	return out
}

// Save atomically replaces the state file with the given snapshot. The
// document is written to a temporary file in the same directory and
// renamed into place so a crash mid-write never truncates prior state.
func (s *Store) Save(snapshot map[string]diskstats.Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc := make(map[string]record, len(snapshot))
	for name, rec := range snapshot {
		doc[name] = record{
			TimeLastCheck:          float64(rec.LastCheck.UnixNano()) / float64(time.Second),
			CurrentReadsCompleted:  rec.ReadsCompleted,
			CurrentWritesCompleted: rec.WritesCompleted,
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
