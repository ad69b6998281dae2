// Package propsnapshots persists chain properties snapshots in a WAL so a
// restarted process can serve the last known values before its first refresh.
package propsnapshots

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

const (
	defaultSnapshotDir   = "./wal/props"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 10
	snapshotKey          = "chain_properties"
)

var errNotInitialized = errors.New("chain properties store is not initialized")

// WALStore persists chain properties snapshots in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens or creates the WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "props_",
		SegmentThreshold: snapshotSegmentLimit,
		MaxSegments:      snapshotMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init chain properties WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the snapshot.
func (s *WALStore) Save(props domain.ChainProperties) error {
	if s == nil || s.wal == nil {
		return errNotInitialized
	}
	if props.FetchedAt.IsZero() {
		return errors.New("chain properties snapshot has no fetch time")
	}

	payload, err := json.Marshal(props)
	if err != nil {
		return errors.Wrap(err, "marshal chain properties")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, snapshotKey, payload)
}

// Latest returns the newest snapshot, or false when none was saved.
func (s *WALStore) Latest() (domain.ChainProperties, bool, error) {
	if s == nil || s.wal == nil {
		return domain.ChainProperties{}, false, errNotInitialized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx := s.wal.CurrentIndex(); idx > 0; idx-- {
		props, ok, err := s.get(idx)
		if err != nil {
			return domain.ChainProperties{}, false, err
		}
		if ok {
			return props, true, nil
		}
	}
	return domain.ChainProperties{}, false, nil
}

// SnapshotsAfter returns all snapshots written after the provided WAL index.
func (s *WALStore) SnapshotsAfter(index uint64) ([]domain.ChainPropertiesRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errNotInitialized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.ChainPropertiesRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		props, ok, err := s.get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		records = append(records, domain.ChainPropertiesRecord{Index: idx, Properties: props})
	}

	return records, nil
}

func (s *WALStore) get(idx uint64) (domain.ChainProperties, bool, error) {
	key, payload, getErr := s.wal.Get(idx)
	if getErr != nil || !strings.HasPrefix(key, snapshotKey) {
		return domain.ChainProperties{}, false, nil
	}
	var props domain.ChainProperties
	if err := json.Unmarshal(payload, &props); err != nil {
		return domain.ChainProperties{}, false, errors.Wrapf(err, "decode chain properties at %d", idx)
	}
	return props, true, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
