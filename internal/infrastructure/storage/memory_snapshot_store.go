package storage

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

// MemorySnapshotStore in-memory хранилище последнего снимка.
// История не хранится: каждый Save заменяет предыдущий снимок.
type MemorySnapshotStore struct {
	mu     sync.RWMutex
	latest *entity.Snapshot
}

// NewMemorySnapshotStore создаёт пустое хранилище
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Save заменяет снимок копией переданного
func (s *MemorySnapshotStore) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	cp := cloneSnapshot(snapshot)

	s.mu.Lock()
	s.latest = cp
	s.mu.Unlock()

	return nil
}

// Latest возвращает копию последнего снимка или nil
func (s *MemorySnapshotStore) Latest(ctx context.Context) (*entity.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, nil
	}

	return cloneSnapshot(s.latest), nil
}

// cloneSnapshot глубокая копия: срезы не разделяются с вызывающим
func cloneSnapshot(src *entity.Snapshot) *entity.Snapshot {
	cp := *src
	cp.Overlay = bytes.Clone(src.Overlay)
	cp.Stats.Classes = slices.Clone(src.Stats.Classes)

	if src.Detections != nil {
		cp.Detections = make(entity.DetectionSet, len(src.Detections))
		for i, det := range src.Detections {
			det.Keypoints = slices.Clone(det.Keypoints)
			cp.Detections[i] = det
		}
	}

	if src.State.Failure != nil {
		f := *src.State.Failure
		cp.State.Failure = &f
	}
	return &cp
}

// Проверка реализации интерфейса
var _ port.SnapshotStore = (*MemorySnapshotStore)(nil)
