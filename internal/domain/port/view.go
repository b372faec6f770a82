package port

import (
	"context"

	"vision-cam/internal/domain/entity"
)

// DetectionView получает каждый новый набор объектов (например, статистика)
type DetectionView interface {
	Update(ctx context.Context, state entity.PipelineState, set entity.DetectionSet) error
}

// SnapshotStore хранилище последнего снимка состояния
type SnapshotStore interface {
	// Save заменяет предыдущий снимок
	Save(ctx context.Context, snapshot *entity.Snapshot) error

	// Latest возвращает последний снимок или nil, если его ещё нет
	Latest(ctx context.Context) (*entity.Snapshot, error)
}

// StatusReader доступ к состоянию конвейера только на чтение
type StatusReader interface {
	State() entity.PipelineState
}
