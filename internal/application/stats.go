package app

import (
	"context"
	"sort"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

// Summarize считает объекты по классам
func Summarize(set entity.DetectionSet) entity.DetectionStats {
	counts := lo.CountValues(set.Labels())

	classes := lo.MapToSlice(counts, func(label string, n int) entity.ClassCount {
		return entity.ClassCount{Label: label, Count: n}
	})
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Count != classes[j].Count {
			return classes[i].Count > classes[j].Count
		}
		return classes[i].Label < classes[j].Label
	})

	return entity.DetectionStats{
		Total:   len(set),
		Unique:  len(counts),
		Classes: classes,
	}
}

// StatsView обновляет снимок статистики после каждого набора объектов
type StatsView struct {
	store   port.SnapshotStore
	overlay port.OverlayExporter
	clock   clock.Clock
	logger  *zap.Logger
}

// NewStatsView создаёт представление; overlay может быть nil
func NewStatsView(store port.SnapshotStore, overlay port.OverlayExporter, clk clock.Clock, logger *zap.Logger) *StatsView {
	return &StatsView{
		store:   store,
		overlay: overlay,
		clock:   clk,
		logger:  logger.Named("stats"),
	}
}

// Update сохраняет новый снимок, заменяя предыдущий
func (v *StatsView) Update(ctx context.Context, state entity.PipelineState, set entity.DetectionSet) error {
	snap := &entity.Snapshot{
		State:      state,
		Detections: set,
		Stats:      Summarize(set),
		UpdatedAt:  v.clock.Now(),
	}

	if v.overlay != nil {
		png, err := v.overlay.ExportPNG()
		if err != nil {
			// снимок без картинки всё равно полезен
			v.logger.Warn("failed to export overlay", zap.Error(err))
		} else {
			snap.Overlay = png
		}
	}

	v.logger.Debug("detections updated", zap.Int("total", snap.Stats.Total), zap.Int("unique", snap.Stats.Unique))
	return v.store.Save(ctx, snap)
}

// Проверка реализации интерфейса
var _ port.DetectionView = (*StatsView)(nil)
