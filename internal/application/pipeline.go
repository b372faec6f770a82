package app

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

// BacklogPolicy что делать с тиком, пока запрос ещё в работе
type BacklogPolicy string

const (
	BacklogDrop   BacklogPolicy = "drop"   // тик пропускается целиком
	BacklogLatest BacklogPolicy = "latest" // держим один свежий кадр до освобождения воркера
)

// PipelineConfig параметры цикла выборки
type PipelineConfig struct {
	Interval      time.Duration // период тиков
	Confidence    float32       // порог уверенности
	IoU           float32       // порог IoU
	Backlog       BacklogPolicy
	ReinitBackoff time.Duration // пауза перед пересозданием воркера после сбоя инициализации; 0 отключает
}

// PipelineStats счётчики работы конвейера
type PipelineStats struct {
	Submitted    uint64
	Completed    uint64
	Failed       uint64
	DroppedTicks uint64 // тики, отброшенные пока воркер занят
	SkippedTicks uint64 // тики без кадра или без воркера
}

// Pipeline оркестратор: тики, захват, отправка в воркер, отрисовка результатов.
// Всё состояние меняется только в горутине Run.
type Pipeline struct {
	cfg        PipelineConfig
	source     port.FrameSource
	codec      port.FrameCodec
	newChannel port.ChannelFactory
	renderer   port.OverlayRenderer
	views      []port.DetectionView
	clock      clock.Clock
	logger     *zap.Logger

	mu    sync.RWMutex
	state entity.PipelineState

	// принадлежат горутине Run
	channel  port.InferenceChannel
	inFlight string // ID запроса в работе, пусто в простое
	pending  *entity.Frame
	haltedAt time.Time

	dismiss chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	skipped   atomic.Uint64
}

// NewPipeline собирает оркестратор; воркер создаётся при запуске Run
func NewPipeline(
	cfg PipelineConfig,
	source port.FrameSource,
	codec port.FrameCodec,
	newChannel port.ChannelFactory,
	renderer port.OverlayRenderer,
	clk clock.Clock,
	logger *zap.Logger,
	views ...port.DetectionView,
) *Pipeline {
	if cfg.Backlog == "" {
		cfg.Backlog = BacklogDrop
	}

	return &Pipeline{
		cfg:        cfg,
		source:     source,
		codec:      codec,
		newChannel: newChannel,
		renderer:   renderer,
		views:      views,
		clock:      clk,
		logger:     logger.Named("pipeline"),
		dismiss:    make(chan struct{}, 1),
	}
}

// Run крутит цикл до отмены ctx. Воркер останавливается на любом выходе.
func (p *Pipeline) Run(ctx context.Context) error {
	p.channel = p.newChannel()
	defer p.teardown()

	ticker := p.clock.Ticker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("pipeline started",
		zap.Duration("interval", p.cfg.Interval),
		zap.Float32("confidence", p.cfg.Confidence),
		zap.Float32("iou", p.cfg.IoU),
		zap.String("backlog", string(p.cfg.Backlog)),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped")
			return nil

		case <-ticker.C:
			p.handleTick()

		case ev, ok := <-p.events():
			if !ok {
				p.handleChannelLost()
				continue
			}
			p.handleEvent(ctx, ev)

		case <-p.dismiss:
			p.updateState(func(s *entity.PipelineState) {
				s.Failure = nil
			})
		}
	}
}

// State копия текущего состояния для интерфейса
func (p *Pipeline) State() entity.PipelineState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// DismissError снимает отметку об ошибке (выполняется в цикле)
func (p *Pipeline) DismissError() {
	select {
	case p.dismiss <- struct{}{}:
	default:
	}
}

// Stats текущие счётчики
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Submitted:    p.submitted.Load(),
		Completed:    p.completed.Load(),
		Failed:       p.failed.Load(),
		DroppedTicks: p.dropped.Load(),
		SkippedTicks: p.skipped.Load(),
	}
}

func (p *Pipeline) events() <-chan entity.WorkerEvent {
	if p.channel == nil {
		return nil
	}
	return p.channel.Events()
}

func (p *Pipeline) handleTick() {
	if p.channel == nil && !p.reinit() {
		p.skipped.Inc()
		return
	}

	if p.inFlight != "" {
		p.handleBacklog()
		return
	}

	frame, ok := p.source.Capture()
	if !ok {
		p.logger.Debug("no frame available, skipping tick")
		p.skipped.Inc()
		return
	}

	p.dispatch(frame)
}

// handleBacklog тик пришёл, пока воркер занят
func (p *Pipeline) handleBacklog() {
	if p.cfg.Backlog != BacklogLatest {
		p.dropped.Inc()
		p.logger.Debug("inference in progress, dropping tick")
		return
	}

	frame, ok := p.source.Capture()
	if !ok {
		return
	}
	if p.pending != nil {
		// более свежий кадр вытесняет ждущий
		p.dropped.Inc()
	}
	p.pending = &frame
}

func (p *Pipeline) dispatch(frame entity.Frame) {
	data, err := p.codec.Encode(frame)
	if err != nil {
		p.logger.Warn("failed to encode frame", zap.Error(err))
		p.updateState(func(s *entity.PipelineState) {
			s.Processing = false
			s.Failure = entity.FailureFrom(err)
		})
		return
	}

	req := entity.NewInferenceRequest(data, p.cfg.Confidence, p.cfg.IoU)

	p.updateState(func(s *entity.PipelineState) {
		s.Processing = true
	})

	if err := p.channel.Submit(req); err != nil {
		p.logger.Error("failed to submit frame", zap.Error(err))
		p.updateState(func(s *entity.PipelineState) {
			s.Processing = false
			s.Failure = &entity.Failure{Code: entity.CodeWorker, Message: err.Error()}
		})
		return
	}

	p.inFlight = req.ID
	p.submitted.Inc()
	p.logger.Debug("frame submitted", zap.String("request_id", req.ID), zap.Int("bytes", len(data)))
}

func (p *Pipeline) handleEvent(ctx context.Context, ev entity.WorkerEvent) {
	if p.inFlight == "" || ev.RequestID != p.inFlight {
		p.logger.Warn("ignoring event for unknown request",
			zap.String("kind", string(ev.Kind)),
			zap.String("request_id", ev.RequestID),
		)
		return
	}

	switch ev.Kind {
	case entity.EventStarted:
		p.updateState(func(s *entity.PipelineState) {
			s.Processing = true
			s.Failure = nil
		})

	case entity.EventCompleted:
		p.inFlight = ""
		p.completed.Inc()
		p.updateState(func(s *entity.PipelineState) {
			s.Processing = false
			s.Failure = nil
		})

		width, height := p.source.Size()
		p.renderer.Render(ev.Detections, width, height)

		state := p.State()
		for _, v := range p.views {
			if err := v.Update(ctx, state, ev.Detections); err != nil {
				p.logger.Warn("failed to update view", zap.Error(err))
			}
		}

		p.dispatchPending()

	case entity.EventFailed:
		p.inFlight = ""
		p.failed.Inc()

		failure := ev.Failure
		if failure == nil {
			failure = &entity.Failure{Code: entity.CodeWorker, Message: "unknown worker error"}
		}
		// старая разметка остаётся на экране
		p.updateState(func(s *entity.PipelineState) {
			s.Processing = false
			s.Failure = failure
		})
		p.logger.Warn("inference failed", zap.String("code", string(failure.Code)), zap.String("reason", failure.Message))

		if failure.Fatal() {
			p.halt()
			return
		}
		p.dispatchPending()
	}
}

func (p *Pipeline) dispatchPending() {
	if p.pending == nil {
		return
	}
	frame := *p.pending
	p.pending = nil
	p.dispatch(frame)
}

// halt останавливает непригодный воркер; отметка об ошибке остаётся
func (p *Pipeline) halt() {
	p.channel.Terminate()
	p.channel = nil
	p.pending = nil
	p.haltedAt = p.clock.Now()

	if p.cfg.ReinitBackoff > 0 {
		p.logger.Error("detector unavailable, dispatch halted", zap.Duration("retry_in", p.cfg.ReinitBackoff))
	} else {
		p.logger.Error("detector unavailable, dispatch halted")
	}
}

// reinit пересоздаёт воркер, если пауза после сбоя истекла
func (p *Pipeline) reinit() bool {
	if p.cfg.ReinitBackoff <= 0 {
		return false
	}
	if p.clock.Now().Sub(p.haltedAt) < p.cfg.ReinitBackoff {
		return false
	}

	p.logger.Info("recreating inference worker")
	p.channel = p.newChannel()
	return true
}

// handleChannelLost поток событий закрылся без нашего Terminate
func (p *Pipeline) handleChannelLost() {
	p.logger.Error("inference worker stopped unexpectedly")
	p.channel = nil
	p.inFlight = ""
	p.pending = nil
	p.haltedAt = p.clock.Now()
	p.updateState(func(s *entity.PipelineState) {
		s.Processing = false
		s.Failure = &entity.Failure{Code: entity.CodeWorker, Message: "inference worker stopped"}
	})
}

// teardown останавливает воркер и ждёт освобождения детектора
func (p *Pipeline) teardown() {
	if p.channel != nil {
		p.channel.Terminate()
		<-p.channel.Done()
		p.channel = nil
	}
	p.inFlight = ""
	p.pending = nil
	p.updateState(func(s *entity.PipelineState) {
		s.Processing = false
	})
}

func (p *Pipeline) updateState(fn func(s *entity.PipelineState)) {
	p.mu.Lock()
	fn(&p.state)
	p.mu.Unlock()
}

// Проверка реализации интерфейса
var _ port.StatusReader = (*Pipeline)(nil)
