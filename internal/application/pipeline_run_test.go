package app

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap/zaptest"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
	"vision-cam/internal/infrastructure/codec"
	"vision-cam/internal/infrastructure/render"
	"vision-cam/internal/infrastructure/worker"
)

// scriptedDetector отвечает по содержимому кадра с заданной задержкой
type scriptedDetector struct {
	delays map[string]time.Duration
	output func(image string) (string, error)
	closed atomic.Bool
}

func (d *scriptedDetector) Run(ctx context.Context, image []byte, confidence, iou float32) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(d.delays[string(image)]):
	}
	return d.output(string(image))
}

func (d *scriptedDetector) Close() error {
	d.closed.Store(true)
	return nil
}

func labelledAs(image string) (string, error) {
	return fmt.Sprintf(`[[%q,{"xmin":1,"ymin":2,"xmax":3,"ymax":4,"confidence":0.9}]]`, image), nil
}

// textCanvas запоминает выведенные подписи
type textCanvas struct {
	mu    sync.Mutex
	texts []string
}

func (c *textCanvas) Reset(width, height int)                            {}
func (c *textCanvas) StrokeRect(r port.Rect, col color.Color, w float64) {}
func (c *textCanvas) FillRect(r port.Rect, col color.Color)              {}
func (c *textCanvas) MeasureText(text string) float64                    { return float64(len(text) * 7) }
func (c *textCanvas) FillCircle(x, y, radius float64, col color.Color)   {}
func (c *textCanvas) FillText(text string, x, y float64, col color.Color) {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()
}

func (c *textCanvas) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

type runHarness struct {
	p        *Pipeline
	clock    *clock.Mock
	renderer *recordingRenderer

	mu       sync.Mutex
	channels []*worker.Channel
}

func startPipeline(t *testing.T, cfg PipelineConfig, frames []entity.Frame, factory port.DetectorFactory, next port.OverlayRenderer) *runHarness {
	t.Helper()

	logger := zaptest.NewLogger(t)
	h := &runHarness{
		clock:    clock.NewMock(),
		renderer: &recordingRenderer{next: next},
	}

	newChannel := func() port.InferenceChannel {
		ch := worker.NewChannel(factory, logger)
		h.mu.Lock()
		h.channels = append(h.channels, ch)
		h.mu.Unlock()
		return ch
	}

	if cfg.Interval == 0 {
		cfg.Interval = defaultTestInterval
	}
	h.p = NewPipeline(cfg, &fakeSource{frames: frames, exhaust: true}, codec.NewDataURICodec(), newChannel, h.renderer, h.clock, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.p.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, ch := range h.channels {
			<-ch.Done()
		}
	})
	return h
}

// tickUntil двигает часы на период, пока не выполнится условие
func (h *runHarness) tickUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if cond() {
			return true
		}
		h.clock.Add(defaultTestInterval)
		return cond()
	}, 5*time.Second, 5*time.Millisecond)
}

func (h *runHarness) channel(i int) *worker.Channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channels[i]
}

// factoryFunc адаптер функции к port.DetectorFactory
type factoryFunc func() (port.Detector, error)

func (f factoryFunc) Initialize() (port.Detector, error) { return f() }

func staticFactory(d port.Detector) port.DetectorFactory {
	return factoryFunc(func() (port.Detector, error) { return d, nil })
}

func TestPipelineRun_PersonScenario(t *testing.T) {
	canvas := &textCanvas{}
	det := &scriptedDetector{output: func(string) (string, error) {
		return `[["person",{"xmin":10,"ymin":10,"xmax":100,"ymax":200,"confidence":0.87,"keypoints":[]}]]`, nil
	}}
	h := startPipeline(t, PipelineConfig{Confidence: 0.5, IoU: 0.5}, framesNamed("frame-1"), staticFactory(det), render.NewOverlay(canvas))

	h.tickUntil(t, func() bool { return len(h.renderer.rendered()) > 0 })

	set := h.renderer.rendered()[0]
	require.Len(t, set, 1)
	require.Equal(t, "person", set[0].Label)
	require.Equal(t, entity.Box{XMin: 10, YMin: 10, XMax: 100, YMax: 200}, set[0].Box)
	require.InDelta(t, 0.87, set[0].Confidence, 1e-6)
	require.Contains(t, canvas.written(), "person 87.0%")
	require.Equal(t, entity.PhaseIdle, h.p.State().Phase())
}

func TestPipelineRun_ResultsRenderInSubmissionOrder(t *testing.T) {
	det := &scriptedDetector{
		delays: map[string]time.Duration{
			"frame-1": 30 * time.Millisecond,
			"frame-3": 15 * time.Millisecond,
			"frame-4": time.Millisecond,
			"frame-5": 10 * time.Millisecond,
		},
		output: labelledAs,
	}
	h := startPipeline(t, PipelineConfig{}, sequence("frame", 5), staticFactory(det), nil)

	h.tickUntil(t, func() bool { return len(h.renderer.rendered()) >= 5 })

	rendered := h.renderer.rendered()
	for i := 0; i < 5; i++ {
		require.Len(t, rendered[i], 1)
		require.Equal(t, fmt.Sprintf("frame-%d", i+1), rendered[i][0].Label)
	}
	require.Zero(t, h.p.Stats().Failed)
}

func TestPipelineRun_RecoversAfterInferenceError(t *testing.T) {
	det := &scriptedDetector{output: func(image string) (string, error) {
		if image == "frame-1" {
			return "", errors.New("boom")
		}
		return labelledAs(image)
	}}
	h := startPipeline(t, PipelineConfig{}, sequence("frame", 2), staticFactory(det), nil)

	h.tickUntil(t, func() bool { return len(h.renderer.rendered()) > 0 })

	require.Equal(t, "frame-2", h.renderer.rendered()[0][0].Label)
	require.Equal(t, uint64(1), h.p.Stats().Failed)
	require.Equal(t, uint64(2), h.p.Stats().Submitted)
	require.Nil(t, h.p.State().Failure)
}

func TestPipelineRun_DismissError(t *testing.T) {
	det := &scriptedDetector{output: func(string) (string, error) { return "not json", nil }}
	h := startPipeline(t, PipelineConfig{}, framesNamed("frame-1"), staticFactory(det), nil)

	h.tickUntil(t, func() bool { return h.p.State().Failure != nil })
	require.Equal(t, entity.CodeDecode, h.p.State().Failure.Code)

	h.p.DismissError()

	require.Eventually(t, func() bool {
		return h.p.State().Failure == nil
	}, time.Second, 5*time.Millisecond)
}

func TestPipelineRun_ModelInitFailureHaltsWorker(t *testing.T) {
	factory := factoryFunc(func() (port.Detector, error) {
		return nil, errors.Wrap(entity.ErrModelInit, "weights not found")
	})
	h := startPipeline(t, PipelineConfig{}, framesNamed("frame-1"), factory, nil)

	h.tickUntil(t, func() bool { return h.p.State().Failure != nil })
	require.Equal(t, entity.CodeModelInit, h.p.State().Failure.Code)

	select {
	case <-h.channel(0).Done():
	case <-time.After(time.Second):
		t.Fatal("worker was not terminated")
	}

	for i := 0; i < 3; i++ {
		h.clock.Add(defaultTestInterval)
	}
	require.Equal(t, uint64(1), h.p.Stats().Submitted)
	require.Equal(t, entity.PhaseError, h.p.State().Phase())
}

func TestPipelineRun_StopReleasesDetector(t *testing.T) {
	det := &scriptedDetector{output: labelledAs}
	mock := clock.NewMock()
	renderer := &recordingRenderer{}
	logger := zaptest.NewLogger(t)

	newChannel := func() port.InferenceChannel {
		return worker.NewChannel(staticFactory(det), logger)
	}
	p := NewPipeline(PipelineConfig{Interval: defaultTestInterval}, &fakeSource{frames: framesNamed("frame-1"), exhaust: true},
		codec.NewDataURICodec(), newChannel, renderer, mock, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(defaultTestInterval)
		return len(renderer.rendered()) > 0
	}, 5*time.Second, 5*time.Millisecond)
	require.False(t, det.closed.Load())

	cancel()
	require.NoError(t, <-done)
	require.True(t, det.closed.Load())
}
