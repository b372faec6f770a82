package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
	"vision-cam/internal/infrastructure/codec"
)

// fakeSource отдаёт кадры по очереди, после последнего повторяет его
// или, с exhaust, больше ничего не отдаёт
type fakeSource struct {
	mu      sync.Mutex
	frames  []entity.Frame
	exhaust bool
	next    int
	calls   int
}

func framesNamed(names ...string) []entity.Frame {
	frames := make([]entity.Frame, 0, len(names))
	for _, n := range names {
		frames = append(frames, entity.Frame{URI: codec.EncodeBytes("image/jpeg", []byte(n)), Width: 640, Height: 480})
	}
	return frames
}

func sequence(prefix string, n int) []entity.Frame {
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("%s-%d", prefix, i))
	}
	return framesNamed(names...)
}

func (s *fakeSource) Capture() (entity.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.frames) == 0 {
		return entity.Frame{}, false
	}
	if s.next == len(s.frames) {
		if s.exhaust {
			return entity.Frame{}, false
		}
		return s.frames[len(s.frames)-1], true
	}
	f := s.frames[s.next]
	s.next++
	return f, true
}

func (s *fakeSource) Size() (int, int) { return 640, 480 }
func (s *fakeSource) Close() error     { return nil }

// fakeChannel записывает запросы; события тест передаёт сам
type fakeChannel struct {
	submits    []entity.InferenceRequest
	events     chan entity.WorkerEvent
	done       chan struct{}
	terminated int
	err        error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		events: make(chan entity.WorkerEvent, 8),
		done:   make(chan struct{}),
	}
}

func (c *fakeChannel) Submit(req entity.InferenceRequest) error {
	if c.err != nil {
		return c.err
	}
	c.submits = append(c.submits, req)
	return nil
}

func (c *fakeChannel) Events() <-chan entity.WorkerEvent { return c.events }
func (c *fakeChannel) Done() <-chan struct{}             { return c.done }

func (c *fakeChannel) Terminate() {
	if c.terminated == 0 {
		close(c.done)
	}
	c.terminated++
}

func (c *fakeChannel) last() entity.InferenceRequest {
	return c.submits[len(c.submits)-1]
}

// recordingRenderer запоминает каждый отрисованный набор
type recordingRenderer struct {
	mu   sync.Mutex
	sets []entity.DetectionSet
	next port.OverlayRenderer
}

func (r *recordingRenderer) Render(set entity.DetectionSet, width, height int) {
	if r.next != nil {
		r.next.Render(set, width, height)
	}

	r.mu.Lock()
	r.sets = append(r.sets, set)
	r.mu.Unlock()
}

func (r *recordingRenderer) rendered() []entity.DetectionSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.DetectionSet(nil), r.sets...)
}

// recordingView запоминает обновления представления
type recordingView struct {
	states []entity.PipelineState
	sets   []entity.DetectionSet
}

func (v *recordingView) Update(ctx context.Context, state entity.PipelineState, set entity.DetectionSet) error {
	v.states = append(v.states, state)
	v.sets = append(v.sets, set)
	return nil
}

type harness struct {
	p        *Pipeline
	source   *fakeSource
	channels []*fakeChannel
	created  int
	renderer *recordingRenderer
	view     *recordingView
	clock    *clock.Mock
}

// newHarness собирает оркестратор с подменёнными портами и «запускает» воркер, как Run
func newHarness(t *testing.T, cfg PipelineConfig, frames []entity.Frame) *harness {
	t.Helper()

	h := &harness{
		source:   &fakeSource{frames: frames},
		renderer: &recordingRenderer{},
		view:     &recordingView{},
		clock:    clock.NewMock(),
	}

	factory := func() port.InferenceChannel {
		ch := newFakeChannel()
		h.channels = append(h.channels, ch)
		h.created++
		return ch
	}

	if cfg.Interval == 0 {
		cfg.Interval = defaultTestInterval
	}
	h.p = NewPipeline(cfg, h.source, codec.NewDataURICodec(), factory, h.renderer, h.clock, zaptest.NewLogger(t), h.view)
	h.p.channel = h.p.newChannel()
	return h
}

func (h *harness) channel() *fakeChannel {
	return h.channels[len(h.channels)-1]
}

func (h *harness) complete(set entity.DetectionSet) {
	h.p.handleEvent(context.Background(), entity.WorkerEvent{Kind: entity.EventCompleted, RequestID: h.p.inFlight, Detections: set})
}

func (h *harness) fail(code entity.ErrorCode, msg string) {
	h.p.handleEvent(context.Background(), entity.WorkerEvent{
		Kind:      entity.EventFailed,
		RequestID: h.p.inFlight,
		Failure:   &entity.Failure{Code: code, Message: msg},
	})
}

const defaultTestInterval = 2 * time.Second
