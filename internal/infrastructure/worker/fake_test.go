package worker

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"vision-cam/internal/domain/port"
)

// fakeDetector детектор для тестов: отвечает по функции run
type fakeDetector struct {
	run    func(ctx context.Context, image []byte) (string, error)
	closed atomic.Bool

	mu     sync.Mutex
	images [][]byte
}

func (d *fakeDetector) Run(ctx context.Context, image []byte, confidence, iou float32) (string, error) {
	d.mu.Lock()
	d.images = append(d.images, image)
	d.mu.Unlock()
	return d.run(ctx, image)
}

func (d *fakeDetector) Close() error {
	d.closed.Store(true)
	return nil
}

func (d *fakeDetector) seen() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.images...)
}

// countingFactory считает вызовы Initialize
type countingFactory struct {
	calls    atomic.Int32
	detector *fakeDetector
	err      error
}

func (f *countingFactory) Initialize() (port.Detector, error) {
	f.calls.Inc()
	if f.err != nil {
		return nil, f.err
	}
	return f.detector, nil
}
