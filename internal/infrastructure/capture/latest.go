package capture

import (
	"sync"

	"vision-cam/internal/domain/entity"
)

// latestFrame последний готовый кадр; запись из цикла чтения, чтение из Capture
type latestFrame struct {
	mu    sync.RWMutex
	frame entity.Frame
	ok    bool
}

func (l *latestFrame) store(frame entity.Frame) {
	l.mu.Lock()
	l.frame = frame
	l.ok = true
	l.mu.Unlock()
}

func (l *latestFrame) load() (entity.Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.ok
}
