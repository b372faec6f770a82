package port

import (
	"vision-cam/internal/domain/entity"
)

// FrameSource источник кадров с устройства захвата
type FrameSource interface {
	// Capture возвращает текущий кадр; false, если устройство ещё не дало кадр.
	// Не блокирует вызывающего.
	Capture() (entity.Frame, bool)

	// Size возвращает размер кадра, заданный при создании
	Size() (width, height int)

	// Close освобождает устройство
	Close() error
}

// FrameCodec переводит кадр в сырые байты для передачи воркеру
type FrameCodec interface {
	Encode(frame entity.Frame) ([]byte, error)
}
