package port

import (
	"vision-cam/internal/domain/entity"
)

// InferenceChannel асинхронный канал к изолированному воркеру
type InferenceChannel interface {
	// Submit отправляет запрос через границу воркера и сразу возвращается
	Submit(req entity.InferenceRequest) error

	// Events поток уведомлений started/completed/failed
	Events() <-chan entity.WorkerEvent

	// Terminate останавливает воркер вместе с детектором
	Terminate()

	// Done закрывается, когда детектор освобождён
	Done() <-chan struct{}
}

// ChannelFactory создаёт новый канал воркера (при старте и после сбоя инициализации)
type ChannelFactory func() InferenceChannel
