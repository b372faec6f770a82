package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

var (
	// ErrChannelClosed канал уже остановлен
	ErrChannelClosed = errors.New("inference channel is terminated")
	// ErrChannelBusy в канале уже ждёт необработанный запрос
	ErrChannelBusy = errors.New("inference channel already has a queued request")
)

// Channel изолированный воркер с единственным детектором.
// Детектор создаётся лениво при первом запросе и живёт до Terminate.
// С воркером общаемся только сообщениями.
type Channel struct {
	factory port.DetectorFactory
	logger  *zap.Logger

	inbox  chan requestMessage
	outbox chan responseMessage
	events chan entity.WorkerEvent

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewChannel запускает воркер; детектор при этом ещё не создаётся
func NewChannel(factory port.DetectorFactory, logger *zap.Logger) *Channel {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Channel{
		factory: factory,
		logger:  logger.Named("worker"),
		inbox:   make(chan requestMessage, 1),
		outbox:  make(chan responseMessage),
		events:  make(chan entity.WorkerEvent, 4),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go c.serve()
	go c.relay()

	return c
}

// Submit передаёт запрос воркеру, не дожидаясь результата
func (c *Channel) Submit(req entity.InferenceRequest) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}

	msg := newRequestMessage(req)

	select {
	case <-c.ctx.Done():
		return ErrChannelClosed
	case c.inbox <- msg:
		return nil
	default:
		return ErrChannelBusy
	}
}

// Events поток уведомлений; закрывается после Terminate
func (c *Channel) Events() <-chan entity.WorkerEvent {
	return c.events
}

// Terminate останавливает воркер. Текущий вызов детектора получает
// отменённый контекст, его результат отбрасывается.
func (c *Channel) Terminate() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		c.logger.Debug("worker terminated")
	})
}

// Done закрывается, когда воркер завершился и детектор освобождён
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// serve цикл изолированного воркера, единственный владелец детектора
func (c *Channel) serve() {
	defer close(c.done)

	var (
		detector    port.Detector
		initialized bool
		initErr     error
	)

	defer func() {
		if detector == nil {
			return
		}
		if err := detector.Close(); err != nil {
			c.logger.Warn("error closing detector", zap.Error(err))
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case msg := <-c.inbox:
			c.post(responseMessage{RequestID: msg.RequestID, Status: statusRunning})

			if !initialized {
				initialized = true
				detector, initErr = c.initialize()
				if initErr != nil {
					c.logger.Error("failed to initialize detector", zap.Error(initErr))
				} else {
					c.logger.Info("detector initialized")
				}
			}
			if initErr != nil {
				c.post(failureMessage(msg.RequestID, entity.CodeModelInit, initErr.Error()))
				continue
			}

			output, failure := c.run(detector, msg)
			if c.ctx.Err() != nil {
				return
			}
			if failure != nil {
				c.post(failureMessage(msg.RequestID, failure.Code, failure.Message))
				continue
			}

			c.post(responseMessage{RequestID: msg.RequestID, Status: statusComplete, Output: output})
		}
	}
}

func (c *Channel) initialize() (detector port.Detector, err error) {
	defer func() {
		if r := recover(); r != nil {
			detector, err = nil, errors.Wrapf(entity.ErrModelInit, "panic: %v", r)
		}
	}()

	detector, err = c.factory.Initialize()
	if err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, errors.Wrap(entity.ErrModelInit, "factory returned no detector")
	}
	return detector, nil
}

func (c *Channel) run(detector port.Detector, msg requestMessage) (output string, failure *entity.Failure) {
	defer func() {
		if r := recover(); r != nil {
			output, failure = "", &entity.Failure{Code: entity.CodeWorker, Message: fmt.Sprintf("worker panic: %v", r)}
		}
	}()

	c.logger.Debug("running inference", zap.String("request_id", msg.RequestID), zap.Int("bytes", len(msg.ImageData)))

	output, err := detector.Run(c.ctx, msg.ImageData, msg.Confidence, msg.IoUThreshold)
	if err != nil {
		return "", &entity.Failure{Code: entity.CodeInference, Message: err.Error()}
	}
	return output, nil
}

// post отправляет ответ на сторону хоста
func (c *Channel) post(resp responseMessage) {
	select {
	case c.outbox <- resp:
	case <-c.ctx.Done():
	}
}

// relay сторона хоста: разбирает ответы воркера в уведомления
func (c *Channel) relay() {
	defer close(c.events)

	for {
		select {
		case <-c.ctx.Done():
			return
		case resp := <-c.outbox:
			ev := toEvent(resp, c.logger)
			select {
			case c.events <- ev:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func failureMessage(requestID string, code entity.ErrorCode, message string) responseMessage {
	return responseMessage{RequestID: requestID, Error: message, Code: code}
}

// Проверка реализации интерфейса
var _ port.InferenceChannel = (*Channel)(nil)
