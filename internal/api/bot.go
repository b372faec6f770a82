package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	app "vision-cam/internal/application"
	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я показываю, что сейчас видит камера.

📋 Команды:
/status — состояние распознавания
/stats — объекты в последнем кадре
/snapshot — последняя разметка
/dismiss — снять отметку об ошибке
/help — справка`

	msgHelp = `ℹ️ Камера снимает кадр раз в несколько секунд и отправляет его детектору.
Пока кадр распознаётся, новые не отправляются.

📋 Команды:
/status — состояние и счётчики
/stats — сколько объектов каждого класса найдено
/snapshot — картинка с рамками объектов
/dismiss — снять отметку об ошибке`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgNotCommand     = "📋 Я понимаю только команды. Используйте /help для справки."
	msgNoResults      = "🕐 Результатов распознавания пока нет."
	msgNoObjects      = "✅ Объекты не обнаружены."
	msgNoOverlay      = "🕐 Разметки пока нет."
	msgDismissed      = "👌 Отметка об ошибке снята."
	msgStoreError     = "⚠️ Не удалось получить последний результат."

	statusIdle       = "🟢 Ожидание"
	statusProcessing = "⏳ Распознавание..."
	statusError      = "⚠️ Ошибка"
)

// Controller то, что бот читает и меняет в конвейере
type Controller interface {
	port.StatusReader
	Stats() app.PipelineStats
	DismissError()
}

// Bot представляет Telegram-бота только для просмотра состояния
type Bot struct {
	api       *tgbotapi.BotAPI
	control   Controller
	snapshots port.SnapshotStore
	logger    *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, control Controller, snapshots port.SnapshotStore, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "connect to telegram")
	}

	logger = logger.Named("telegram")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:       api,
		control:   control,
		snapshots: snapshots,
		logger:    logger,
	}, nil
}

// Run обрабатывает сообщения до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgNotCommand))
		return
	}

	b.send(b.reply(ctx, msg.Chat.ID, msg.Command()))
}

// reply строит ответ на команду
func (b *Bot) reply(ctx context.Context, chatID int64, command string) tgbotapi.Chattable {
	switch command {
	case "start":
		return tgbotapi.NewMessage(chatID, msgStart)

	case "help":
		return tgbotapi.NewMessage(chatID, msgHelp)

	case "status":
		return tgbotapi.NewMessage(chatID, formatStatus(b.control.State(), b.control.Stats()))

	case "stats":
		snap, err := b.snapshots.Latest(ctx)
		if err != nil {
			b.logger.Warn("failed to load snapshot", zap.Error(err))
			return tgbotapi.NewMessage(chatID, msgStoreError)
		}
		if snap == nil {
			return tgbotapi.NewMessage(chatID, msgNoResults)
		}
		return tgbotapi.NewMessage(chatID, formatStats(snap.Stats))

	case "snapshot":
		snap, err := b.snapshots.Latest(ctx)
		if err != nil {
			b.logger.Warn("failed to load snapshot", zap.Error(err))
			return tgbotapi.NewMessage(chatID, msgStoreError)
		}
		if snap == nil || len(snap.Overlay) == 0 {
			return tgbotapi.NewMessage(chatID, msgNoOverlay)
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "overlay.png", Bytes: snap.Overlay})
		photo.Caption = formatStats(snap.Stats)
		return photo

	case "dismiss":
		b.control.DismissError()
		return tgbotapi.NewMessage(chatID, msgDismissed)

	default:
		return tgbotapi.NewMessage(chatID, msgUnknownCommand)
	}
}

// send отправляет ответ
func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
	}
}

func formatStatus(state entity.PipelineState, stats app.PipelineStats) string {
	var sb strings.Builder

	switch state.Phase() {
	case entity.PhaseProcessing:
		sb.WriteString(statusProcessing)
	case entity.PhaseError:
		fmt.Fprintf(&sb, "%s: %s", statusError, state.ErrorMessage())
	default:
		sb.WriteString(statusIdle)
	}

	fmt.Fprintf(&sb, "\n\nОтправлено кадров: %d\nРаспознано: %d\nОшибок: %d\nПропущено тиков: %d",
		stats.Submitted, stats.Completed, stats.Failed, stats.DroppedTicks+stats.SkippedTicks)
	return sb.String()
}

func formatStats(stats entity.DetectionStats) string {
	if stats.Total == 0 {
		return msgNoObjects
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Объектов: %d, классов: %d", stats.Total, stats.Unique)
	for _, c := range stats.Classes {
		fmt.Fprintf(&sb, "\n• %s — %d", c.Label, c.Count)
	}
	return sb.String()
}
