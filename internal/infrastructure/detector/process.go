package detector

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

// ProcessConfig внешняя программа-детектор.
// Получает изображение на stdin, пороги аргументами, печатает набор объектов в stdout.
type ProcessConfig struct {
	Command string
	Args    []string
}

// ProcessFactory создаёт детектор, работающий через внешний процесс
type ProcessFactory struct {
	cfg    ProcessConfig
	logger *zap.Logger
}

// NewProcessFactory создаёт фабрику детектора
func NewProcessFactory(cfg ProcessConfig, logger *zap.Logger) *ProcessFactory {
	return &ProcessFactory{cfg: cfg, logger: logger.Named("detector")}
}

// Initialize проверяет, что программа детектора существует
func (f *ProcessFactory) Initialize() (port.Detector, error) {
	if f.cfg.Command == "" {
		return nil, errors.Wrap(entity.ErrModelInit, "detector command is not configured")
	}

	path, err := exec.LookPath(f.cfg.Command)
	if err != nil {
		return nil, errors.Wrapf(entity.ErrModelInit, "detector command %q: %v", f.cfg.Command, err)
	}

	f.logger.Info("using detector process", zap.String("path", path), zap.Strings("args", f.cfg.Args))

	return &ProcessDetector{
		path:   path,
		args:   append([]string(nil), f.cfg.Args...),
		logger: f.logger,
	}, nil
}

// ProcessDetector запускает программу детектора на каждый кадр
type ProcessDetector struct {
	path   string
	args   []string
	logger *zap.Logger
}

// Run передаёт кадр программе и возвращает её вывод.
// Отмена контекста убивает процесс.
func (d *ProcessDetector) Run(ctx context.Context, image []byte, confidence, iou float32) (string, error) {
	args := append(append([]string(nil), d.args...),
		"--confidence", formatThreshold(confidence),
		"--iou", formatThreshold(iou),
	)

	cmd := exec.CommandContext(ctx, d.path, args...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		d.logger.Debug("detector process failed", zap.Error(err), zap.String("stderr", msg))
		return "", errors.Wrap(entity.ErrInference, msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Close ничего не держит между вызовами
func (d *ProcessDetector) Close() error {
	return nil
}

func formatThreshold(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// Проверка реализации интерфейса
var (
	_ port.DetectorFactory = (*ProcessFactory)(nil)
	_ port.Detector        = (*ProcessDetector)(nil)
)
