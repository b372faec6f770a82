package detector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"vision-cam/internal/domain/entity"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detect.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestProcessDetector_RunsWithThresholds(t *testing.T) {
	script := writeScript(t, `
size=$(wc -c | tr -d ' ')
printf '[["%s",{"xmin":%s,"ymin":0,"xmax":1,"ymax":1,"confidence":%s}]]\n' "$1" "$size" "$3"
`)

	det, err := NewProcessFactory(ProcessConfig{Command: script, Args: []string{"yolo"}}, zaptest.NewLogger(t)).Initialize()
	require.NoError(t, err)
	defer det.Close()

	out, err := det.Run(context.Background(), []byte("12345"), 0.5, 0.45)
	require.NoError(t, err)
	require.Equal(t, `[["yolo",{"xmin":5,"ymin":0,"xmax":1,"ymax":1,"confidence":0.5}]]`, out)
}

func TestProcessDetector_FailureCarriesStderr(t *testing.T) {
	script := writeScript(t, "cat >/dev/null\necho 'out of memory' >&2\nexit 3\n")

	det, err := NewProcessFactory(ProcessConfig{Command: script}, zaptest.NewLogger(t)).Initialize()
	require.NoError(t, err)

	_, err = det.Run(context.Background(), []byte("x"), 0.5, 0.5)
	require.ErrorIs(t, err, entity.ErrInference)
	require.EqualError(t, err, "out of memory: inference failed")
}

func TestProcessFactory_MissingCommandIsModelInitError(t *testing.T) {
	_, err := NewProcessFactory(ProcessConfig{Command: filepath.Join(t.TempDir(), "missing")}, zaptest.NewLogger(t)).Initialize()
	require.Error(t, err)
	require.True(t, errors.Is(err, entity.ErrModelInit))

	_, err = NewProcessFactory(ProcessConfig{}, zaptest.NewLogger(t)).Initialize()
	require.True(t, errors.Is(err, entity.ErrModelInit))
}

func TestFormatThreshold(t *testing.T) {
	require.Equal(t, "0.5", formatThreshold(0.5))
	require.Equal(t, "0.45", formatThreshold(0.45))
	require.Equal(t, "1", formatThreshold(1))
}
