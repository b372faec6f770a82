package container

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"vision-cam/config"
)

func replayConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.FrameSource = config.SourceReplay
	cfg.ReplayDir = t.TempDir()
	cfg.DetectorCmd = "detect"
	return cfg
}

func TestNew_Replay(t *testing.T) {
	c, err := New(replayConfig(t), clock.NewMock(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, c.Pipeline)
	require.NotNil(t, c.Snapshots)

	w, h := c.Source.Size()
	require.Equal(t, 640, w)
	require.Equal(t, 480, h)

	_, ok := c.Source.Capture()
	require.False(t, ok)

	require.NoError(t, c.Close())
}

func TestNew_UnknownSource(t *testing.T) {
	cfg := replayConfig(t)
	cfg.FrameSource = "usb"

	_, err := New(cfg, clock.NewMock(), zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestNew_UnknownCanvasReleasesSource(t *testing.T) {
	cfg := replayConfig(t)
	cfg.OverlayCanvas = "svg"

	_, err := New(cfg, clock.NewMock(), zaptest.NewLogger(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown overlay canvas "svg"`)
}

func TestNew_DefaultCameraSource(t *testing.T) {
	cfg := config.Default()
	cfg.DetectorCmd = "true"
	require.NoError(t, cfg.Validate())

	c, err := New(cfg, clock.NewMock(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, c.Pipeline)

	w, h := c.Source.Size()
	require.Equal(t, 640, w)
	require.Equal(t, 480, h)
	require.NoError(t, c.Close())
}
