//go:build !gocv
// +build !gocv

package capture

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCamera_WithoutGocvStaysEmpty(t *testing.T) {
	cam, err := NewCamera(CameraConfig{Width: 640, Height: 480, JPEGQuality: 92}, clock.NewMock(), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, ok := cam.Capture()
	require.False(t, ok)

	w, h := cam.Size()
	require.Equal(t, 640, w)
	require.Equal(t, 480, h)
	require.NoError(t, cam.Close())
}

func TestCamera_RejectsInvalidSize(t *testing.T) {
	_, err := NewCamera(CameraConfig{Width: 0, Height: 480}, clock.NewMock(), zaptest.NewLogger(t))
	require.Error(t, err)
}
