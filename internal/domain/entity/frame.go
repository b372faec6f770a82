package entity

import "time"

// Frame один снимок с устройства захвата в виде data URI.
// Неизменяем: создаётся источником на каждом тике и потребляется кодеком один раз.
type Frame struct {
	URI        string    // data:image/jpeg;base64,...
	Width      int       // ширина, с которой снят кадр
	Height     int       // высота, с которой снят кадр
	CapturedAt time.Time // момент захвата
}
