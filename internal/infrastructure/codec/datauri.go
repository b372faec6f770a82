package codec

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

const jpegMediaType = "image/jpeg"

// DataURICodec декодирует кадры вида data:<mime>;base64,<payload>
type DataURICodec struct{}

// NewDataURICodec создаёт кодек
func NewDataURICodec() *DataURICodec {
	return &DataURICodec{}
}

// Encode возвращает байты изображения из data URI кадра.
// Кадр не от источника (битый URI) даёт ошибку ErrCodec.
func (c *DataURICodec) Encode(frame entity.Frame) ([]byte, error) {
	header, payload, ok := strings.Cut(frame.URI, ",")
	if !ok {
		return nil, errors.Wrap(entity.ErrCodec, "missing data uri separator")
	}
	if !strings.HasPrefix(header, "data:") {
		return nil, errors.Wrap(entity.ErrCodec, "missing data: scheme")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, errors.Wrap(entity.ErrCodec, "payload is not base64")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrapf(entity.ErrCodec, "decode payload: %v", err)
	}
	if len(data) == 0 {
		return nil, errors.Wrap(entity.ErrCodec, "empty payload")
	}

	return data, nil
}

// EncodeImage кодирует изображение в JPEG и упаковывает в data URI
func EncodeImage(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", errors.Wrap(err, "encode jpeg")
	}
	return EncodeBytes(jpegMediaType, buf.Bytes()), nil
}

// EncodeBytes упаковывает уже закодированное изображение в data URI
func EncodeBytes(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Проверка реализации интерфейса
var _ port.FrameCodec = (*DataURICodec)(nil)
