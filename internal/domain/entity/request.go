package entity

import (
	"github.com/google/uuid"
)

// InferenceRequest запрос на распознавание одного кадра.
// После создания не меняется, владение передаётся каналу воркера.
type InferenceRequest struct {
	ID         string  // идентификатор для логов, в протоколе не используется для сопоставления
	Image      []byte  // сырые байты изображения
	Confidence float32 // порог уверенности [0, 1]
	IoU        float32 // порог IoU для NMS [0, 1]
}

// NewInferenceRequest создаёт запрос с новым идентификатором
func NewInferenceRequest(image []byte, confidence, iou float32) InferenceRequest {
	return InferenceRequest{
		ID:         uuid.NewString(),
		Image:      image,
		Confidence: confidence,
		IoU:        iou,
	}
}
