package worker

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
)

// Статусы ответов воркера
const (
	statusRunning  = "running"
	statusComplete = "complete"
)

const msgParseFailed = "failed to parse detection results"

// requestMessage то, что пересекает границу воркера в сторону детектора.
// Байты кадра копируются, общей памяти с отправителем нет.
type requestMessage struct {
	RequestID    string
	ImageData    []byte
	Confidence   float32
	IoUThreshold float32
}

// responseMessage ответ воркера: running, complete с выводом или error
type responseMessage struct {
	RequestID string
	Status    string
	Output    string
	Error     string
	Code      entity.ErrorCode
}

func newRequestMessage(req entity.InferenceRequest) requestMessage {
	data := make([]byte, len(req.Image))
	copy(data, req.Image)

	return requestMessage{
		RequestID:    req.ID,
		ImageData:    data,
		Confidence:   req.Confidence,
		IoUThreshold: req.IoU,
	}
}

// wireBox объект ответа детектора; указатели отличают отсутствие поля от нуля
type wireBox struct {
	XMin       *float64       `json:"xmin"`
	YMin       *float64       `json:"ymin"`
	XMax       *float64       `json:"xmax"`
	YMax       *float64       `json:"ymax"`
	Confidence *float64       `json:"confidence"`
	Keypoints  []wireKeypoint `json:"keypoints"`
}

type wireKeypoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// DecodeDetections разбирает вывод детектора: массив пар [label, box].
// Битые элементы отбрасываются с предупреждением, нечитаемый массив целиком даёт ошибку.
func DecodeDetections(output string, logger *zap.Logger) (entity.DetectionSet, error) {
	var pairs []json.RawMessage
	if err := json.Unmarshal([]byte(output), &pairs); err != nil {
		return nil, errors.Wrap(err, "decode detection list")
	}

	set := make(entity.DetectionSet, 0, len(pairs))
	for i, raw := range pairs {
		det, err := decodeDetection(raw)
		if err != nil {
			logger.Warn("dropping malformed detection", zap.Int("index", i), zap.Error(err))
			continue
		}
		set = append(set, det)
	}

	return set, nil
}

func decodeDetection(raw json.RawMessage) (entity.Detection, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return entity.Detection{}, errors.Wrap(err, "entry is not a pair")
	}
	if len(pair) != 2 {
		return entity.Detection{}, errors.Errorf("entry has %d elements, want 2", len(pair))
	}

	var label string
	if err := json.Unmarshal(pair[0], &label); err != nil {
		return entity.Detection{}, errors.Wrap(err, "label is not a string")
	}
	if label == "" {
		return entity.Detection{}, errors.New("empty label")
	}

	var box wireBox
	if err := json.Unmarshal(pair[1], &box); err != nil {
		return entity.Detection{}, errors.Wrap(err, "box is not an object")
	}

	fields := []*float64{box.XMin, box.YMin, box.XMax, box.YMax, box.Confidence}
	for _, f := range fields {
		if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
			return entity.Detection{}, errors.New("box field missing or not finite")
		}
	}
	if *box.XMax < *box.XMin || *box.YMax < *box.YMin {
		return entity.Detection{}, errors.New("box corners are inverted")
	}
	if *box.Confidence < 0 || *box.Confidence > 1 {
		return entity.Detection{}, errors.Errorf("confidence %v out of range", *box.Confidence)
	}

	keypoints := make([]entity.Keypoint, 0, len(box.Keypoints))
	for _, kp := range box.Keypoints {
		if kp.X == nil || kp.Y == nil {
			return entity.Detection{}, errors.New("keypoint without coordinates")
		}
		keypoints = append(keypoints, entity.Keypoint{X: *kp.X, Y: *kp.Y})
	}

	return entity.Detection{
		Label:      label,
		Box:        entity.Box{XMin: *box.XMin, YMin: *box.YMin, XMax: *box.XMax, YMax: *box.YMax},
		Confidence: *box.Confidence,
		Keypoints:  keypoints,
	}, nil
}

// toEvent переводит ответ воркера в уведомление для оркестратора
func toEvent(resp responseMessage, logger *zap.Logger) entity.WorkerEvent {
	if resp.Error != "" {
		code := resp.Code
		if code == "" {
			code = entity.CodeWorker
		}
		return entity.WorkerEvent{
			Kind:      entity.EventFailed,
			RequestID: resp.RequestID,
			Failure:   &entity.Failure{Code: code, Message: resp.Error},
		}
	}

	switch resp.Status {
	case statusRunning:
		return entity.WorkerEvent{Kind: entity.EventStarted, RequestID: resp.RequestID}

	case statusComplete:
		set, err := DecodeDetections(resp.Output, logger)
		if err != nil {
			logger.Error("error parsing detections", zap.Error(err))
			return entity.WorkerEvent{
				Kind:      entity.EventFailed,
				RequestID: resp.RequestID,
				Failure:   &entity.Failure{Code: entity.CodeDecode, Message: msgParseFailed},
			}
		}
		return entity.WorkerEvent{Kind: entity.EventCompleted, RequestID: resp.RequestID, Detections: set}

	default:
		return entity.WorkerEvent{
			Kind:      entity.EventFailed,
			RequestID: resp.RequestID,
			Failure:   &entity.Failure{Code: entity.CodeWorker, Message: "unknown worker status " + resp.Status},
		}
	}
}
