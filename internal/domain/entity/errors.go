package entity

import (
	"github.com/pkg/errors"
)

// Ошибки конвейера, по которым классифицируются сбои.
var (
	ErrCodec     = errors.New("malformed frame encoding")
	ErrModelInit = errors.New("detector initialization failed")
	ErrInference = errors.New("inference failed")
)

// ErrorCode структурированный код сбоя, передаётся через границу воркера вместе с сообщением
type ErrorCode string

const (
	CodeCodec     ErrorCode = "codec"      // кадр не удалось декодировать
	CodeModelInit ErrorCode = "model_init" // детектор не создан, канал непригоден
	CodeInference ErrorCode = "inference"  // детектор упал на одном вызове
	CodeWorker    ErrorCode = "worker"     // сбой самого воркера
	CodeDecode    ErrorCode = "decode"     // ответ детектора не разобран
)

// Failure сбой, показываемый пользователю
type Failure struct {
	Code    ErrorCode
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Fatal сообщает, что канал воркера после этого сбоя непригоден
func (f *Failure) Fatal() bool {
	return f.Code == CodeModelInit
}

// FailureFrom переводит ошибку в Failure с подходящим кодом
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	code := CodeWorker
	switch {
	case errors.Is(err, ErrCodec):
		code = CodeCodec
	case errors.Is(err, ErrModelInit):
		code = CodeModelInit
	case errors.Is(err, ErrInference):
		code = CodeInference
	}

	return &Failure{Code: code, Message: err.Error()}
}
