package entity

// Phase фаза конвейера для индикаторов интерфейса
type Phase string

const (
	PhaseIdle       Phase = "idle"       // запросов в работе нет
	PhaseProcessing Phase = "processing" // один запрос в работе
	PhaseError      Phase = "error"      // простой с отметкой об ошибке
)

// PipelineState состояние конвейера.
// Меняет только оркестратор, интерфейс читает копию.
type PipelineState struct {
	Processing bool
	Failure    *Failure // отметка об ошибке, не блокирует следующие тики
}

// Phase возвращает фазу для отображения
func (s PipelineState) Phase() Phase {
	switch {
	case s.Processing:
		return PhaseProcessing
	case s.Failure != nil:
		return PhaseError
	default:
		return PhaseIdle
	}
}

// ErrorMessage возвращает текст ошибки или пустую строку
func (s PipelineState) ErrorMessage() string {
	if s.Failure == nil {
		return ""
	}
	return s.Failure.Message
}
