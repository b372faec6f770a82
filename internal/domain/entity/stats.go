package entity

import "time"

// ClassCount число объектов одного класса
type ClassCount struct {
	Label string
	Count int
}

// DetectionStats сводка по последнему набору объектов
type DetectionStats struct {
	Total   int          // всего объектов
	Unique  int          // уникальных классов
	Classes []ClassCount // по убыванию количества
}

// Snapshot последнее известное состояние для внешних представлений.
// Хранится только последний снимок, истории нет.
type Snapshot struct {
	State      PipelineState
	Detections DetectionSet
	Stats      DetectionStats
	Overlay    []byte // PNG слоя разметки, может быть пустым
	UpdatedAt  time.Time
}
