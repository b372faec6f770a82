package entity

// Box описывает рамку объекта в координатах кадра
type Box struct {
	XMin float64 // левая граница
	YMin float64 // верхняя граница
	XMax float64 // правая граница
	YMax float64 // нижняя граница
}

// Width возвращает ширину рамки
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height возвращает высоту рамки
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// Center возвращает координаты центра рамки
func (b Box) Center() (x, y float64) {
	return b.XMin + b.Width()/2, b.YMin + b.Height()/2
}

// Keypoint ключевая точка объекта (например, сустав позы)
type Keypoint struct {
	X float64
	Y float64
}

// Detection один найденный объект на кадре.
// Создаётся только детектором, остальные части системы его не меняют.
type Detection struct {
	Label      string     // класс объекта
	Box        Box        // рамка
	Confidence float64    // уверенность в диапазоне [0, 1]
	Keypoints  []Keypoint // может быть пустым
}

// HasKeypoints сообщает, есть ли у объекта ключевые точки
func (d Detection) HasKeypoints() bool {
	return len(d.Keypoints) > 0
}

// DetectionSet все объекты, найденные на одном кадре, в порядке детектора.
// Живёт один цикл отрисовки и заменяется следующим.
type DetectionSet []Detection

// Labels возвращает метки в исходном порядке (дубликаты сохраняются)
func (s DetectionSet) Labels() []string {
	labels := make([]string, 0, len(s))
	for _, d := range s {
		labels = append(labels, d.Label)
	}
	return labels
}
