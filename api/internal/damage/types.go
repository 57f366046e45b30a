package damage

import "time"

// Source: откуда взят результат детекции
type Source string

const (
	SourceGemini             Source = "gemini"
	SourceGeminiError        Source = "gemini_error"
	SourceSimulation         Source = "simulation"
	SourceSimulationFallback Source = "simulation_fallback"
)

// Damage: одно найденное повреждение.
// Box2D: [ymin, xmin, ymax, xmax], шкала 0..1000.
type Damage struct {
	Label string    `json:"label"`
	Box2D []float64 `json:"box_2d"`
	Score float64   `json:"score"`
}

// Result: ответ /detect. Damages никогда не nil.
type Result struct {
	Damages   []Damage `json:"damages"`
	Source    Source   `json:"source"`
	Model     string   `json:"model,omitempty"`
	Error     string   `json:"error,omitempty"`
	Raw       string   `json:"raw,omitempty"`
	DebugInfo string   `json:"debug_info,omitempty"`
}

// Valid проверяет координаты и score.
func (d Damage) Valid() bool {
	if len(d.Box2D) != 4 {
		return false
	}
	for _, v := range d.Box2D {
		if v < 0 || v > 1000 {
			return false
		}
	}
	ymin, xmin, ymax, xmax := d.Box2D[0], d.Box2D[1], d.Box2D[2], d.Box2D[3]
	return ymin < ymax && xmin < xmax && d.Score >= 0 && d.Score <= 1
}

// Record: одна детекция для аудита (store).
type Record struct {
	ID             string
	CreatedAt      time.Time
	Channel        string // "http" | "telegram"
	ChatID         int64
	RequestedModel string
	Result         Result
}
