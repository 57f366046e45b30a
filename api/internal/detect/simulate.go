package detect

import (
	"math"
	"math/rand/v2"
	"sync"

	"damage-eval/api/internal/damage"
)

var simulatedLabels = []string{
	"Dent",
	"Scratch",
	"Broken Headlight",
	"Broken Taillight",
	"Cracked Windshield",
	"Bumper Damage",
	"Side Mirror Damage",
}

// Simulator: заглушка на случай, когда реального инференса нет.
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator: при src == nil seed случайный.
func NewSimulator(src rand.Source) *Simulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Simulator{rnd: rand.New(src)}
}

// Generate: 2..4 повреждения; ymin<ymax, xmin<xmax в пределах 0..1000, score в [0.5, 0.99].
func (s *Simulator) Generate() []damage.Damage {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 2 + s.rnd.IntN(3)
	out := make([]damage.Damage, 0, n)
	for i := 0; i < n; i++ {
		h := 60 + s.rnd.IntN(241)
		w := 60 + s.rnd.IntN(241)
		ymin := s.rnd.IntN(1000 - h + 1)
		xmin := s.rnd.IntN(1000 - w + 1)
		score := math.Round((0.5+s.rnd.Float64()*0.49)*100) / 100

		out = append(out, damage.Damage{
			Label: simulatedLabels[s.rnd.IntN(len(simulatedLabels))],
			Box2D: []float64{float64(ymin), float64(xmin), float64(ymin + h), float64(xmin + w)},
			Score: score,
		})
	}
	return out
}
