package board

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Position is a point on the board.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placer finds free spots for new nodes. Every node occupies a square of
// side Size centred on its position.
type Placer struct {
	Size  float64
	Rings int // search budget before falling back past the bounding box

	noise opensimplex.Noise
}

// NewPlacer creates a placer. The seed only perturbs where on each ring the
// search begins, so layouts differ between worlds but repeat within one.
func NewPlacer(size float64, seed int64) *Placer {
	if size <= 0 {
		size = 1
	}
	return &Placer{
		Size:  size,
		Rings: 24,
		noise: opensimplex.NewNormalized(seed),
	}
}

// Overlaps reports whether squares centred at a and b intersect.
func (p *Placer) Overlaps(a, b Position) bool {
	return math.Abs(a.X-b.X) < p.Size && math.Abs(a.Y-b.Y) < p.Size
}

func (p *Placer) free(pos Position, occupied []Position) bool {
	for _, o := range occupied {
		if p.Overlaps(pos, o) {
			return false
		}
	}
	return true
}

// Place returns the nearest free position to near, scanning rings outward.
// The result never overlaps any occupied position.
func (p *Placer) Place(near Position, occupied []Position) Position {
	if p.free(near, occupied) {
		return near
	}

	// Ring start angle drifts with the anchor so clusters fan out unevenly.
	start := p.noise.Eval2(near.X*0.173, near.Y*0.173) * 2 * math.Pi

	for ring := 1; ring <= p.Rings; ring++ {
		radius := float64(ring) * p.Size
		steps := 6 * ring
		for i := 0; i < steps; i++ {
			angle := start + 2*math.Pi*float64(i)/float64(steps)
			cand := Position{
				X: near.X + radius*math.Cos(angle),
				Y: near.Y + radius*math.Sin(angle),
			}
			if p.free(cand, occupied) {
				return cand
			}
		}
	}

	// Past the right edge of everything placed.
	maxX := near.X
	for _, o := range occupied {
		maxX = math.Max(maxX, o.X)
	}
	return Position{X: maxX + p.Size, Y: near.Y}
}
