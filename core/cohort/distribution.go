package cohort

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/trezcool/cohortgen/core"
)

// Band is an inclusive range of scores.
type Band struct {
	Lo, Hi int
}

func (b Band) Contains(score int) bool { return b.Lo <= score && score <= b.Hi }

func (b Band) draw(rng *rand.Rand) int {
	return b.Lo + rng.Intn(b.Hi-b.Lo+1)
}

var (
	WeakBand    = Band{Lo: 0, Hi: 50}
	AverageBand = Band{Lo: 50, Hi: 85}
	StrongBand  = Band{Lo: 85, Hi: 100}
)

// MixedBands splits [0,100] into low [0,LowUpper), mid [LowUpper,HighLower) and high [HighLower,100].
type MixedBands struct {
	LowUpper  int
	HighLower int
}

func DefaultMixedBands() MixedBands {
	return MixedBands{LowUpper: 15, HighLower: 90}
}

func (m MixedBands) Validate() error {
	if m.LowUpper <= 0 || m.LowUpper >= m.HighLower || m.HighLower > 100 {
		return core.NewArgumentError(fmt.Sprintf("invalid mixed bands: 0 < %d < %d <= 100 does not hold", m.LowUpper, m.HighLower))
	}
	return nil
}

// Bands returns the low, mid and high bands as inclusive ranges.
func (m MixedBands) Bands() [3]Band {
	return [3]Band{
		{Lo: 0, Hi: m.LowUpper - 1},
		{Lo: m.LowUpper, Hi: m.HighLower - 1},
		{Lo: m.HighLower, Hi: 100},
	}
}

// BandOf returns the band `score` falls in.
func (m MixedBands) BandOf(score int) Band {
	bands := m.Bands()
	switch {
	case score < m.LowUpper:
		return bands[0]
	case score < m.HighLower:
		return bands[1]
	default:
		return bands[2]
	}
}

// Distribution turns archetypes into raw percentile scores.
type Distribution struct {
	Mixed MixedBands
}

var defaultDistribution = Distribution{Mixed: DefaultMixedBands()}

// RawScore draws a raw score in [0,100] for `kind`.
//
// Only Mixed uses `seed`: a seeded draw stays in the band of the seed, so a student
// who is inconsistent on lessons stays inconsistent on webinars and tests.
// Without a seed, Mixed picks one of its three bands uniformly first.
// RawScore panics on an invalid kind.
func (d Distribution) RawScore(rng *rand.Rand, kind ArchetypeKind, seed *int) int {
	switch kind {
	case Weak:
		return WeakBand.draw(rng)
	case Average:
		return AverageBand.draw(rng)
	case Strong:
		return StrongBand.draw(rng)
	case Mixed:
		if seed != nil {
			return d.Mixed.BandOf(*seed).draw(rng)
		}
		bands := d.Mixed.Bands()
		return bands[rng.Intn(len(bands))].draw(rng)
	default:
		panic(fmt.Sprintf("cohort.RawScore: unknown archetype %d", int(kind)))
	}
}

// RawScore draws a raw score with the default mixed bands.
func RawScore(rng *rand.Rand, kind ArchetypeKind, seed *int) int {
	return defaultDistribution.RawScore(rng, kind, seed)
}

// Levels returns the achievable values round(i/n*100) for i in 0..n.
func Levels(n int) ([]int, error) {
	if n <= 0 {
		return nil, core.NewArgumentError(fmt.Sprintf("activity count must be >= 1 (got %d)", n))
	}
	levels := make([]int, 0, n+1)
	for i := 0; i <= n; i++ {
		levels = append(levels, int(math.Round(float64(i)/float64(n)*100)))
	}
	return levels, nil
}

// Quantize maps percentile `p` onto the nearest achievable level of an activity held `n` times.
// Levels are scanned in ascending order and only a strictly closer one replaces the current
// best, so ties go to the lower level.
func Quantize(p float64, n int) (int, error) {
	levels, err := Levels(n)
	if err != nil {
		return 0, err
	}
	best, bestDist := levels[0], math.Abs(p-float64(levels[0]))
	for _, level := range levels[1:] {
		if dist := math.Abs(p - float64(level)); dist < bestDist {
			best, bestDist = level, dist
		}
	}
	return best, nil
}
