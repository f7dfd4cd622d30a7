package domain

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Random supplies the draws consumed by the simulation.
type Random interface {
	// Uniform returns a value in [0, 1).
	Uniform() float64
	// Weibull draws from a Weibull distribution with scale lambda and shape alpha.
	Weibull(lambda, alpha float64) float64
	// Normal draws from a normal distribution.
	Normal(mu, sigma float64) float64
}

// RandomStream is a single seeded source shared by every distribution, so all
// draws are consumed sequentially from one stream.
type RandomStream struct {
	src rand.Source
}

// NewRandomStream creates a deterministic stream for the given seed.
func NewRandomStream(seed uint64) *RandomStream {
	return &RandomStream{src: rand.NewPCG(seed, 0)}
}

func (r *RandomStream) Uniform() float64 {
	return distuv.Uniform{Min: 0, Max: 1, Src: r.src}.Rand()
}

func (r *RandomStream) Weibull(lambda, alpha float64) float64 {
	return distuv.Weibull{K: alpha, Lambda: lambda, Src: r.src}.Rand()
}

func (r *RandomStream) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: r.src}.Rand()
}
