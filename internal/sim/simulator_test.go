package sim_test

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/landau/internal/compute"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
	"github.com/san-kum/landau/internal/metrics"
	"github.com/san-kum/landau/internal/sim"
)

func newSim(p dynamo.Params, seed int64) *sim.Simulator {
	s, err := sim.New(p, rand.New(rand.NewSource(seed)))
	Expect(err).NotTo(HaveOccurred())
	return s
}

// isolated returns a zero field with a single excited cell.
func isolated(n, i, j int) *lattice.Field {
	f, err := lattice.NewField(n)
	Expect(err).NotTo(HaveOccurred())
	f.Set(i, j, 0.1, 0)
	return f
}

func quiet(n int, scheme dynamo.Scheme) dynamo.Params {
	p := dynamo.DefaultParams()
	p.Size = n
	p.Lambda = 0.1
	p.Omega = 0
	p.Coupling = [3]float64{}
	p.SmallWorld = 0
	p.Dt = 0.1
	p.Scheme = scheme
	return p
}

var _ = Describe("Simulator", func() {
	Describe("a single Euler step without coupling", func() {
		It("changes only the excited cell", func() {
			s := newSim(quiet(4, dynamo.SchemeEuler), 1)
			Expect(s.SetField(isolated(4, 1, 2))).To(Succeed())

			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())

			f := s.Field()
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					re, im := f.At(i, j)
					if i == 1 && j == 2 {
						Expect(re).To(BeNumerically("~", 0.1+0.1*(0.1-0.01)*0.1, 1e-12))
						Expect(im).To(BeZero())
						continue
					}
					Expect(re).To(BeZero(), "cell (%d,%d)", i, j)
					Expect(im).To(BeZero(), "cell (%d,%d)", i, j)
				}
			}
		})
	})

	Describe("RK4 stages", func() {
		It("recompute coupling over the whole lattice at every stage", func() {
			p := quiet(9, dynamo.SchemeRK4)
			p.Coupling = [3]float64{1, 0, 0}
			p.Normalization = dynamo.NormNone

			rk4 := newSim(p, 1)
			Expect(rk4.SetField(isolated(9, 4, 4))).To(Succeed())
			_, err := rk4.Step()
			Expect(err).NotTo(HaveOccurred())

			// Three cells away needs three stages of neighbour exchange.
			f := rk4.Field()
			Expect(f.Amplitude(4, 6)).To(BeNumerically(">", 0))
			Expect(f.Amplitude(4, 7)).To(BeNumerically(">", 0))

			p.Scheme = dynamo.SchemeEuler
			euler := newSim(p, 1)
			Expect(euler.SetField(isolated(9, 4, 4))).To(Succeed())
			_, err = euler.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(euler.Field().Amplitude(4, 6)).To(BeZero())
		})
	})

	DescribeTable("stays finite from a bounded random start",
		func(mutate func(p *dynamo.Params)) {
			p := dynamo.DefaultParams()
			p.Size = 16
			mutate(&p)
			s := newSim(p, 42)

			Expect(s.Run(context.Background(), 300, nil)).To(Succeed())
			f := s.Field()
			Expect(f.Z.IsValid()).To(BeTrue())
			Expect(s.Diagnostics().Dissonance).To(BeNumerically(">=", 0))
		},
		Entry("linear, globally normalized, rk4", func(p *dynamo.Params) {}),
		Entry("linear, unnormalized, euler", func(p *dynamo.Params) {
			p.Normalization = dynamo.NormNone
			p.Scheme = dynamo.SchemeEuler
			p.Dt = 0.05
		}),
		Entry("divisive normalization", func(p *dynamo.Params) { p.Mode = dynamo.ModeDN }),
		Entry("divisive normalization, no denominator", func(p *dynamo.Params) {
			p.Mode = dynamo.ModeDN
			p.DN.DisableDenominator = true
		}),
		Entry("diffusive", func(p *dynamo.Params) { p.Mode = dynamo.ModeDiffusive }),
		Entry("small world with gain control", func(p *dynamo.Params) {
			p.SmallWorld = 0.3
			p.Beta = 1
		}),
		Entry("active attack, per-stage noise", func(p *dynamo.Params) {
			p.Attack.Active = true
			p.Attack.Noise = dynamo.NoisePerStage
		}),
	)

	Describe("the persistent attack residual", func() {
		It("decays geometrically to exactly zero once the attack stops", func() {
			p := dynamo.DefaultParams()
			p.Size = 10
			p.Attack.Persistent = true
			p.Attack.HalfWidth = 0.2
			s := newSim(p, 3)

			Expect(s.SetAttack(true)).To(Succeed())
			Expect(s.Run(context.Background(), 5, nil)).To(Succeed())
			Expect(s.SetAttack(false)).To(Succeed())

			center := 5*10 + 5
			lift := p.Lambda * (p.Attack.Gain - 1)
			Expect(s.Residuals()[center]).To(BeNumerically("~", lift, 1e-12))

			prev := s.Residuals()[center]
			for s.Residuals()[center] > 0 {
				_, err := s.Step()
				Expect(err).NotTo(HaveOccurred())
				cur := s.Residuals()[center]
				Expect(cur).To(BeNumerically(">=", 0))
				Expect(cur).To(BeNumerically("<=", prev))
				prev = cur
				Expect(s.StepCount()).To(BeNumerically("<", 10000))
			}
			for _, r := range s.Residuals() {
				Expect(r).To(BeZero())
			}
		})
	})

	Describe("reproducibility", func() {
		It("produces identical fields from the same seed", func() {
			p := dynamo.DefaultParams()
			p.Size = 12
			p.SmallWorld = 0.2
			p.Attack.Active = true

			a, b := newSim(p, 99), newSim(p, 99)
			Expect(a.Run(context.Background(), 20, nil)).To(Succeed())
			Expect(b.Run(context.Background(), 20, nil)).To(Succeed())
			Expect(a.Field().Z).To(Equal(b.Field().Z))
		})
	})

	Describe("configuration", func() {
		It("rejects invalid grid sizes", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			p := s.Params()
			p.Size = 0
			Expect(s.Configure(p)).To(MatchError(dynamo.ErrInvalidGridSize))
			Expect(s.Resize(-2)).To(MatchError(dynamo.ErrInvalidGridSize))
			Expect(s.Field().N).To(Equal(4))
		})

		It("rejects non-finite parameters", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			p := s.Params()
			p.Omega = math.Inf(1)
			Expect(s.Configure(p)).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("re-initializes on resize", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			Expect(s.Run(context.Background(), 3, nil)).To(Succeed())

			p := s.Params()
			p.Size = 6
			Expect(s.Configure(p)).To(Succeed())
			Expect(s.Field().N).To(Equal(6))
			Expect(s.Links()).To(HaveLen(36))
			Expect(s.StepCount()).To(BeZero())
		})

		It("switches integrators", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			p := s.Params()
			p.Scheme = dynamo.SchemeEuler
			Expect(s.Configure(p)).To(Succeed())
			Expect(s.SetField(isolated(4, 0, 0))).To(Succeed())
			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())
			re, _ := s.Field().At(0, 0)
			Expect(re).To(BeNumerically("~", 0.1009, 1e-12))
		})

		It("kicks the attack region when the attack starts", func() {
			s := newSim(quiet(10, dynamo.SchemeRK4), 1)
			zero, _ := lattice.NewField(10)
			Expect(s.SetField(zero)).To(Succeed())
			Expect(s.SetAttack(true)).To(Succeed())

			f := s.Field()
			Expect(f.Amplitude(5, 5)).To(BeNumerically(">", 0))
			Expect(f.Amplitude(0, 0)).To(BeZero())
		})
	})

	Describe("divergence", func() {
		It("rejects the diverged step without committing it", func() {
			p := dynamo.DefaultParams()
			p.Size = 6
			p.Lambda = 1
			p.Scheme = dynamo.SchemeEuler
			p.Dt = 1000
			s := newSim(p, 7)

			var err error
			for i := 0; i < 50 && err == nil; i++ {
				_, err = s.Step()
			}
			Expect(err).To(MatchError(dynamo.ErrUnstable))
			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
			Expect(s.Field().Z.IsValid()).To(BeTrue())
		})
	})

	Describe("Run", func() {
		It("stops when the callback returns false", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			calls := 0
			Expect(s.Run(context.Background(), 100, func(d dynamo.Diagnostics) bool {
				calls++
				return calls < 5
			})).To(Succeed())
			Expect(calls).To(Equal(5))
			Expect(s.StepCount()).To(Equal(5))
		})

		It("honours context cancellation", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(s.Run(ctx, 10, nil)).To(MatchError(context.Canceled))
			Expect(s.StepCount()).To(BeZero())
		})

		It("reports attached metrics", func() {
			s := newSim(quiet(4, dynamo.SchemeRK4), 1)
			for _, m := range metrics.Standard() {
				s.AddMetric(m)
			}
			Expect(s.Run(context.Background(), 10, nil)).To(Succeed())

			r := s.Result()
			Expect(r.Steps).To(Equal(10))
			Expect(r.Time).To(BeNumerically("~", 1.0, 1e-12))
			Expect(r.Metrics).To(HaveKey("mean_dissonance"))
			Expect(r.Metrics).To(HaveKeyWithValue("stability", 1.0))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs one simulator per seed", func() {
		p := dynamo.DefaultParams()
		p.Size = 8
		e := sim.NewEnsemble(p, 3, 10, metrics.Standard)

		results, err := e.Run(context.Background(), 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Steps).To(Equal(20))
			Expect(r.Metrics).To(HaveKey("final_dissonance"))
		}
		Expect(results[0].Final.Dissonance).NotTo(Equal(results[1].Final.Dissonance))
	})
})

// countingSource wraps a seeded generator and counts uniform draws.
type countingSource struct {
	*rand.Rand
	draws int
}

func (c *countingSource) Float64() float64 {
	c.draws++
	return c.Rand.Float64()
}

var _ = Describe("the noise policy", func() {
	// A 10×10 lattice with half-width 0.1 has a 2×2 attack region; with
	// NoiseProb 1 each region cell takes two draws per forcing sample.
	const drawsPerSample = 2 * 4

	drawsForOneStep := func(scheme dynamo.Scheme, policy dynamo.NoisePolicy) int {
		p := dynamo.DefaultParams()
		p.Size = 10
		p.Scheme = scheme
		p.Attack.HalfWidth = 0.1
		p.Attack.NoiseProb = 1
		p.Attack.NoiseAmp = 0.1
		p.Attack.Noise = policy
		src := &countingSource{Rand: rand.New(rand.NewSource(6))}
		s, err := sim.New(p, src)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.SetAttack(true)).To(Succeed())

		before := src.draws
		_, err = s.Step()
		Expect(err).NotTo(HaveOccurred())
		return src.draws - before
	}

	DescribeTable("draws per step",
		func(scheme dynamo.Scheme, policy dynamo.NoisePolicy, want int) {
			Expect(drawsForOneStep(scheme, policy)).To(Equal(want))
		},
		Entry("rk4, per step", dynamo.SchemeRK4, dynamo.NoisePerStep, drawsPerSample),
		Entry("rk4, per stage", dynamo.SchemeRK4, dynamo.NoisePerStage, 4*drawsPerSample),
		Entry("euler, per step", dynamo.SchemeEuler, dynamo.NoisePerStep, drawsPerSample),
		Entry("euler, per stage", dynamo.SchemeEuler, dynamo.NoisePerStage, drawsPerSample),
	)
})

var _ = Describe("compute backends", func() {
	It("step to identical lattices", func() {
		p := dynamo.DefaultParams()
		p.Size = 32
		p.Mode = dynamo.ModeDN
		p.SmallWorld = 0.1

		run := func(b compute.Backend) *lattice.Field {
			s, err := sim.New(p, rand.New(rand.NewSource(4)), sim.WithBackend(b))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run(context.Background(), 5, nil)).To(Succeed())
			return s.Field()
		}

		serial := run(compute.Serial{})
		parallel := run(compute.NewCPUBackendWorkers(4))
		Expect(parallel.Z).To(Equal(serial.Z))
	})
})
