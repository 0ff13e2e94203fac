package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

var _ = Describe("Model", func() {
	var m *sim.Model

	BeforeEach(func() {
		m = sim.New()
	})

	Describe("construction", func() {
		It("uses the documented defaults", func() {
			Expect(m.Params()).To(Equal(physics.Params{CartMass: 1, PoleMass: 1, PoleLength: 1, Gravity: 9.81}))
			Expect(m.Dt()).To(Equal(0.01))
			Expect(m.State()).To(Equal(dynamo.State{0, 0, 0, 0}))
			Expect(m.Time()).To(BeZero())
			Expect(m.StateDim()).To(Equal(4))
			Expect(m.ControlDim()).To(Equal(1))
		})

		It("copies the initial state", func() {
			x0 := dynamo.State{1, 0.2, 0, 0}
			m = sim.New(sim.WithInitialState(x0))
			x0[0] = 99
			Expect(m.State()[0]).To(Equal(1.0))
		})

		It("accepts non-physical parameters unless validation is requested", func() {
			p := physics.DefaultParams()
			p.CartMass = -1
			Expect(sim.New(sim.WithParams(p))).NotTo(BeNil())

			_, err := sim.NewValidated(sim.WithParams(p))
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))

			_, err = sim.NewValidated(sim.WithTimeStep(0))
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))

			valid, err := sim.NewValidated()
			Expect(err).NotTo(HaveOccurred())
			Expect(valid.Params()).To(Equal(physics.DefaultParams()))
		})
	})

	Describe("Step", func() {
		It("stays at the upright fixed point with no force", func() {
			x, err := m.Step(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(HaveLen(4))
			for _, v := range x {
				Expect(v).To(BeNumerically("~", 0, 1e-9))
			}
			Expect(m.Time()).To(BeNumerically("~", 0.01, 1e-15))
		})

		It("lets a small tilt grow under gravity", func() {
			m.Reset(dynamo.State{0, 0.01, 0, 0})

			prev := 0.01
			for i := 0; i < 20; i++ {
				x, err := m.Step(0)
				Expect(err).NotTo(HaveOccurred())
				Expect(math.Abs(x[physics.Angle])).To(BeNumerically(">", prev))
				prev = math.Abs(x[physics.Angle])
			}
			Expect(m.State()[physics.AngularVel]).To(BeNumerically(">", 0))
		})

		It("keeps the hanging pendulum near the stable equilibrium", func() {
			m.Reset(dynamo.State{0, math.Pi, 0, 0})
			x, err := m.Step(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(x[physics.Angle]).To(BeNumerically("~", math.Pi, 1e-6))

			m.Reset(dynamo.State{0, math.Pi - 0.05, 0, 0})
			for i := 0; i < 500; i++ {
				x, err = m.Step(0)
				Expect(err).NotTo(HaveOccurred())
				Expect(x[physics.Angle]).To(BeNumerically("~", math.Pi, 0.06))
			}
		})

		It("pushes the cart in the direction of the force", func() {
			x, err := m.Step(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(x[physics.Vel]).To(BeNumerically(">", 0))
			Expect(x[physics.AngularVel]).To(BeNumerically("<", 0))
		})

		It("conserves energy without forcing", func() {
			m.Reset(dynamo.State{0, 2.0, 0.5, -1.0})
			e0 := physics.Energy(m.Params(), m.State())
			for i := 0; i < 1000; i++ {
				_, err := m.Step(0)
				Expect(err).NotTo(HaveOccurred())
			}
			e1 := physics.Energy(m.Params(), m.State())
			Expect(math.Abs(e1-e0) / math.Abs(e0)).To(BeNumerically("<", 1e-5))
		})

		It("returns a copy of the state", func() {
			x, err := m.Step(1)
			Expect(err).NotTo(HaveOccurred())
			x[0] = 99
			Expect(m.State()[0]).NotTo(Equal(99.0))
		})

		It("agrees with a fixed-step integrator", func() {
			rk4 := sim.New(sim.WithIntegrator(integrators.NewRK4(10)), sim.WithInitialState(dynamo.State{0, 0.3, 0, 0}))
			m.Reset(dynamo.State{0, 0.3, 0, 0})
			for i := 0; i < 50; i++ {
				_, err := m.Step(1)
				Expect(err).NotTo(HaveOccurred())
				_, err = rk4.Step(1)
				Expect(err).NotTo(HaveOccurred())
			}
			a, b := m.State(), rk4.State()
			for i := range a {
				Expect(a[i]).To(BeNumerically("~", b[i], 1e-6))
			}
		})
	})

	Describe("Reset", func() {
		It("defaults to the zero state", func() {
			m.Reset(dynamo.State{1, 2, 3, 4})
			Expect(m.Reset(nil)).To(Equal(dynamo.State{0, 0, 0, 0}))
			Expect(m.Time()).To(BeZero())
		})

		It("is equivalent to a fresh model", func() {
			x0 := dynamo.State{0.5, 0.2, -0.1, 0.3}

			_, err := m.Step(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Reset(x0)).To(Equal(x0))
			got, err := m.Step(-2)
			Expect(err).NotTo(HaveOccurred())

			fresh := sim.New(sim.WithInitialState(x0))
			want, err := fresh.Step(-2)
			Expect(err).NotTo(HaveOccurred())

			Expect(got).To(Equal(want))
		})
	})

	Describe("Transition", func() {
		It("does not modify the model", func() {
			x, err := m.Transition(dynamo.State{0, 0.1, 0, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(x[physics.Angle]).NotTo(Equal(0.1))
			Expect(m.State()).To(Equal(dynamo.State{0, 0, 0, 0}))
			Expect(m.Time()).To(BeZero())
		})
	})

	Describe("singular systems", func() {
		It("fails the step and leaves the state unchanged", func() {
			p := physics.DefaultParams()
			p.PoleLength = 0
			x0 := dynamo.State{0.1, 0.2, 0.3, 0.4}
			m = sim.New(sim.WithParams(p), sim.WithInitialState(x0))

			x, err := m.Step(1)
			Expect(err).To(MatchError(dynamo.ErrSingularSystem))
			Expect(x).To(BeNil())
			Expect(m.State()).To(Equal(x0))
			Expect(m.Time()).To(BeZero())
		})
	})
})
