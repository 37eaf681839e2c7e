package trace_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/trace"
)

var _ = Describe("LimitCycleSearch", func() {
	ctx := context.Background()
	unit := trace.Section{X0: 0, Y0: 0, X1: 1, Y1: 0}

	Describe("section validation", func() {
		It("seeds round(length/grid) points along the section", func() {
			s, err := trace.NewLimitCycleSearch(results("y", "-x"), unit, trace.LimitCycleConfig{Grid: 0.1}, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			seeds := s.Seeds()
			Expect(seeds).To(HaveLen(10))
			for i, a := range seeds {
				Expect(a).To(BeNumerically("~", float64(i)/10, 1e-15))
				x, y := unit.At(a)
				Expect(x).To(BeNumerically(">=", 0))
				Expect(x).To(BeNumerically("<", 1))
				Expect(y).To(BeZero())
			}
			Expect(s.State()).To(Equal(phase.Idle))
		})

		DescribeTable("rejects before any integration",
			func(sec trace.Section, grid float64) {
				s, err := trace.NewLimitCycleSearch(results("y", "-x"), sec, trace.LimitCycleConfig{Grid: grid}, trace.Options{})
				Expect(err).To(MatchError(phase.ErrInvalidSection))
				Expect(s).To(BeNil())
			},
			Entry("grid longer than the section", unit, 2.0),
			Entry("grid below the minimum", unit, 1e-9),
			Entry("grid above the maximum", trace.Section{X1: 100}, 20.0),
			Entry("too many orbits", unit, 1e-5),
			Entry("degenerate section", trace.Section{X0: 1, X1: 1}, 0.1),
		)
	})

	Describe("Van der Pol oscillator", func() {
		It("finds the limit cycle through x ≈ 2.0086", func() {
			sec := trace.Section{X0: 0.5, Y0: 0, X1: 3, Y1: 0}
			s, err := trace.NewLimitCycleSearch(results("y", "y - x^2*y - x"), sec,
				trace.LimitCycleConfig{Grid: 0.5, PointsPerOrbit: 1500}, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())
			Expect(s.Run(ctx)).To(Succeed())

			Expect(s.State()).To(Equal(phase.Finished))
			Expect(s.Done()).To(BeTrue())
			cycles := s.Cycles()
			Expect(cycles).NotTo(BeEmpty())
			for _, c := range cycles {
				Expect(c.X).To(BeNumerically("~", 2.0086, 5e-3))
				Expect(c.Y).To(BeNumerically("~", 0, 1e-12))
				Expect(c.Points).NotTo(BeEmpty())
				Expect(c.Points[0].Color).To(Equal(phase.ColorLimitCycle))
			}

			returns := s.Returns(0)
			Expect(len(returns)).To(BeNumerically(">=", 2))
			for i := 1; i < len(returns); i++ {
				// seeds inside the cycle spiral outwards
				Expect(returns[i]).To(BeNumerically(">=", returns[i-1]-1e-9))
			}
		})

		It("can be canceled mid-scan", func() {
			sec := trace.Section{X0: 0.5, Y0: 0, X1: 3, Y1: 0}
			s, err := trace.NewLimitCycleSearch(results("y", "y - x^2*y - x"), sec,
				trace.LimitCycleConfig{Grid: 0.5, PointsPerOrbit: 200}, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())
			Expect(s.Continue(ctx)).To(Succeed())

			s.Cancel()
			Expect(s.Continue(ctx)).To(MatchError(phase.ErrCanceled))
			Expect(s.State()).To(Equal(phase.Aborted))
			Expect(s.Done()).To(BeFalse())
			Expect(s.Returns(1)).To(BeNil())
		})
	})

	Describe("ConvergenceDetector", func() {
		d := trace.ConvergenceDetector{Tol: 1e-3}

		It("needs two returns", func() {
			_, ok := d.Detect([]float64{0.4})
			Expect(ok).To(BeFalse())
		})

		It("reports the last return when successive ones agree", func() {
			at, ok := d.Detect([]float64{0.1, 0.3, 0.3004})
			Expect(ok).To(BeTrue())
			Expect(at).To(Equal(0.3004))

			_, ok = d.Detect([]float64{0.1, 0.3})
			Expect(ok).To(BeFalse())
		})
	})
})
