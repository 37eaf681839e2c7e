package trace_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
	"github.com/san-kum/portrait/internal/trace"
)

var _ = Describe("CurveTracer", func() {
	ctx := context.Background()

	withGCF := func(res *phase.Results, g string) *phase.Results {
		res.GCF = poly.MustParse(g)
		return res
	}

	It("needs a common factor", func() {
		_, err := trace.NewCurveTracer(results("y", "-x"), trace.Options{})
		Expect(err).To(MatchError(phase.ErrInvalidConfig))
	})

	It("traces a closed component in R2", func() {
		c, err := trace.NewCurveTracer(withGCF(results("y", "-x"), "x^2 + y^2 - 0.25"), trace.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RunTask(ctx, trace.TaskR2, 40, 1000)).To(Succeed())

		curves := c.Finish()
		Expect(curves).NotTo(BeEmpty())
		for _, pts := range curves {
			for _, p := range pts {
				Expect(p.Chart).To(Equal(phase.FiniteR2))
				Expect(p.Color).To(Equal(phase.ColorCurve))
				Expect(p.U*p.U + p.V*p.V).To(BeNumerically("~", 0.25, 1e-5))
			}
		}
		first := curves[0]
		Expect(first[0].U).To(Equal(first[len(first)-1].U))
		Expect(c.State()).To(Equal(phase.Finished))
	})

	It("runs every Poincaré task and follows a line to infinity", func() {
		c, err := trace.NewCurveTracer(withGCF(results("y", "-x"), "y - 2*x"), trace.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Start(phase.Poincare)).To(Succeed())
		Expect(c.Run(ctx)).To(Succeed())
		Expect(c.State()).To(Equal(phase.Finished))

		seen := map[phase.ChartID]bool{}
		for _, pts := range c.Finish() {
			for _, p := range pts {
				seen[p.Chart] = true
				Expect(p.Sphere[1]).To(BeNumerically("~", 2*p.Sphere[0], 1e-6))
			}
		}
		Expect(seen).To(HaveKey(phase.FiniteR2))
		Expect(seen).To(HaveKey(phase.U2))
		Expect(seen).To(HaveKey(phase.V2))
		Expect(seen).NotTo(HaveKey(phase.U1))
	})

	It("runs the Poincaré-Lyapunov tasks on the cylinder", func() {
		res := withGCF(results("y", "-x^3"), "y - x^2")
		res.WeightP, res.WeightQ = 1, 2
		c, err := trace.NewCurveTracer(res, trace.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Start(phase.PoincareLyapunov)).To(Succeed())
		Expect(c.Run(ctx)).To(Succeed())

		seen := map[phase.ChartID]bool{}
		for _, pts := range c.Finish() {
			for _, p := range pts {
				seen[p.Chart] = true
				if p.Chart.Cylindrical() {
					Expect(math.Sin(p.U) - math.Cos(p.U)*math.Cos(p.U)).To(BeNumerically("~", 0, 1e-6))
				} else {
					Expect(p.V - p.U*p.U).To(BeNumerically("~", 0, 1e-6))
				}
			}
		}
		Expect(seen).To(HaveKey(phase.FiniteR2))
		Expect(seen).To(HaveKey(phase.Cyl1))
		Expect(seen).To(HaveKey(phase.Cyl3))
	})

	It("rejects tasks of the other compactification", func() {
		c, err := trace.NewCurveTracer(withGCF(results("y", "-x"), "x - y"), trace.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RunTask(ctx, trace.TaskCyl1, 20, 100)).To(MatchError(phase.ErrInvalidConfig))
		Expect(c.Start(phase.PoincareLyapunov)).To(MatchError(phase.ErrInvalidConfig))
	})

	It("lists twelve named tasks", func() {
		all := append(trace.Tasks(phase.Poincare), trace.Tasks(phase.PoincareLyapunov)...)
		Expect(all).To(HaveLen(12))
		Expect(all[5].String()).To(Equal("finish-poincare"))
		Expect(all[11].String()).To(Equal("finish-lyapunov"))
		for _, task := range all {
			Expect(trace.ParseTask(task.String())).To(Equal(task))
		}
		_, err := trace.ParseTask("W9")
		Expect(err).To(MatchError(phase.ErrInvalidConfig))
	})
})
