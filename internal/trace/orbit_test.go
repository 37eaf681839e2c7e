package trace_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
	"github.com/san-kum/portrait/internal/trace"
)

var _ = Describe("OrbitTracer", func() {
	ctx := context.Background()

	Context("across the singular-infinity seam", func() {
		var res *phase.Results

		BeforeEach(func() {
			// star node: every point at infinity is singular and the chart
			// field in U1 is (0, -1)
			res = results("x", "y")
			res.SingularInfinity = true
			res.Integration.HMax = 0.05
		})

		It("flips the direction exactly once per crossing", func() {
			tr, err := trace.NewOrbitTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Atlas().DirVecField()).To(Equal(1))
			Expect(tr.Start(phase.U1, 0.2, 0.5, 1)).To(Succeed())
			Expect(tr.Run(ctx, 25)).To(Succeed())

			pts := tr.Points()
			Expect(flips(pts)).To(Equal(1))

			at := -1
			for i, p := range pts {
				if p.Dir == -1 {
					at = i
					break
				}
			}
			Expect(at).To(BeNumerically(">", 0))
			Expect(pts[at].Chart).To(Equal(phase.V1))
			Expect(pts[at].Dashes).To(BeFalse())
			for i := at + 1; i < len(pts); i++ {
				if pts[i].Chart == phase.V1 {
					Expect(pts[i].V).To(BeNumerically(">", pts[i-1].V))
				}
			}
			Expect(tr.Cursor().State.Dir).To(Equal(-1))
		})

		It("keeps the direction when the seam does not reverse orientation", func() {
			res.DirVecField = -1
			tr, err := trace.NewOrbitTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(phase.U1, 0.2, 0.5, 1)).To(Succeed())
			Expect(tr.Run(ctx, 15)).To(Succeed())
			for _, p := range tr.Points() {
				Expect(p.Dir).To(Equal(1))
			}
		})

		It("refuses to start on the seam itself", func() {
			tr, err := trace.NewOrbitTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(phase.U1, 0.2, 0, 1)).To(MatchError(phase.ErrChartBoundaryAmbiguous))
			Expect(tr.State()).To(Equal(phase.Aborted))
		})
	})

	Context("an orbit escaping to infinity", func() {
		It("switches from R2 to U1 and approaches infinity", func() {
			tr, err := trace.NewOrbitTracer(results("x^2", "0"), trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(phase.FiniteR2, 0.5, 0, 1)).To(Succeed())
			Expect(tr.Run(ctx, 60)).To(Succeed())

			pts := tr.Points()
			Expect(pts[0].Chart).To(Equal(phase.FiniteR2))
			Expect(pts[len(pts)-1].Chart).To(Equal(phase.U1))
			Expect(flips(pts)).To(BeZero())
			for i := 1; i < len(pts); i++ {
				Expect(pts[i].Sphere[2]).To(BeNumerically("<", pts[i-1].Sphere[2]))
				Expect(pts[i].Sphere[2]).To(BeNumerically(">", 0))
			}
		})
	})

	Context("when the tolerance cannot be met", func() {
		It("aborts after MaxDegraded consecutive degraded steps", func() {
			res := results("-y", "x")
			res.Integration.HMin = 0.5
			res.Integration.HMax = 0.5
			res.Integration.Tolerance = 1e-15

			tr, err := trace.NewOrbitTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(phase.FiniteR2, 0.5, 0, 1)).To(Succeed())

			err = tr.Run(ctx, 100)
			Expect(err).To(MatchError(phase.ErrToleranceUnreachable))
			var te *phase.TraceError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Chart).To(Equal(phase.FiniteR2))
			Expect(tr.State()).To(Equal(phase.Aborted))
			Expect(tr.Err()).To(Equal(err))
			Expect(tr.Points()).To(HaveLen(1 + trace.MaxDegraded))
		})

		It("keeps going while steps meet the tolerance", func() {
			res := results("-y", "x")
			res.Integration.HMax = 0.5
			tr, err := trace.NewOrbitTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(phase.FiniteR2, 0.5, 0, 1)).To(Succeed())
			Expect(tr.Run(ctx, 3*trace.MaxDegraded)).To(Succeed())
			Expect(tr.State()).NotTo(Equal(phase.Aborted))
		})
	})

	It("counts crossings of the common factor curve", func() {
		res := results("-y", "x")
		res.GCF = poly.MustParse("x")
		res.Integration.HMax = 0.1
		tr, err := trace.NewOrbitTracer(res, trace.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Start(phase.FiniteR2, 0.5, 0, 1)).To(Succeed())

		// 70 steps of 0.1 cover a bit more than one revolution
		Expect(tr.Run(ctx, 70)).To(Succeed())
		Expect(tr.CurveCrossings()).To(Equal(2))
		Expect(tr.Cursor().State.Side).To(Equal(phase.SideOfValue(tr.Cursor().U)))
	})

	It("rejects a zero direction", func() {
		tr, err := trace.NewOrbitTracer(results("y", "-x"), trace.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Start(phase.FiniteR2, 0.5, 0, 0)).To(MatchError(phase.ErrInvalidConfig))
		Expect(tr.State()).To(Equal(phase.Aborted))
	})

	It("rejects an unknown integrator", func() {
		_, err := trace.NewOrbitTracer(results("y", "-x"), trace.Options{Integrator: "euler"})
		Expect(err).To(MatchError(phase.ErrInvalidConfig))
	})
})
