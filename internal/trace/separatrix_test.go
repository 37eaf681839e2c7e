package trace_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/portrait/internal/blowup"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
	"github.com/san-kum/portrait/internal/trace"
)

var _ = Describe("SeparatrixTracer", func() {
	var (
		ctx context.Context
		res *phase.Results
	)

	BeforeEach(func() {
		ctx = context.Background()
		res = results("x", "-y")
		res.Integration.HMax = 0.05
	})

	unstable := trace.Separatrix{
		Chart:     phase.FiniteR2,
		Trans:     [4]float64{1, 0, 0, 1},
		Manifold:  poly.Series{0},
		Direction: 1,
		Type:      phase.TypeUnstable,
	}

	Context("saddle x' = x, y' = -y", func() {
		It("follows the unstable manifold inside the finite chart", func() {
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(unstable)).To(Succeed())
			Expect(tr.Run(ctx, 50-len(tr.Points()))).To(Succeed())

			pts := tr.Points()
			Expect(pts).To(HaveLen(50))
			for i, p := range pts {
				Expect(p.Chart).To(Equal(phase.FiniteR2))
				Expect(p.IsValid()).To(BeTrue())
				Expect(math.Abs(p.V)).To(BeNumerically("<", 1e-12))
				Expect(p.Color).To(Equal(phase.ColorUnstable))
				if i > 0 {
					Expect(p.U).To(BeNumerically(">", pts[i-1].U))
				}
			}
			Expect(tr.State()).To(Equal(phase.Stepping))
		})

		It("follows the stable manifold backwards in time", func() {
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			sep := unstable
			sep.Trans = [4]float64{0, 1, 1, 0}
			sep.Type = phase.TypeStable
			Expect(tr.Start(sep)).To(Succeed())
			Expect(tr.Run(ctx, 30)).To(Succeed())

			pts := tr.Points()
			for i, p := range pts {
				Expect(p.U).To(BeNumerically("~", 0, 1e-12))
				Expect(p.Dir).To(Equal(-1))
				Expect(p.Color).To(Equal(phase.ColorStable))
				if i > 0 {
					// in forward time the distance to the saddle shrinks
					Expect(pts[i-1].V).To(BeNumerically("<", p.V))
				}
			}
			Expect(tr.Cursor().State.Dir).To(Equal(-1))
		})

		It("hands every committed point to the sink", func() {
			var drawn []phase.OrbitPoint
			sink := phase.SinkFunc(func(p []phase.OrbitPoint) { drawn = append(drawn, p...) })
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{Sink: sink})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(unstable)).To(Succeed())
			Expect(tr.Run(ctx, 10)).To(Succeed())
			Expect(drawn).To(Equal(tr.Points()))
			Expect(drawn[0].Dashes).To(BeFalse())
			Expect(drawn[1].Dashes).To(BeTrue())
		})
	})

	Context("starting in U1 of a star node with singular infinity", func() {
		// the chart field in U1 is (0, -1): the separatrix runs into the seam
		var seam trace.Separatrix

		BeforeEach(func() {
			res = results("x", "y")
			res.SingularInfinity = true
			res.Integration.HMax = 0.05
			seam = trace.Separatrix{
				Chart:     phase.U1,
				X0:        0.2,
				Y0:        0.5,
				Trans:     [4]float64{0, 1, 1, 0},
				Manifold:  poly.Series{0},
				Direction: -1,
				Type:      phase.TypeUnstable,
			}
		})

		It("flips the direction exactly once at the seam", func() {
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Atlas().DirVecField()).To(Equal(1))
			Expect(tr.Start(seam)).To(Succeed())
			Expect(tr.Run(ctx, 25)).To(Succeed())

			pts := tr.Points()
			Expect(pts[0].Chart).To(Equal(phase.U1))
			Expect(pts[0].Dir).To(Equal(1))
			Expect(flips(pts)).To(Equal(1))

			at := -1
			for i, p := range pts {
				if p.Dir == -1 {
					at = i
					break
				}
			}
			Expect(at).To(BeNumerically(">", 0))
			Expect(pts[at-1].Chart).To(Equal(phase.U1))
			Expect(pts[at].Chart).To(Equal(phase.V1))
			Expect(pts[at].Dashes).To(BeFalse())
			for _, p := range pts[at:] {
				Expect(p.Chart).To(Equal(phase.V1))
				Expect(p.Dir).To(Equal(-1))
			}
			Expect(tr.Cursor().State.Type).To(Equal(phase.ChangeType(phase.TypeUnstable)))
		})

		It("keeps the direction when the seam does not reverse orientation", func() {
			res.DirVecField = -1
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(seam)).To(Succeed())
			Expect(tr.Run(ctx, 30)).To(Succeed())
			Expect(flips(tr.Points())).To(BeZero())
		})
	})

	Context("session lifecycle", func() {
		var tr *trace.SeparatrixTracer

		BeforeEach(func() {
			var err error
			tr, err = trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses to continue before start", func() {
			Expect(tr.Continue(ctx)).To(MatchError(phase.ErrSessionState))
			Expect(tr.State()).To(Equal(phase.Idle))
		})

		It("refuses a second start", func() {
			Expect(tr.Start(unstable)).To(Succeed())
			Expect(tr.Start(unstable)).To(MatchError(phase.ErrSessionState))
		})

		It("rejects a zero direction", func() {
			sep := unstable
			sep.Direction = 0
			Expect(tr.Start(sep)).To(MatchError(phase.ErrInvalidConfig))
		})

		It("stops on Cancel without touching committed points", func() {
			Expect(tr.Start(unstable)).To(Succeed())
			Expect(tr.Run(ctx, 5)).To(Succeed())
			before := tr.Points()

			tr.Cancel()
			Expect(tr.Continue(ctx)).To(MatchError(phase.ErrCanceled))
			Expect(tr.State()).To(Equal(phase.Aborted))
			Expect(tr.Points()).To(Equal(before))
			Expect(tr.Continue(ctx)).To(MatchError(phase.ErrSessionState))
		})

		It("stops when the context is done", func() {
			Expect(tr.Start(unstable)).To(Succeed())
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := tr.Continue(cctx)
			Expect(err).To(MatchError(phase.ErrCanceled))
			Expect(err).To(MatchError(context.Canceled))
			Expect(tr.Err()).To(Equal(err))
		})

		It("finishes at the point budget", func() {
			res.Integration.MaxPoints = 20
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(unstable)).To(Succeed())
			Expect(tr.Run(ctx, 100)).To(Succeed())
			Expect(tr.State()).To(Equal(phase.Finished))
			Expect(tr.Points()).To(HaveLen(20))
		})
	})

	Context("through a blow-up", func() {
		// x = u, y = u·v turns the star node x' = x, y' = y into u' = u, v' = 0.
		directional := blowup.Sequence{{C1: 1, D1: 1, D2: 0, C2: 1, D3: 1, D4: 1}}

		It("integrates in blown-up coordinates and exits along the original field", func() {
			res := results("x", "y")
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(trace.Separatrix{
				Chart:      phase.FiniteR2,
				Trans:      [4]float64{1, 0, 0, 1},
				Manifold:   poly.Series{0},
				Direction:  1,
				Type:       phase.TypeUnstable,
				BlowUp:     directional,
				BlownField: poly.Field{P: poly.MustParse("x"), Q: poly.Polynomial{}},
				BX0:        0,
				BY0:        0.5,
			})).To(Succeed())
			Expect(tr.Run(ctx, 80)).To(Succeed())

			Expect(tr.State()).NotTo(Equal(phase.Aborted))
			Expect(tr.LeftLocal).To(BeFalse())
			pts := tr.Points()
			for _, p := range pts {
				// the ray y = x/2 in every chart
				Expect(p.Sphere[1]).To(BeNumerically("~", p.Sphere[0]/2, 1e-9))
			}
			last := pts[len(pts)-1].Sphere
			Expect(math.Hypot(last[0], last[1]) / last[2]).To(BeNumerically(">", 0.1))
			Expect(tr.Cursor().State.Dir).To(Equal(1))
		})

		It("aborts when the exit orientation cannot be decided", func() {
			res := results("-y", "x")
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(trace.Separatrix{
				Chart:      phase.FiniteR2,
				Trans:      [4]float64{1, 0, 0, 1},
				Manifold:   poly.Series{0},
				Direction:  1,
				Type:       phase.TypeUnstable,
				BlowUp:     blowup.Sequence{{C1: 1, D1: 1, C2: 1, D4: 1}},
				BlownField: poly.Field{P: poly.MustParse("x"), Q: poly.MustParse("y")},
			})).To(Succeed())

			err = tr.Run(ctx, 200)
			Expect(err).To(MatchError(phase.ErrExitOrientation))
			Expect(tr.State()).To(Equal(phase.Aborted))
		})
	})
})
