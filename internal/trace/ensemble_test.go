package trace_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
	"github.com/san-kum/portrait/internal/trace"
)

var _ = Describe("Ensemble", func() {
	var res *phase.Results

	BeforeEach(func() {
		res = results("x", "-y")
		res.Integration.HMax = 0.05
	})

	saddle := func() []trace.Separatrix {
		var seps []trace.Separatrix
		for _, typ := range []phase.SepType{phase.TypeUnstable, phase.TypeStable} {
			trans := [4]float64{1, 0, 0, 1}
			if typ == phase.TypeStable {
				trans = [4]float64{0, 1, 1, 0}
			}
			for _, dir := range []int{1, -1} {
				seps = append(seps, trace.Separatrix{
					Chart:     phase.FiniteR2,
					Trans:     trans,
					Manifold:  poly.Series{0},
					Direction: dir,
					Type:      typ,
				})
			}
		}
		return seps
	}

	It("matches sequential traces and keeps the input order", func() {
		seps := saddle()
		runs, err := trace.NewEnsemble(res, trace.Options{}, 2).Run(context.Background(), seps, 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(len(seps)))

		for i, sep := range seps {
			tr, err := trace.NewSeparatrixTracer(res, trace.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Start(sep)).To(Succeed())
			Expect(tr.Run(context.Background(), 40)).To(Succeed())

			Expect(runs[i].Index).To(Equal(i))
			Expect(runs[i].Err).NotTo(HaveOccurred())
			Expect(runs[i].State).To(Equal(phase.Finished))
			Expect(runs[i].Points).To(Equal(tr.Finish()))
			Expect(runs[i].Stats.Accepted).To(BeNumerically(">", 0))
		}
	})

	It("records a failing separatrix without stopping the rest", func() {
		seps := saddle()
		seps[1].Direction = 0
		runs, err := trace.NewEnsemble(res, trace.Options{}, 0).Run(context.Background(), seps, 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs[1].Err).To(MatchError(phase.ErrInvalidConfig))
		Expect(runs[1].Points).To(BeEmpty())
		for _, i := range []int{0, 2, 3} {
			Expect(runs[i].Err).NotTo(HaveOccurred())
			Expect(runs[i].Points).NotTo(BeEmpty())
		}
	})

	It("reports cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runs, err := trace.NewEnsemble(res, trace.Options{}, 1).Run(ctx, saddle(), 20)
		Expect(err).To(MatchError(phase.ErrCanceled))
		for _, r := range runs {
			Expect(r.State).To(Equal(phase.Aborted))
			Expect(r.Err).To(MatchError(phase.ErrCanceled))
		}
	})
})
