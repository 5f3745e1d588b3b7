package siebinga_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/sbml"
	"github.com/san-kum/pbpksim/internal/siebinga"
	"github.com/san-kum/pbpksim/internal/subject"
	"gonum.org/v1/gonum/floats"
)

var _ = Describe("Model", func() {
	var (
		model  *siebinga.Model
		female *subject.Phantom
		male   *subject.Phantom
	)

	BeforeEach(func() {
		var err error
		model, err = siebinga.New()
		Expect(err).NotTo(HaveOccurred())

		female = subject.NewPhantom("female", subject.Female, map[string]float64{
			"liver": 1.764, "rightkidney": 0.163, "leftkidney": 0.163, "salivaryglands": 0.094,
		})
		male = subject.NewPhantom("male", subject.Male, map[string]float64{
			"liver": 1.9, "rightkidney": 0.19, "leftkidney": 0.18, "salivaryglands": 0.11,
		})
	})

	Describe("before a subject is bound", func() {
		It("is unbound", func() {
			Expect(model.Bound()).To(BeFalse())
		})

		It("simulates with the reference scaling", func() {
			tr, err := model.Simulate(10, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Times).To(HaveLen(11))
			Expect(tr.Times[0]).To(BeZero())
			Expect(tr.Times[10]).To(BeNumerically("~", 10, 1e-12))
		})
	})

	Describe("UpdateCompartments", func() {
		It("scales the liver, kidney and salivary pairs by reference over measured volume", func() {
			Expect(model.UpdateCompartments(female)).To(Succeed())
			scaled := model.ScaledParams()

			Expect(params.MustGet(scaled, "k13")).To(BeNumerically("~", 0.0086*0.5642, 1e-5))
			Expect(params.MustGet(scaled, "k31")).To(BeNumerically("~", 0.0141*0.5642, 1e-5))
			Expect(params.MustGet(scaled, "k14")).To(BeNumerically("~", 0.0238*0.4724, 1e-5))
			Expect(params.MustGet(scaled, "k41")).To(BeNumerically("~", 0.0283*0.4724, 1e-5))
			Expect(params.MustGet(scaled, "k12")).To(BeNumerically("~", 0.0238*0.7072, 1e-5))
			Expect(params.MustGet(scaled, "k21")).To(BeNumerically("~", 0.0307*0.7072, 1e-5))
		})

		It("leaves the population defaults untouched", func() {
			Expect(model.UpdateCompartments(male)).To(Succeed())
			Expect(params.Equal(model.Params(), siebinga.DefaultParams())).To(BeTrue())
		})

		It("re-derives everything from the second subject", func() {
			Expect(model.UpdateCompartments(male)).To(Succeed())
			Expect(model.UpdateCompartments(female)).To(Succeed())

			other, err := siebinga.New()
			Expect(err).NotTo(HaveOccurred())
			Expect(other.UpdateCompartments(female)).To(Succeed())

			Expect(params.Equal(model.ScaledParams(), other.ScaledParams())).To(BeTrue())
			Expect(model.Sex()).To(Equal(subject.Female))
		})

		It("rejects a subject missing a scaled organ", func() {
			partial := subject.NewPhantom("p", subject.Male, map[string]float64{"liver": 1.5})
			Expect(model.UpdateCompartments(partial)).To(MatchError(dynamo.ErrScalingUndefined))
			Expect(model.Bound()).To(BeFalse())
		})
	})

	Describe("SimulateWithSubject", func() {
		It("matches an explicit update followed by simulate", func() {
			combined, err := pbpk.SimulateWithSubject(model, male, 12, 0.5)
			Expect(err).NotTo(HaveOccurred())

			manual, err := siebinga.New()
			Expect(err).NotTo(HaveOccurred())
			Expect(manual.UpdateCompartments(male)).To(Succeed())
			tr, err := manual.Simulate(12, 0.5)
			Expect(err).NotTo(HaveOccurred())

			Expect(floats.Distance(combined.Final(), tr.Final(), 2)).To(BeNumerically("<", 1e-12))
		})
	})

	Describe("solver selection", func() {
		It("accepts every enumerated solver", func() {
			for _, name := range sbml.ValidSolvers() {
				Expect(model.SetSolver(name)).To(Succeed(), name)
			}
		})

		It("rejects Euler before integrating", func() {
			Expect(model.SetSolver("Euler")).To(MatchError(dynamo.ErrUnsupportedSolver))
		})
	})

	Describe("the simulation horizon", func() {
		DescribeTable("invalid horizons",
			func(time, dt float64) {
				_, err := model.Simulate(time, dt)
				Expect(err).To(MatchError(dynamo.ErrInvalidHorizon))
			},
			Entry("zero time", 0.0, 1.0),
			Entry("negative dt", 10.0, -0.5),
			Entry("dt beyond time", 2.0, 3.0),
		)
	})

	Describe("the document-backed model", func() {
		It("behaves like the map-backed one", func() {
			doc, err := siebinga.DefaultDocument()
			Expect(err).NotTo(HaveOccurred())

			back, err := sbml.ReadString(doc.ToSBML())
			Expect(err).NotTo(HaveOccurred())
			dm, err := siebinga.FromDocument(back, siebinga.WithName("from-sbml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(dm.Name()).To(Equal("from-sbml"))

			a, err := pbpk.SimulateWithSubject(dm, female, 6, 1)
			Expect(err).NotTo(HaveOccurred())
			b, err := pbpk.SimulateWithSubject(model, female, 6, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(floats.Distance(a.Final(), b.Final(), 2)).To(BeNumerically("<", 1e-9))
		})
	})
})
