package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Register", func() {
	It("should only publish at commit", func() {
		r := NewRegister(1)

		r.Set(2)
		Expect(r.Get()).To(Equal(1))

		r.Set(3)
		Expect(r.Get()).To(Equal(1))

		r.Commit()
		Expect(r.Get()).To(Equal(3))
	})

	It("should hold its value when not set", func() {
		r := NewRegister("a")
		r.Set("b")
		r.Commit()

		for i := 0; i < 5; i++ {
			r.Commit()
			Expect(r.Get()).To(Equal("b"))
		}
	})

	It("should drop the staged value on reset", func() {
		r := NewRegister(0)
		r.Set(5)
		r.Reset(9)
		r.Commit()

		Expect(r.Get()).To(Equal(9))
	})
})

var _ = Describe("DelayLine", func() {
	It("should deliver values after depth edges", func() {
		d := NewDelayLine[int](3)
		outs := []int{}

		for cycle := 1; cycle <= 6; cycle++ {
			outs = append(outs, d.Out())
			if cycle <= 2 {
				d.Push(cycle * 10)
			}
			d.Commit()
		}

		Expect(outs).To(Equal([]int{0, 0, 0, 10, 20, 0}))
	})

	It("should support a depth of one", func() {
		d := NewDelayLine[bool](1)
		d.Push(true)
		Expect(d.Out()).To(BeFalse())

		d.Commit()
		Expect(d.Out()).To(BeTrue())

		d.Commit()
		Expect(d.Out()).To(BeFalse())
	})

	It("should empty on reset", func() {
		d := NewDelayLine[int](2)
		d.Push(1)
		d.Commit()
		d.Push(2)
		d.Commit()
		d.Reset()

		Expect(d.Out()).To(Equal(0))
		Expect(d.Depth()).To(Equal(2))
	})

	It("should tell if any value matches", func() {
		d := NewDelayLine[int](2)
		isSeven := func(v int) bool { return v == 7 }

		d.Push(7)
		Expect(d.Any(isSeven)).To(BeTrue())

		d.Commit()
		d.Commit()
		Expect(d.Any(isSeven)).To(BeTrue())

		d.Commit()
		Expect(d.Any(isSeven)).To(BeFalse())
	})

	It("should panic on a depth below one", func() {
		Expect(func() { NewDelayLine[int](0) }).To(Panic())
	})
})
