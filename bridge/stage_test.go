package bridge

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/mmbridge/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Command stage", func() {
	var (
		mockCtrl  *gomock.Controller
		target    *fakeTarget
		a         *Adapter
		transfers []Transfer
	)

	build := func(b Builder) {
		var err error
		a, err = b.Build("Bridge")
		Expect(err).NotTo(HaveOccurred())
		target = newFakeTarget(b.Config().Master, 1)

		hook := NewMockHook(mockCtrl)
		hook.EXPECT().Func(gomock.Any()).
			Do(func(ctx sim.HookCtx) {
				if ctx.Pos == HookPosMasterAccept {
					transfers = append(transfers, ctx.Item.(Transfer))
				}
			}).AnyTimes()
		a.AcceptHook(hook)
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		transfers = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("bypass", func() {
		BeforeEach(func() {
			build(MakeBuilder())
		})

		It("should add no latency", func() {
			_, m := step(a, target, writeReq(3, 0xf, WordFromUint64(1, 4)))

			Expect(m.Write).To(BeTrue())
			Expect(transfers).To(HaveLen(1))
			Expect(transfers[0].Cycle).To(BeZero())
			Expect(transfers[0].Kind).To(Equal(TransferWrite))
		})

		It("should forward the master wait-request", func() {
			target.wait[0] = true
			target.wait[1] = true

			in := writeReq(3, 0xf, WordFromUint64(1, 4))
			s, m0 := step(a, target, in)
			Expect(s.WaitRequest).To(BeTrue())

			s, m1 := step(a, target, in)
			Expect(s.WaitRequest).To(BeTrue())
			Expect(m1).To(Equal(m0))

			s, _ = step(a, target, in)
			Expect(s.WaitRequest).To(BeFalse())
			Expect(transfers).To(HaveLen(1))
			Expect(transfers[0].Cycle).To(Equal(uint64(2)))
		})
	})

	Context("register", func() {
		BeforeEach(func() {
			build(MakeBuilder().WithPipelineWrite())
		})

		It("should delay the command by one cycle", func() {
			_, m := step(a, target, writeReq(3, 0xf, WordFromUint64(1, 4)))
			Expect(m.Write).To(BeFalse())

			_, m = step(a, target, idle())
			Expect(m.Write).To(BeTrue())
			Expect(m.Address).To(Equal(uint64(3)))
			Expect(transfers).To(HaveLen(1))
			Expect(transfers[0].Cycle).To(Equal(uint64(1)))
		})

		It("should hold its value under backpressure", func() {
			const waitCycles = 3
			for c := 1; c <= waitCycles; c++ {
				target.wait[c] = true
			}

			first := writeReq(3, 0xf, WordFromUint64(0x33, 4))
			second := writeReq(4, 0xf, WordFromUint64(0x44, 4))

			transact(a, target, first)

			var held MasterOutputs
			for c := 1; c <= waitCycles; c++ {
				s, m := a.Evaluate(second, target)
				Expect(a.Accepted()).To(BeFalse())
				Expect(s.WaitRequest).To(BeTrue())
				a.Tick()
				target.tick()

				if c == 1 {
					held = m
				}
				Expect(m).To(Equal(held))
			}

			Expect(transfers).To(BeEmpty())

			s, m := a.Evaluate(second, target)
			Expect(s.WaitRequest).To(BeFalse())
			Expect(a.Accepted()).To(BeTrue())
			Expect(m).To(Equal(held))
			a.Tick()
			target.tick()

			Expect(transfers).To(HaveLen(1))
			Expect(transfers[0].Address).To(Equal(uint64(3)))

			_, m = step(a, target, idle())
			Expect(m.Address).To(Equal(uint64(4)))
			Expect(transfers).To(HaveLen(2))
			Expect(target.mem[3].Uint64()).To(Equal(uint64(0x33)))
			Expect(target.mem[4].Uint64()).To(Equal(uint64(0x44)))
		})

		It("should add one cycle of read latency", func() {
			target.mem[5] = WordFromUint64(0x55, 4)

			step(a, target, readReq(5))
			s, _ := step(a, target, idle())
			Expect(s.ReadDataValid).To(BeFalse())

			s, _ = step(a, target, idle())
			Expect(s.ReadDataValid).To(BeTrue())
			Expect(s.ReadData.Uint64()).To(Equal(uint64(0x55)))
			Expect(a.ReadLatency()).To(Equal(2))
		})

		It("should drop the held command on reset", func() {
			step(a, target, writeReq(3, 0xf, WordFromUint64(1, 4)))
			Expect(a.Busy()).To(BeTrue())

			a.Reset()

			_, m := step(a, target, idle())
			Expect(m.Write).To(BeFalse())
			Expect(transfers).To(BeEmpty())
		})
	})
})
