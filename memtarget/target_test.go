package memtarget

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/mmbridge/bridge"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Target", func() {
	var (
		mockCtrl *gomock.Controller
		wait     *MockWaitSchedule
		t        *Target
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		wait = NewMockWaitSchedule(mockCtrl)
		wait.EXPECT().Waits(gomock.Any()).Return(false).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	cycle := func(out bridge.MasterOutputs) bridge.MasterInputs {
		in := t.Respond(out)
		Expect(t.Tick()).To(Succeed())

		return in
	}

	write := func(addr, be uint64, data bridge.Word) bridge.MasterOutputs {
		return bridge.MasterOutputs{
			Address:     addr,
			ByteEnable:  be,
			ChipSelect:  true,
			ClockEnable: true,
			Write:       true,
			WriteData:   data,
		}
	}

	read := func(addr uint64) bridge.MasterOutputs {
		return bridge.MasterOutputs{
			Address:     addr,
			ChipSelect:  true,
			ClockEnable: true,
			Read:        true,
		}
	}

	Context("default port", func() {
		BeforeEach(func() {
			t = MakeBuilder().
				WithLatency(2).
				WithWaitSchedule(wait).
				Build("Target")
		})

		It("should return read data after the latency", func() {
			cycle(write(3, 0xf, bridge.WordFromUint64(0x01020304, 4)))

			Expect(cycle(read(3)).ReadData).To(BeNil())
			Expect(cycle(bridge.MasterOutputs{}).ReadData).To(BeNil())
			in := cycle(bridge.MasterOutputs{})

			Expect(in.ReadData).To(Equal(bridge.WordFromUint64(0x01020304, 4)))
		})

		It("should store words at the byte address", func() {
			cycle(write(3, 0xf, bridge.WordFromUint64(0x01020304, 4)))

			data, err := t.Storage().Read(12, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte{4, 3, 2, 1}))
		})

		It("should honor byte enables", func() {
			cycle(write(0, 0xf, bridge.WordFromUint64(0x11111111, 4)))
			cycle(write(0, 0x6, bridge.WordFromUint64(0x22222222, 4)))

			data, _ := t.Storage().Read(0, 4)
			Expect(data).To(Equal([]byte{0x11, 0x22, 0x22, 0x11}))
		})

		It("should ignore an unselected port", func() {
			out := write(0, 0xf, bridge.WordFromUint64(1, 4))
			out.ChipSelect = false
			cycle(out)

			Expect(t.Transfers()).To(BeEmpty())
		})

		It("should log transfers", func() {
			cycle(write(2, 0x3, bridge.WordFromUint64(0xbeef, 4)))
			cycle(read(2))

			transfers := t.Transfers()
			Expect(transfers).To(HaveLen(2))
			Expect(transfers[0].Kind).To(Equal(bridge.TransferWrite))
			Expect(transfers[0].Cycle).To(BeZero())
			Expect(transfers[0].ByteEnable).To(Equal(uint64(0x3)))
			Expect(transfers[1].Kind).To(Equal(bridge.TransferRead))
			Expect(transfers[1].Address).To(Equal(uint64(2)))
			Expect(transfers[1].Data.Uint64()).To(Equal(uint64(0xbeef)))
		})
	})

	It("should hold a transfer while waiting", func() {
		sched := NewMockWaitSchedule(mockCtrl)
		sched.EXPECT().Waits(uint64(0)).Return(true)
		sched.EXPECT().Waits(uint64(1)).Return(false)
		t = MakeBuilder().WithWaitSchedule(sched).Build("Target")

		out := write(1, 0xf, bridge.WordFromUint64(7, 4))
		Expect(cycle(out).WaitRequest).To(BeTrue())
		Expect(t.Transfers()).To(BeEmpty())

		Expect(cycle(out).WaitRequest).To(BeFalse())
		Expect(t.Transfers()).To(HaveLen(1))
		Expect(t.Transfers()[0].Cycle).To(Equal(uint64(1)))
	})

	It("should not wait on a port without wait-request", func() {
		port := bridge.DefaultPortSpec(32)
		port.HasWaitRequest = false
		t = MakeBuilder().
			WithPort(port).
			WithWaitSchedule(CycleSet{0: true}).
			Build("Target")

		Expect(cycle(read(0)).WaitRequest).To(BeFalse())
		Expect(t.Transfers()).To(HaveLen(1))
	})

	It("should read on every non-write cycle without a read strobe", func() {
		port := bridge.DefaultPortSpec(32)
		port.HasRead = false
		t = MakeBuilder().WithPort(port).Build("Target")

		cycle(bridge.MasterOutputs{ChipSelect: true})

		Expect(t.Transfers()).To(HaveLen(1))
		Expect(t.Transfers()[0].Kind).To(Equal(bridge.TransferRead))
	})

	It("should honor an active-low read strobe", func() {
		port := bridge.DefaultPortSpec(32)
		port.ReadActiveLow = true
		t = MakeBuilder().WithPort(port).Build("Target")

		cycle(bridge.MasterOutputs{ChipSelect: true, Read: true})
		Expect(t.Transfers()).To(BeEmpty())

		cycle(bridge.MasterOutputs{ChipSelect: true, Read: false})
		Expect(t.Transfers()).To(HaveLen(1))
	})

	It("should use symbol addresses", func() {
		port := bridge.DefaultPortSpec(64)
		port.SymbolAddressing = true
		t = MakeBuilder().WithPort(port).Build("Target")

		cycle(write(16, 0xff, bridge.WordFromUint64(0x55, 8)))

		Expect(t.Transfers()[0].Address).To(Equal(uint64(2)))
		data, _ := t.Storage().Read(16, 1)
		Expect(data).To(Equal([]byte{0x55}))
	})

	It("should report accesses beyond the capacity", func() {
		t = MakeBuilder().WithCapacity(64).Build("Target")

		t.Respond(read(16))

		Expect(t.Tick()).To(MatchError(ContainSubstring("capacity")))
	})

	It("should panic on a zero latency", func() {
		Expect(func() { MakeBuilder().WithLatency(0).Build("Target") }).
			To(Panic())
	})
})

var _ = Describe("WaitSchedule", func() {
	It("should wait periodically", func() {
		p := Periodic{Period: 4, Busy: 1}

		Expect(p.Waits(0)).To(BeTrue())
		Expect(p.Waits(1)).To(BeFalse())
		Expect(p.Waits(4)).To(BeTrue())
		Expect(Periodic{}.Waits(0)).To(BeFalse())
	})
})
