package tracing

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TransferTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockRecorder
		tracer   *TransferTracer
		adapter  *bridge.Adapter
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockRecorder(mockCtrl)
		recorder.EXPECT().
			CreateTable(TransferTable, TransferRecord{}).
			Return(nil)

		var err error
		tracer, err = NewTransferTracer(recorder)
		Expect(err).NotTo(HaveOccurred())

		adapter, err = bridge.MakeBuilder().
			WithMaster(bridge.DefaultPortSpec(64)).
			Build("Bridge")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record accepted writes", func() {
		recorder.EXPECT().
			InsertData(TransferTable, gomock.Any()).
			Do(func(_ string, entry any) {
				rec := entry.(TransferRecord)
				Expect(rec.Component).To(Equal("Bridge"))
				Expect(rec.Kind).To(Equal(KindWrite))
				Expect(rec.Cycle).To(Equal(int64(7)))
				Expect(rec.Address).To(Equal(int64(2)))
				Expect(rec.Lane).To(Equal(int64(1)))
				Expect(rec.ByteEnable).To(Equal("0xf0"))
				Expect(rec.Data).To(Equal("0x00000001"))
				Expect(rec.ID).NotTo(BeEmpty())
			}).
			Return(nil)

		tracer.Func(sim.HookCtx{
			Domain: adapter,
			Pos:    bridge.HookPosMasterAccept,
			Item: bridge.Transfer{
				Cycle:      7,
				Kind:       bridge.TransferWrite,
				Address:    2,
				Lane:       1,
				ByteEnable: 0xf0,
				Data:       bridge.WordFromUint64(1, 4),
			},
		})

		Expect(tracer.Count()).To(Equal(1))
	})

	It("should record read data", func() {
		recorder.EXPECT().
			InsertData(TransferTable, gomock.Any()).
			Do(func(_ string, entry any) {
				rec := entry.(TransferRecord)
				Expect(rec.Kind).To(Equal(KindReadData))
				Expect(rec.Data).To(Equal("0xbeef"))
			}).
			Return(nil)

		tracer.Func(sim.HookCtx{
			Domain: adapter,
			Pos:    bridge.HookPosSlaveReadData,
			Item:   bridge.ReadBeat{Cycle: 3, Data: bridge.Word{0xef, 0xbe}},
		})
	})

	It("should ignore other positions", func() {
		tracer.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent})

		Expect(tracer.Count()).To(BeZero())
	})

	It("should trace a domain once", func() {
		tracer.CollectTrace(adapter)

		Expect(adapter.NumHooks()).To(Equal(1))
		Expect(func() { tracer.CollectTrace(adapter) }).To(Panic())
	})

	It("should report table errors", func() {
		r := NewMockRecorder(mockCtrl)
		r.EXPECT().CreateTable(gomock.Any(), gomock.Any()).
			Return(errors.New("disk full"))

		_, err := NewTransferTracer(r)

		Expect(err).To(MatchError(ContainSubstring("disk full")))
	})
})

var _ = Describe("Tracing a bridge", func() {
	It("should store the transfers of a run", func() {
		db, err := sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)
		defer db.Close()

		tracer, err := NewTransferTracer(NewRecorderWithDB(db))
		Expect(err).NotTo(HaveOccurred())

		adapter, err := bridge.MakeBuilder().
			WithMaster(bridge.DefaultPortSpec(128)).
			Build("Bridge")
		Expect(err).NotTo(HaveOccurred())
		tracer.CollectTrace(adapter)

		respond := bridge.ResponderFunc(
			func(bridge.MasterOutputs) bridge.MasterInputs {
				return bridge.MasterInputs{ReadData: make(bridge.Word, 16)}
			})

		adapter.Evaluate(bridge.SlaveInputs{
			Address: 6, ByteEnable: 0xf, ChipSelect: true, ClockEnable: true,
			Write: true, WriteData: bridge.WordFromUint64(0x66, 4),
		}, respond)
		adapter.Tick()

		adapter.Evaluate(bridge.SlaveInputs{
			Address: 6, ByteEnable: 0xf, ChipSelect: true, ClockEnable: true,
			Read: true,
		}, respond)
		adapter.Tick()

		adapter.Evaluate(bridge.SlaveInputs{ClockEnable: true}, respond)
		adapter.Tick()

		Expect(tracer.Flush()).To(Succeed())

		records, err := NewReaderWithDB(db).
			Transfers(context.Background(), "Bridge")
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0].Kind).To(Equal(KindWrite))
		Expect(records[0].Address).To(Equal(int64(1)))
		Expect(records[0].Lane).To(Equal(int64(2)))
		Expect(records[0].ByteEnable).To(Equal("0xf00"))
		Expect(records[1].Kind).To(Equal(KindRead))
		Expect(records[2].Kind).To(Equal(KindReadData))
		Expect(records[2].Cycle).To(Equal(int64(2)))
	})
})
