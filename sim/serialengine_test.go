package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	mockEvent := func(t VTimeInSec, h Handler, secondary bool) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()
		evt.EXPECT().Handler().Return(h).AnyTimes()
		evt.EXPECT().IsSecondary().Return(secondary).AnyTimes()

		return evt
	}

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := mockEvent(4.0, handler1, false)
		evt2 := mockEvent(2.0, handler2, false)
		evt3 := mockEvent(3.0, handler1, false)
		evt4 := mockEvent(5.0, handler1, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2).DoAndReturn(
			func(e Event) error {
				engine.Schedule(evt3)
				engine.Schedule(evt4)
				return nil
			})
		handleEvt3 := handler1.EXPECT().Handle(evt3).
			Return(nil).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().Handle(evt1).
			Return(nil).After(handleEvt3)
		handler1.EXPECT().Handle(evt4).Return(nil).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(5.0)))
	})

	It("should run secondary events after same-time primary events", func() {
		handler := NewMockHandler(mockCtrl)
		secondary := mockEvent(1.0, handler, true)
		primary := mockEvent(1.0, handler, false)

		handlePrimary := handler.EXPECT().Handle(primary).Return(nil)
		handler.EXPECT().Handle(secondary).Return(nil).After(handlePrimary)

		engine.Schedule(secondary)
		engine.Schedule(primary)

		Expect(engine.Run()).To(Succeed())
	})

	It("should stop at the first handler error", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(1.0, handler, false)
		evt2 := mockEvent(2.0, handler, false)

		handler.EXPECT().Handle(evt1).Return(errors.New("boom"))

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(MatchError("boom"))
	})

	It("should invoke hooks around events", func() {
		handler := NewMockHandler(mockCtrl)
		hook := NewMockHook(mockCtrl)
		evt := mockEvent(1.0, handler, false)
		engine.AcceptHook(hook)

		before := hook.EXPECT().Func(HookCtx{
			Domain: engine,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		})
		handle := handler.EXPECT().Handle(evt).Return(nil).After(before)
		hook.EXPECT().Func(HookCtx{
			Domain: engine,
			Pos:    HookPosAfterEvent,
			Item:   evt,
		}).After(handle)

		engine.Schedule(evt)
		Expect(engine.Run()).To(Succeed())
	})

	It("should panic when scheduling an event in the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(2.0, handler, false)
		evt2 := mockEvent(1.0, handler, false)

		handler.EXPECT().Handle(evt1).DoAndReturn(func(e Event) error {
			Expect(func() { engine.Schedule(evt2) }).To(Panic())
			return nil
		})

		engine.Schedule(evt1)
		Expect(engine.Run()).To(Succeed())
	})

	It("should call simulation end handlers when finished", func() {
		var calledAt VTimeInSec = -1
		engine.RegisterSimulationEndHandler(endHandlerFunc(
			func(now VTimeInSec) { calledAt = now }))

		engine.Finished()

		Expect(calledAt).To(Equal(VTimeInSec(0)))
	})
})

type endHandlerFunc func(now VTimeInSec)

func (f endHandlerFunc) Handle(now VTimeInSec) {
	f(now)
}
