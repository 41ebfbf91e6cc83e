// Package tracing records the transfers of bridges into a database.
package tracing

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/sim"
)

// TransferTable is the name of the table that holds transfer records.
const TransferTable = "mmbridge_transfers"

// Kinds of transfer records.
const (
	KindRead     = "read"
	KindWrite    = "write"
	KindReadData = "read_data"
)

// A TransferRecord is one row of the transfer table. Addresses at or above
// 2^63 are stored as negative numbers.
type TransferRecord struct {
	ID         string
	Component  string
	Cycle      int64
	Kind       string
	Address    int64
	Lane       int64
	ByteEnable string
	BurstCount int64
	Data       string
}

// NamedHookable is a hookable object with a name, such as a bridge.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// A TransferTracer is a hook that records every transfer accepted by a
// bridge master port and every read beat returned to its slave port.
type TransferTracer struct {
	recorder Recorder
	domains  map[string]bool
	count    int
}

// NewTransferTracer creates the transfer table in the recorder.
func NewTransferTracer(r Recorder) (*TransferTracer, error) {
	if err := r.CreateTable(TransferTable, TransferRecord{}); err != nil {
		return nil, errors.WithMessage(err, "creating transfer tracer")
	}

	return &TransferTracer{
		recorder: r,
		domains:  make(map[string]bool),
	}, nil
}

// CollectTrace attaches the tracer to a domain. A domain can only be traced
// once by the same tracer.
func (t *TransferTracer) CollectTrace(domain NamedHookable) {
	if t.domains[domain.Name()] {
		panic(fmt.Sprintf("domain %s is already traced", domain.Name()))
	}

	t.domains[domain.Name()] = true
	domain.AcceptHook(t)
}

// Count returns the number of records produced.
func (t *TransferTracer) Count() int {
	return t.count
}

// Flush writes the buffered records.
func (t *TransferTracer) Flush() error {
	return t.recorder.Flush()
}

// Func records the transfer carried by the hook context.
func (t *TransferTracer) Func(ctx sim.HookCtx) {
	var rec TransferRecord

	switch ctx.Pos {
	case bridge.HookPosMasterAccept:
		rec = fromTransfer(ctx.Item.(bridge.Transfer))
	case bridge.HookPosSlaveReadData:
		rec = fromReadBeat(ctx.Item.(bridge.ReadBeat))
	default:
		return
	}

	rec.ID = sim.GetIDGenerator().Generate()
	if named, ok := ctx.Domain.(sim.Named); ok {
		rec.Component = named.Name()
	}

	if err := t.recorder.InsertData(TransferTable, rec); err != nil {
		panic(err)
	}

	t.count++
}

func fromTransfer(tr bridge.Transfer) TransferRecord {
	rec := TransferRecord{
		Cycle:      int64(tr.Cycle),
		Kind:       KindRead,
		Address:    int64(tr.Address),
		Lane:       int64(tr.Lane),
		ByteEnable: fmt.Sprintf("0x%x", tr.ByteEnable),
		BurstCount: int64(tr.BurstCount),
	}

	if tr.Kind == bridge.TransferWrite {
		rec.Kind = KindWrite
		rec.Data = tr.Data.String()
	}

	return rec
}

func fromReadBeat(b bridge.ReadBeat) TransferRecord {
	return TransferRecord{
		Cycle: int64(b.Cycle),
		Kind:  KindReadData,
		Data:  b.Data.String(),
	}
}
