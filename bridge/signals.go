package bridge

// SlaveInputs are the signals that the initiator drives into the slave port
// in one cycle. Fields of signals that the slave port does not have are
// ignored.
type SlaveInputs struct {
	Address     uint64
	ByteEnable  uint64
	ChipSelect  bool
	ClockEnable bool

	// Read is the level of the read strobe, which is active low if the port
	// is configured so.
	Read bool

	Write     bool
	WriteData Word

	// BurstCount is the number of read beats requested. Only used in burst
	// mode.
	BurstCount uint
}

// SlaveOutputs are the signals that the bridge drives back to the initiator.
type SlaveOutputs struct {
	WaitRequest   bool
	ReadData      Word
	ReadDataValid bool
}

// MasterOutputs are the signals that the bridge drives into the target.
type MasterOutputs struct {
	Address     uint64
	ByteEnable  uint64
	ChipSelect  bool
	ClockEnable bool

	// Read is the level of the read strobe, which is active low if the
	// master port is configured so. It is never asserted on a master port
	// without read strobe.
	Read bool

	Write     bool
	WriteData Word

	// BurstCount is only driven in master burst packing mode.
	BurstCount uint
}

// MasterInputs are the signals that the target drives back to the bridge.
type MasterInputs struct {
	WaitRequest bool
	ReadData    Word
}

// request is a slave request after all the optional signals are resolved.
type request struct {
	read       bool
	write      bool
	address    uint64
	byteEnable uint64
	data       Word
	burstCount uint
}

func (r request) valid() bool {
	return r.read || r.write
}

// signalResolver maps the physical signals of both ports to always-present
// logical signals, so that the rest of the bridge never checks whether a
// signal exists.
type signalResolver struct {
	slave     PortSpec
	master    PortSpec
	direction Direction

	slaveWord      addressSplitter
	burstCountMask uint
}

func newSignalResolver(c Config) signalResolver {
	return signalResolver{
		slave:          c.Slave,
		master:         c.Master,
		direction:      c.Direction,
		slaveWord:      newAddressSplitter(c.Slave.SymbolsPerWord()),
		burstCountMask: c.burstCountMask(),
	}
}

// resolveSlave returns the request that the slave inputs express in this
// cycle, whether or not the bridge can accept it.
func (r signalResolver) resolveSlave(in SlaveInputs) request {
	selected := in.ChipSelect || !r.slave.HasChipSelect
	enabled := in.ClockEnable || !r.slave.HasClockEnable

	if !selected || !enabled {
		return request{}
	}

	write := in.Write && r.direction.CanWrite()

	var read bool
	switch {
	case !r.direction.CanRead():
		read = false
	case !r.slave.HasRead:
		read = !in.Write
	case r.slave.ReadActiveLow:
		read = !in.Read
	default:
		read = in.Read
	}

	if read && write {
		read = false
	}

	if !read && !write {
		return request{}
	}

	be := r.slave.byteEnableMask()
	if r.slave.HasByteEnable {
		be &= in.ByteEnable
	}

	return request{
		read:       read,
		write:      write,
		address:    r.slaveWordAddress(in.Address),
		byteEnable: be,
		data:       in.WriteData,
		burstCount: in.BurstCount & r.burstCountMask,
	}
}

func (r signalResolver) slaveWordAddress(addr uint64) uint64 {
	addr &= r.slave.AddressMask()
	if !r.slave.SymbolAddressing {
		return addr
	}

	word, _ := r.slaveWord.Split(addr)

	return word
}

func (r signalResolver) masterAddress(word uint64) uint64 {
	if r.master.SymbolAddressing {
		word *= uint64(r.master.SymbolsPerWord())
	}

	return word & r.master.AddressMask()
}

// masterWait returns the effective wait-request of the master port.
func (r signalResolver) masterWait(in MasterInputs) bool {
	return r.master.HasWaitRequest && in.WaitRequest
}

// driveMaster converts a command to the physical signals of the master port.
func (r signalResolver) driveMaster(cmd command) MasterOutputs {
	out := MasterOutputs{
		ClockEnable: true,
		ChipSelect:  cmd.valid() || !r.master.HasChipSelect,
		Read:        r.master.ReadActiveLow,
	}

	if !cmd.valid() {
		return out
	}

	out.Address = r.masterAddress(cmd.address)
	out.Write = cmd.write
	out.WriteData = cmd.data
	out.BurstCount = cmd.burstCount

	if r.master.HasRead && cmd.read {
		out.Read = !r.master.ReadActiveLow
	}

	out.ByteEnable = r.master.byteEnableMask()
	if r.master.HasByteEnable {
		out.ByteEnable &= cmd.byteEnable
	}

	return out
}
