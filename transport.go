package osap

// resolveTreeWalk advances the packet at slot across the entire
// consecutive run of SIB/PARENT/CHILD opcodes immediately following
// PTR, up to the terminal (non-tree-walk) opcode or the 16-step bound
// (spec §4.3, matching loop.cpp's internalTransport: a whole in-memory
// hop chain resolves in one pass, and only the vertex that ends up
// owning the packet — the one actually holding it when a network
// opcode or dispatch is next reached — has its hold quota checked or
// changed. Vertices passed through along the way are never touched.
//
// The walk happens twice: once read-only to find the terminal vertex
// and confirm it has room, then — only if that check passes — again to
// rewrite each hop into its exact reverse. A destination with no free
// hold quota leaves the packet completely untouched and returns
// ErrBackpressure so the scheduler retries it next tick.
func (c *Context) resolveTreeWalk(slot int32) error {
	pkt := c.Pool.Slot(slot)
	origin := pkt.vt

	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		return err
	}

	chain := []*Vertex{origin}
	fwdOff := ptrOff
	for len(chain)-1 < MaxPathSteps {
		key, arg, err := peekForward(pkt.Bytes(), fwdOff)
		if err != nil {
			return err
		}
		if !key.isTreeWalk() {
			break
		}
		cur := chain[len(chain)-1]
		var next *Vertex
		switch key {
		case KeySIB:
			next, err = cur.Sibling(int(arg))
		case KeyPARENT:
			next, err = cur.Parent()
		case KeyCHILD:
			next, err = cur.Child(int(arg))
		}
		if err != nil {
			return err
		}
		chain = append(chain, next)
		fwdOff += opcodeWidth
	}
	steps := len(chain) - 1
	if steps == 0 {
		return ErrMalformed
	}
	if steps >= MaxPathSteps {
		return ErrBoundsExceeded
	}

	dest := chain[steps]
	if dest.currentHold >= dest.maxHold {
		return ErrBackpressure
	}

	off := ptrOff
	for i := 0; i < steps; i++ {
		newOff, _, _, err := walkStep(pkt.Bytes(), off, chain[i])
		if err != nil {
			return err
		}
		off = newOff
	}

	origin.currentHold--
	dest.currentHold++
	pkt.vt = dest
	pkt.ArrivalTime = c.Now()

	c.Metrics.SetHold(origin.Name, origin.currentHold)
	c.Metrics.SetHold(dest.Name, dest.currentHold)

	return nil
}

// sendViaPort consumes a PFWD opcode and hands the packet to the
// owning port vertex's adapter. Backpressure (cts() false) leaves the
// packet queued for retry.
func (c *Context) sendViaPort(slot int32, v *Vertex) error {
	if v.port == nil {
		return ErrCapabilityMismatch
	}
	if !v.port.adapter.CTS() {
		return ErrBackpressure
	}

	pkt := c.Pool.Slot(slot)
	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		return err
	}
	if _, _, _, err := walkStep(pkt.Bytes(), ptrOff, v); err != nil {
		return err
	}

	if err := v.port.adapter.Send(pkt.Bytes()); err != nil {
		return err
	}
	c.Pool.Release(slot)
	return nil
}

// sendViaBus consumes a BFWD or BBRD opcode and hands the packet to
// the owning bus vertex's adapter, addressed or broadcast as the
// opcode directs.
func (c *Context) sendViaBus(slot int32, v *Vertex, key Key, arg uint16) error {
	if v.bus == nil {
		return ErrCapabilityMismatch
	}

	switch key {
	case KeyBFWD:
		if !v.bus.adapter.CTS(arg) {
			return ErrBackpressure
		}
	case KeyBBRD:
		if !v.bus.adapter.CTB(arg) {
			return ErrBackpressure
		}
	default:
		return ErrMalformed
	}

	pkt := c.Pool.Slot(slot)
	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		return err
	}
	if _, _, _, err := walkStep(pkt.Bytes(), ptrOff, v); err != nil {
		return err
	}

	var sendErr error
	switch key {
	case KeyBFWD:
		sendErr = v.bus.adapter.Send(arg, pkt.Bytes())
	case KeyBBRD:
		sendErr = v.bus.adapter.Broadcast(arg, pkt.Bytes())
	}
	if sendErr != nil {
		return sendErr
	}
	c.Pool.Release(slot)
	return nil
}
