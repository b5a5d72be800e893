// Package simlink provides in-memory reference adapters implementing
// osap.PortLink/PortReceiver and osap.BusLink/BusReceiver over Go
// channels, for tests and the osapsim CLI harness. It deliberately
// stays on the standard library: nothing in the retrieved example
// corpus covers in-process loopback transport, and framing concerns
// like COBS are out of scope for this layer.
package simlink

import "sync"

// PortPair is a pair of connected in-memory port adapters, one end
// for each side of a simulated point-to-point link.
type PortPair struct {
	a, b *Port
}

// NewPortPair creates two linked Port adapters; sends on one arrive
// as Recv on the other.
func NewPortPair(bufSize int) (*Port, *Port) {
	ab := make(chan []byte, bufSize)
	ba := make(chan []byte, bufSize)
	a := &Port{tx: ab, rx: ba, open: true}
	b := &Port{tx: ba, rx: ab, open: true}
	return a, b
}

// Port is one end of a simulated point-to-point link.
type Port struct {
	mu   sync.Mutex
	tx   chan []byte
	rx   chan []byte
	open bool
}

func (p *Port) Send(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case p.tx <- cp:
		return nil
	default:
		return errFull
	}
}

func (p *Port) CTS() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open && len(p.tx) < cap(p.tx)
}

func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *Port) Recv() ([]byte, bool) {
	select {
	case data := <-p.rx:
		return data, true
	default:
		return nil, false
	}
}

// Close marks the port closed; further CTS checks report false.
func (p *Port) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
}

var errFull = portFullError{}

type portFullError struct{}

func (portFullError) Error() string { return "simlink: port tx buffer full" }
