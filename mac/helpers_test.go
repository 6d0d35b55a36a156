package mac

import (
	"fmt"
	"sync"

	"github.com/crystalpower/emb6mac/phy"
)

// fakePHY is a scriptable phy.Driver test double. CCA outcome and
// pending inbound frames are both fully controlled by the test.
type fakePHY struct {
	mu sync.Mutex

	on      bool
	ccaErr  error
	sendErr error
	pending [][]byte
	sent    [][]byte

	// injectOnSendCount/injectOnSendFrame, when injectOnSendFrame is
	// non-nil, queue that frame as pending as soon as Send has been
	// called injectOnSendCount times — used to deliver an ACK only
	// after a specific transmission attempt, deterministically,
	// without relying on real-time sleeps racing the ACK-wait window.
	injectOnSendCount int
	injectOnSendFrame []byte

	recv func(buf []byte)
}

func (p *fakePHY) On() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = true
	return nil
}

func (p *fakePHY) Off() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = false
	return nil
}

func (p *fakePHY) Send(buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	cp := append([]byte(nil), buf...)
	p.sent = append(p.sent, cp)

	if p.injectOnSendFrame != nil && len(p.sent) == p.injectOnSendCount {
		p.pending = append(p.pending, p.injectOnSendFrame)
	}

	return nil
}

// inject queues buf to be delivered to the MAC's Recv on the next
// Ioctl(CmdRxBufRead, ...) drain.
func (p *fakePHY) inject(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, buf)
}

func (p *fakePHY) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakePHY) Ioctl(cmd phy.Cmd, arg any) (any, error) {
	switch cmd {
	case phy.CmdCCAGet:
		p.mu.Lock()
		err := p.ccaErr
		p.mu.Unlock()
		return nil, err

	case phy.CmdIsRxBusy:
		p.mu.Lock()
		n := len(p.pending)
		p.mu.Unlock()
		if n > 0 {
			return nil, phy.ErrBusy
		}
		return nil, nil

	case phy.CmdRxBufRead:
		p.mu.Lock()
		var next []byte
		if len(p.pending) > 0 {
			next = p.pending[0]
			p.pending = p.pending[1:]
		}
		p.mu.Unlock()
		if next != nil {
			p.recv(next)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("fakephy: unrecognised ioctl command %v", cmd)
	}
}

// fakeLLC records every payload dispatched to Recv.
type fakeLLC struct {
	mu       sync.Mutex
	received [][]byte
}

func (l *fakeLLC) Recv(buf []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.received = append(l.received, append([]byte(nil), buf...))
}

func (l *fakeLLC) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.received)
}

// newTestMAC wires a fakePHY/fakeLLC pair together with a MAC built
// from cfg; tests pass fastTestConfig's shrunken timings so they run
// fast.
func newTestMAC(cfg Config) (*MAC, *fakePHY, *fakeLLC) {
	phyDrv := &fakePHY{}
	llc := &fakeLLC{}

	m, err := New(nil, phyDrv, llc, cfg)
	if err != nil {
		panic(err)
	}
	phyDrv.recv = m.Recv
	return m, phyDrv, llc
}
