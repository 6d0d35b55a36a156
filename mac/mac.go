// Package mac implements the IEEE 802.15.4 MAC sublayer: CSMA-CA
// medium access, unicast reliability via ACK/retry, automatic ACK
// emission, and the receive-side demultiplexer that ties them
// together. See spec.md / SPEC_FULL.md §1.6 for the full contract.
//
// The package gathers what the C original keeps as file-scope
// globals into a single context record, MAC, allocated once by New
// and passed by reference to every operation (spec.md §9, "global
// mutable state -> explicit context"). Fields shared between the
// transmit and receive engines (awaitingAck, hasData, txResult) are
// guarded by a mutex, anticipating the ported/threaded-radio case
// spec.md §5 calls out even though the reference PHY in this module
// runs on the caller's own goroutine.
package mac

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/crystalpower/emb6mac/addr"
	"github.com/crystalpower/emb6mac/phy"
	"github.com/crystalpower/emb6mac/timer"
)

// LLC is the upper-layer interface the MAC dispatches received data
// and command frames to (spec.md §6, "upper MAC interface").
type LLC interface {
	Recv(buf []byte)
}

// TxCallback is invoked exactly once per Send call that passes
// argument validation, with the final outcome, once the transmit
// engine reaches its DONE state (spec.md §4.1, §6).
type TxCallback func(arg any, err error)

// Config holds the CSMA-CA and ACK-wait tuning parameters of spec.md
// §6. Zero-valued fields are replaced with compiled-in defaults (see
// const.go) when passed to New.
type Config struct {
	MinBE             uint8
	MaxBE             uint8
	MaxBackoffs       uint8
	UnitBackoffMicros uint32
	PacketBufSize     int
	WFAPeriod         time.Duration
}

// MAC is the IEEE 802.15.4 MAC sublayer context record (spec.md §3).
type MAC struct {
	logger log.Logger
	cfg    Config
	phy    phy.Driver
	llc    LLC
	addrs  addr.Register
	rng    Backoff

	mu          sync.Mutex
	awaitingAck bool
	hasData     bool
	txResult    error
	expectedSeq uint8
	txCb        TxCallback
	txCbArg     any
	wfaTimer    *timer.Timer
}

// New allocates a MAC instance. The PHY and LLC must be non-nil; the
// logger may be nil to disable logging, per the teacher's convention
// (l2tp/doc.go).
func New(logger log.Logger, phyDrv phy.Driver, llc LLC, cfg Config) (*MAC, error) {
	if phyDrv == nil {
		return nil, fmt.Errorf("mac: nil phy driver")
	}
	if llc == nil {
		return nil, fmt.Errorf("mac: nil llc")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	sanitise(&cfg)

	m := &MAC{
		logger: log.With(logger, "component", "mac"),
		cfg:    cfg,
		phy:    phyDrv,
		llc:    llc,
		rng:    newDefaultBackoff(),
	}
	m.wfaTimer = timer.New(cfg.WFAPeriod)
	return m, nil
}

// Init stashes the node's link-layer addressing and resets MAC state,
// per spec.md §4.7. It must be called once, before On/Send/Recv.
func (m *MAC) Init(ext addr.Extended, pan addr.PANID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addrs.Set(ext, pan)
	m.awaitingAck = false
	m.hasData = false
	m.txResult = nil
	m.txCb = nil
	m.txCbArg = nil

	level.Info(m.logger).Log(
		"message", "init",
		"ext_addr", ext,
		"pan_id", pan)

	return nil
}

// On turns the radio on. Pure passthrough to the PHY (spec.md §4.7).
func (m *MAC) On() error {
	return m.phy.On()
}

// Off turns the radio off. Pure passthrough to the PHY (spec.md §4.7).
func (m *MAC) Off() error {
	return m.phy.Off()
}
