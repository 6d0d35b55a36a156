package mac

import (
	"github.com/go-kit/kit/log/level"
)

// Transmit engine states, named after spec.md §4.1 so they show up
// literally in logs and test failures. Driven by the fsm in fsm.go.
const (
	stateCCA     = "CCA"
	stateTX      = "TX"
	stateWaitAck = "WAIT_ACK"
	stateDone    = "DONE"
)

// Send transmits buf with the given attributes (spec.md §4.1). It
// blocks until the transmission is fully resolved — CSMA-CA, the PHY
// send, and (for a reliable unicast) the ACK-wait/retry loop — and
// then invokes cb exactly once with the final outcome before
// returning that same outcome. When cb is nil, the callback installed
// with Ioctl(CmdTxCbFnctSet, ...) is invoked instead, with the
// argument installed by CmdTxCbArgSet. A nil or empty buf returns
// ErrInvalidArgument at once, and no callback is invoked.
//
// A broadcast, or a non-reliable unicast, completes as soon as the PHY
// accepts the frame: no ACK is awaited and none is expected.
func (m *MAC) Send(buf []byte, attrs TxAttrs, cb TxCallback, cbArg any) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}

	ackReq := attrs.ackRequired()
	maxTx := attrs.MaxTransmissions
	if maxTx == 0 {
		maxTx = 1
	}

	m.mu.Lock()
	if cb == nil {
		cb, cbArg = m.txCb, m.txCbArg
	}
	m.expectedSeq = attrs.SeqNo
	m.mu.Unlock()

	var result error
	attempt := uint8(0)

	f := &fsm{current: stateCCA}
	f.table = []fsmTransition{
		{from: stateCCA, to: stateTX, events: []string{"cca_clear"}},
		{from: stateCCA, to: stateDone, events: []string{"cca_fail"},
			cb: func() { result = ErrChannelAccessFailure }},
		{from: stateTX, to: stateWaitAck, events: []string{"sent_ack_req"}},
		{from: stateTX, to: stateDone, events: []string{"sent_no_ack"},
			cb: func() { result = nil }},
		{from: stateTX, to: stateDone, events: []string{"send_failed"}},
		{from: stateWaitAck, to: stateDone, events: []string{"ack_ok"},
			cb: func() { result = nil }},
		{from: stateWaitAck, to: stateDone, events: []string{"ack_collision"},
			cb: func() { result = ErrCollision }},
		{from: stateWaitAck, to: stateCCA, events: []string{"ack_timeout_retry"}},
		{from: stateWaitAck, to: stateDone, events: []string{"ack_timeout_final"},
			cb: func() { result = ErrNoAck }},
	}

	for f.current != stateDone {
		switch f.current {
		case stateCCA:
			attempt++
			if err := m.runCSMA(); err != nil {
				_ = f.handleEvent("cca_fail")
				continue
			}
			_ = f.handleEvent("cca_clear")

		case stateTX:
			if ackReq {
				m.mu.Lock()
				m.awaitingAck = true
				m.txResult = ErrNoAck
				m.mu.Unlock()
			}

			if err := m.phy.Send(buf); err != nil {
				m.mu.Lock()
				m.awaitingAck = false
				m.mu.Unlock()
				result = err
				_ = f.handleEvent("send_failed")
				continue
			}

			if !ackReq {
				_ = f.handleEvent("sent_no_ack")
				continue
			}
			_ = f.handleEvent("sent_ack_req")

		case stateWaitAck:
			m.waitForAck()

			m.mu.Lock()
			txResult := m.txResult
			m.awaitingAck = false
			m.mu.Unlock()

			switch txResult {
			case nil:
				_ = f.handleEvent("ack_ok")
			case ErrCollision:
				_ = f.handleEvent("ack_collision")
			default:
				if attempt < maxTx {
					_ = f.handleEvent("ack_timeout_retry")
				} else {
					_ = f.handleEvent("ack_timeout_final")
				}
			}
		}
	}

	level.Debug(m.logger).Log(
		"message", "send done",
		"result", result,
		"attempts", attempt,
		"ack_required", ackReq)

	if cb != nil {
		cb(cbArg, result)
	}

	return result
}
