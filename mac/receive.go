package mac

import (
	"github.com/go-kit/kit/log/level"

	"github.com/crystalpower/emb6mac/frame"
)

// Recv is the MAC's entry point for a frame arriving from the PHY
// (spec.md §4.2). It is invoked synchronously, on the caller's own
// goroutine, from Ioctl(CmdRxBufRead, ...) — there is no receive
// goroutine of its own.
func (m *MAC) Recv(buf []byte) {
	if len(buf) > m.cfg.PacketBufSize {
		level.Debug(m.logger).Log("message", "oversize frame discarded", "length", len(buf))
		return
	}

	hdrlen, fr, err := frame.Parse(buf)
	if err != nil || hdrlen == 0 {
		level.Debug(m.logger).Log("message", "malformed frame discarded", "error", err)
		return
	}

	m.mu.Lock()
	m.hasData = true
	awaiting := m.awaitingAck
	expectedSeq := m.expectedSeq
	m.mu.Unlock()

	if awaiting {
		m.resolveAckWait(&fr, expectedSeq)
		return
	}

	switch fr.FrameType {
	case frame.TypeData, frame.TypeCmd:
		if m.ackRequiredFor(&fr) {
			m.sendAck(fr.Seq)
		}
		m.llc.Recv(buf[hdrlen:])

	case frame.TypeAck:
		level.Debug(m.logger).Log("message", "unsolicited ack discarded", "seq", fr.Seq)

	default:
		level.Debug(m.logger).Log("message", "unrecognised frame type discarded", "type", fr.FrameType)
	}
}

// ackRequiredFor reports whether fr calls for an automatic ACK, per
// spec.md §4.2 step 5 / SPEC_FULL.md §1.6: the ack-requested bit is
// set, the frame is on our PAN, it is not a broadcast, and it is
// addressed to our extended address. Consulting m.addrs under the
// lock mirrors how awaitingAck/expectedSeq are read above.
func (m *MAC) ackRequiredFor(fr *frame.Frame) bool {
	if !fr.AckRequested || fr.IsBroadcast() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return fr.DstPANID == m.addrs.PAN && m.addrs.MatchesExtended(fr.DstExt)
}

// resolveAckWait implements the WAIT_ACK arbitration of spec.md §4.1:
// a frame that matches the outstanding ACK resolves the wait
// successfully; anything else is a collision, and the transmit engine
// does not retry a collision.
func (m *MAC) resolveAckWait(fr *frame.Frame, expectedSeq uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fr.FrameType == frame.TypeAck && fr.Seq == expectedSeq {
		m.txResult = nil
		level.Debug(m.logger).Log("message", "ack matched", "seq", fr.Seq)
		return
	}

	m.txResult = ErrCollision
	level.Debug(m.logger).Log(
		"message", "collision during ack wait",
		"got_type", fr.FrameType,
		"got_seq", fr.Seq,
		"expected_seq", expectedSeq)
}
