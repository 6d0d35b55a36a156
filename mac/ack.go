package mac

import (
	"github.com/go-kit/kit/log/level"

	"github.com/crystalpower/emb6mac/frame"
)

// sendAck emits the automatic ACK for a received frame that requested
// one (spec.md §4.5). It is best-effort: a PHY send failure here is
// logged but never surfaces to Recv's caller, since the peer will
// simply retry the original frame.
func (m *MAC) sendAck(seq uint8) {
	ack := frame.BuildAck(seq)

	if err := m.phy.Send(ack); err != nil {
		level.Debug(m.logger).Log("message", "ack send failed", "seq", seq, "error", err)
		return
	}

	level.Debug(m.logger).Log("message", "ack sent", "seq", seq)
}
