package mac

import (
	"github.com/go-kit/kit/log/level"

	"github.com/crystalpower/emb6mac/phy"
	"github.com/crystalpower/emb6mac/timer"
)

// waitForAck blocks for at most one ACK-wait window (spec.md §4.3).
// It returns true if any frame arrived during the window (the
// receive engine, invoked synchronously from the PHY's drain ioctl,
// will have updated hasData/txResult), false on timeout.
//
// The polling discipline here is what gives spec.md §5's ordering
// guarantee: recv's mutation of hasData/txResult happens-before this
// function's read of them, because recv runs synchronously on this
// same call stack via Ioctl(CmdRxBufRead, ...).
func (m *MAC) waitForAck() bool {
	m.wfaTimer.Stop()
	m.wfaTimer.Start()
	m.mu.Lock()
	m.hasData = false
	m.mu.Unlock()

	for {
		_, err := m.phy.Ioctl(phy.CmdIsRxBusy, nil)
		if err == phy.ErrBusy {
			for {
				_, _ = m.phy.Ioctl(phy.CmdRxBufRead, nil)
				m.mu.Lock()
				got := m.hasData
				m.mu.Unlock()
				if got {
					break
				}
			}
			break
		}

		if m.wfaTimer.State() != timer.Running {
			break
		}
	}

	m.wfaTimer.Stop()

	m.mu.Lock()
	hasData := m.hasData
	m.mu.Unlock()

	level.Debug(m.logger).Log("message", "wait for ack done", "has_data", hasData)
	return hasData
}
