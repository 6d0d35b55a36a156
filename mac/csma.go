package mac

import (
	"time"

	"github.com/go-kit/kit/log/level"

	"github.com/crystalpower/emb6mac/phy"
)

// runCSMA performs unslotted CSMA-CA per spec.md §4.4. It returns nil
// when the channel is clear, or when the radio is already busy
// receiving (which counts as a successful termination: the medium is
// in use by a frame that may be destined for this node, and the
// subsequent PHY send will itself fail cleanly if the radio is still
// busy). It returns ErrChannelAccessFailure once the backoff budget
// is exhausted.
func (m *MAC) runCSMA() error {
	nb := 0
	be := int(m.cfg.MinBE)

	for nb <= int(m.cfg.MaxBackoffs) {
		maxRandom := (1 << uint(be)) - 1
		delay := time.Duration(m.rng.Intn(maxRandom+1)) * time.Duration(m.cfg.UnitBackoffMicros) * time.Microsecond
		m.rng.Delay(delay)

		_, err := m.phy.Ioctl(phy.CmdCCAGet, nil)
		if err == nil || err == phy.ErrBusy {
			level.Debug(m.logger).Log("message", "csma clear", "nb", nb, "be", be)
			return nil
		}

		nb++
		if be+1 < int(m.cfg.MaxBE) {
			be++
		} else {
			be = int(m.cfg.MaxBE)
		}
	}

	level.Debug(m.logger).Log("message", "csma exhausted", "nb", nb)
	return ErrChannelAccessFailure
}
