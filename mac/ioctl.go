package mac

import (
	"github.com/crystalpower/emb6mac/phy"
)

// Cmd identifies a MAC-level ioctl command (spec.md §4.6).
type Cmd int

// MAC-level commands are numbered well above the PHY's own command
// space (phy.Cmd) so that an unrecognised value forwarded verbatim to
// Driver.Ioctl cannot collide with a MAC-level one.
const (
	// CmdTxCbFnctSet installs the TxCallback invoked at the end of
	// every Send that is not given a callback of its own. arg must be
	// a TxCallback; nil is rejected.
	CmdTxCbFnctSet Cmd = 1000 + iota
	// CmdTxCbArgSet installs the opaque argument passed to the
	// installed TxCallback.
	CmdTxCbArgSet
)

// Ioctl issues a MAC-level command. Commands this package does not
// recognise are forwarded verbatim to the underlying PHY driver,
// mirroring the pass-through ioctl surface of spec.md §4.6.
func (m *MAC) Ioctl(cmd Cmd, arg any) (any, error) {
	switch cmd {
	case CmdTxCbFnctSet:
		cb, ok := arg.(TxCallback)
		if !ok || cb == nil {
			return nil, ErrInvalidArgument
		}
		m.mu.Lock()
		m.txCb = cb
		m.mu.Unlock()
		return nil, nil

	case CmdTxCbArgSet:
		m.mu.Lock()
		m.txCbArg = arg
		m.mu.Unlock()
		return nil, nil

	default:
		return m.phy.Ioctl(phy.Cmd(cmd), arg)
	}
}
