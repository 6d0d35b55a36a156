// Package phy defines the lower-MAC interface that the MAC sublayer
// consumes from the physical radio driver (spec.md §2, §6). The
// physical radio itself — modulation, channel selection — is out of
// scope; only this small capability set is modeled, following the
// design note in spec.md §9 ("model as a small operations table keyed
// at stack build time").
package phy

import "errors"

// Cmd identifies a lower-MAC ioctl command.
type Cmd int

const (
	// CmdCCAGet requests a clear-channel assessment. Driver.Ioctl
	// returns (nil, nil) if the channel is clear, (nil, ErrBusy) if
	// the radio is already receiving, or (nil, ErrChannelBusy)
	// otherwise (spec.md §4.4).
	CmdCCAGet Cmd = iota
	// CmdIsRxBusy asks whether the radio is currently receiving a
	// frame. Ioctl returns (nil, ErrBusy) if so, (nil, nil) otherwise.
	CmdIsRxBusy
	// CmdRxBufRead drains the radio's receive buffer, if any frame is
	// pending, dispatching it synchronously to the upper MAC's Recv
	// entry point before returning (spec.md §4.3).
	CmdRxBufRead
)

// Sentinel errors returned from Ioctl(CmdCCAGet, ...) and
// Ioctl(CmdIsRxBusy, ...) per spec.md §4.4's CSMA-CA algorithm.
var (
	// ErrBusy indicates the radio is already receiving a frame.
	// CSMA-CA treats this as a successful CCA termination (spec.md
	// §4.4 rationale): the medium is in use by a frame that may be
	// destined for this node.
	ErrBusy = errors.New("phy: radio is receiving")
	// ErrChannelBusy indicates CCA detected energy on the channel
	// from something other than an in-progress reception.
	ErrChannelBusy = errors.New("phy: channel busy")
)

// Driver is the lower-MAC interface consumed from the PHY (spec.md §6).
type Driver interface {
	On() error
	Off() error
	// Send transmits buf. It does not block for an ACK; that is the
	// MAC sublayer's concern.
	Send(buf []byte) error
	// Ioctl issues a driver command. Unrecognised commands at the MAC
	// ioctl surface are forwarded here verbatim (spec.md §4.6).
	Ioctl(cmd Cmd, arg any) (any, error)
}
