// Package addr defines the IEEE 802.15.4 addressing types shared by
// the frame codec and the MAC sublayer: short and extended link-layer
// addresses, PAN identifiers, and the node's own address register.
package addr

import "fmt"

// Mode describes how an address is encoded in a frame header.
type Mode uint8

const (
	// ModeNone indicates no address is present.
	ModeNone Mode = iota
	// ModeReserved is a reserved value per IEEE 802.15.4-2006 table 95.
	ModeReserved
	// ModeShort indicates a 16-bit short address.
	ModeShort
	// ModeExtended indicates a 64-bit extended address.
	ModeExtended
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeShort:
		return "short"
	case ModeExtended:
		return "extended"
	}
	return "reserved"
}

// Short is a 16-bit short address.
type Short [2]byte

// Extended is a 64-bit extended (EUI-64 style) address.
type Extended [8]byte

// PANID is a 16-bit Personal Area Network identifier.
type PANID uint16

// Broadcast is the reserved short address meaning "all devices in PAN".
var Broadcast = Short{0xff, 0xff}

// BroadcastPANID is the reserved PAN id used to indicate "don't care"/broadcast.
const BroadcastPANID PANID = 0xffff

func (s Short) String() string {
	return fmt.Sprintf("%02x%02x", s[0], s[1])
}

func (e Extended) String() string {
	return fmt.Sprintf("%016x", [8]byte(e))
}

// IsBroadcast reports whether s is the reserved broadcast short address.
func (s Short) IsBroadcast() bool {
	return s == Broadcast
}

// Register is the shared, process-wide store for this node's own
// addressing configuration. It plays the role of the stack's
// "address register" that spec.md §3/§4.7 describes mac.Init writing
// the configured extended address into, and which the receive engine
// consults when deciding whether an incoming unicast is destined for
// this node.
type Register struct {
	Ext   Extended
	Short Short
	PAN   PANID
}

// Set installs the node's extended address and PAN id. It is called
// once during MAC init, mirroring the C original's
// "memcpy(&uip_lladdr.addr, &mac_phy_config.mac_address, 8)".
func (r *Register) Set(ext Extended, pan PANID) {
	r.Ext = ext
	r.PAN = pan
}

// MatchesExtended reports whether a equals this node's configured
// extended address.
func (r *Register) MatchesExtended(a Extended) bool {
	return r.Ext == a
}

// MatchesShort reports whether a equals this node's configured
// short address.
func (r *Register) MatchesShort(a Short) bool {
	return r.Short == a
}
