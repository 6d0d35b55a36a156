// Package frame implements the subset of the IEEE 802.15.4-2006 MAC
// frame header that the MAC sublayer needs to parse and build: frame
// type, sequence number, addressing, and the ack-requested bit.
//
// This is the "frame codec" collaborator of spec.md §2: a minimal,
// self-contained header parser/builder rather than a full PHY-grade
// codec, grounded on the teacher's (katalix/go-l2tp) wire-encoding
// idiom in msg.go — explicit header layout, hand-checked field
// validation, big/little-endian conversions done by hand rather than
// via struct tags.
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/crystalpower/emb6mac/addr"
)

// Type is the 802.15.4 frame type carried in the low 3 bits of the FCF.
type Type uint8

const (
	TypeBeacon Type = 0
	TypeData   Type = 1
	TypeAck    Type = 2
	TypeCmd    Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeBeacon:
		return "beacon"
	case TypeData:
		return "data"
	case TypeAck:
		return "ack"
	case TypeCmd:
		return "command"
	}
	return "reserved"
}

// Version is the frame-version field of the FCF.
type Version uint8

const (
	// Version2003 is IEEE 802.15.4-2003, used for MAC-generated ACKs
	// per spec.md §4.5/§6.
	Version2003 Version = 0
	Version2006 Version = 1
)

// fcf bit layout, IEEE 802.15.4-2006 section 7.2.1.
const (
	fcfTypeMask      = 0x0007
	fcfSecurityBit   = 1 << 3
	fcfPendingBit    = 1 << 4
	fcfAckReqBit     = 1 << 5
	fcfPanCompBit    = 1 << 6
	fcfDestModeShift = 10
	fcfDestModeMask  = 0x3 << fcfDestModeShift
	fcfVersionShift  = 12
	fcfVersionMask   = 0x3 << fcfVersionShift
	fcfSrcModeShift  = 14
	fcfSrcModeMask   = 0x3 << fcfSrcModeShift
)

const (
	// headerMinLen is an FCF (2) plus sequence number (1).
	headerMinLen = 3
	panIDLen     = 2
)

// Frame is a parsed 802.15.4 MAC header. Only the fields the MAC
// sublayer consumes (spec.md §3) are represented.
type Frame struct {
	FrameType    Type
	Version      Version
	Seq          uint8
	AckRequested bool
	PanIDComp    bool

	DstPANID PANID
	DstMode  addr.Mode
	DstShort addr.Short
	DstExt   addr.Extended

	SrcPANID PANID
	SrcMode  addr.Mode
	SrcShort addr.Short
	SrcExt   addr.Extended
}

// PANID is re-exported locally for readability in this package; it is
// identical to addr.PANID.
type PANID = addr.PANID

// IsBroadcast reports whether the frame is addressed to the broadcast
// short address, per spec.md §3 ("a broadcast destination implies
// awaiting_ack = false").
func (f *Frame) IsBroadcast() bool {
	return f.DstMode == addr.ModeShort && f.DstShort.IsBroadcast()
}

func addrModeLen(m addr.Mode) int {
	switch m {
	case addr.ModeShort:
		return 2
	case addr.ModeExtended:
		return 8
	default:
		return 0
	}
}

// Parse decodes the 802.15.4 header at the start of buf. It returns
// the header length consumed, or hdrlen == 0 if buf does not contain
// a well-formed header — callers must treat that as INVALID_FRAME
// per spec.md §4.2, step 2, and not inspect frame.
func Parse(buf []byte) (hdrlen int, fr Frame, err error) {
	if len(buf) < headerMinLen {
		return 0, Frame{}, fmt.Errorf("frame: buffer shorter than minimum header length")
	}

	fcf := binary.LittleEndian.Uint16(buf[0:2])
	destMode := addr.Mode((fcf & fcfDestModeMask) >> fcfDestModeShift)
	srcMode := addr.Mode((fcf & fcfSrcModeMask) >> fcfSrcModeShift)
	if destMode == addr.ModeReserved || srcMode == addr.ModeReserved {
		return 0, Frame{}, fmt.Errorf("frame: reserved addressing mode")
	}

	fr.FrameType = Type(fcf & fcfTypeMask)
	fr.Version = Version((fcf & fcfVersionMask) >> fcfVersionShift)
	fr.AckRequested = fcf&fcfAckReqBit != 0
	fr.PanIDComp = fcf&fcfPanCompBit != 0
	fr.Seq = buf[2]
	fr.DstMode = destMode
	fr.SrcMode = srcMode

	cursor := headerMinLen

	if destMode != addr.ModeNone {
		if len(buf) < cursor+panIDLen {
			return 0, Frame{}, fmt.Errorf("frame: truncated destination PAN id")
		}
		fr.DstPANID = PANID(binary.LittleEndian.Uint16(buf[cursor : cursor+panIDLen]))
		cursor += panIDLen

		alen := addrModeLen(destMode)
		if len(buf) < cursor+alen {
			return 0, Frame{}, fmt.Errorf("frame: truncated destination address")
		}
		if destMode == addr.ModeShort {
			copy(fr.DstShort[:], buf[cursor:cursor+alen])
		} else {
			copyExtended(&fr.DstExt, buf[cursor:cursor+alen])
		}
		cursor += alen
	}

	if srcMode != addr.ModeNone {
		if !fr.PanIDComp {
			if len(buf) < cursor+panIDLen {
				return 0, Frame{}, fmt.Errorf("frame: truncated source PAN id")
			}
			fr.SrcPANID = PANID(binary.LittleEndian.Uint16(buf[cursor : cursor+panIDLen]))
			cursor += panIDLen
		} else {
			fr.SrcPANID = fr.DstPANID
		}

		alen := addrModeLen(srcMode)
		if len(buf) < cursor+alen {
			return 0, Frame{}, fmt.Errorf("frame: truncated source address")
		}
		if srcMode == addr.ModeShort {
			copy(fr.SrcShort[:], buf[cursor:cursor+alen])
		} else {
			copyExtended(&fr.SrcExt, buf[cursor:cursor+alen])
		}
		cursor += alen
	}

	return cursor, fr, nil
}

func copyExtended(dst *addr.Extended, src []byte) {
	copy(dst[:], src)
}

// HeaderLen computes the number of octets Build would emit for fr,
// without building it. Used by the ACK builder to size the reserved
// header region before writing (spec.md §4.5).
func HeaderLen(fr *Frame) int {
	n := headerMinLen
	if fr.DstMode != addr.ModeNone {
		n += panIDLen + addrModeLen(fr.DstMode)
	}
	if fr.SrcMode != addr.ModeNone {
		if !fr.PanIDComp {
			n += panIDLen
		}
		n += addrModeLen(fr.SrcMode)
	}
	return n
}

// Build serialises fr's header into buf, which must be at least
// HeaderLen(fr) bytes. It returns the number of bytes written.
func Build(fr *Frame, buf []byte) (int, error) {
	n := HeaderLen(fr)
	if len(buf) < n {
		return 0, fmt.Errorf("frame: buffer too small for header (need %d, have %d)", n, len(buf))
	}

	var fcf uint16
	fcf |= uint16(fr.FrameType) & fcfTypeMask
	if fr.AckRequested {
		fcf |= fcfAckReqBit
	}
	if fr.PanIDComp {
		fcf |= fcfPanCompBit
	}
	fcf |= uint16(fr.DstMode) << fcfDestModeShift
	fcf |= uint16(fr.SrcMode) << fcfSrcModeShift
	fcf |= uint16(fr.Version) << fcfVersionShift

	binary.LittleEndian.PutUint16(buf[0:2], fcf)
	buf[2] = fr.Seq

	cursor := headerMinLen
	if fr.DstMode != addr.ModeNone {
		binary.LittleEndian.PutUint16(buf[cursor:cursor+panIDLen], uint16(fr.DstPANID))
		cursor += panIDLen
		if fr.DstMode == addr.ModeShort {
			copy(buf[cursor:cursor+2], fr.DstShort[:])
			cursor += 2
		} else {
			copy(buf[cursor:cursor+8], fr.DstExt[:])
			cursor += 8
		}
	}
	if fr.SrcMode != addr.ModeNone {
		if !fr.PanIDComp {
			binary.LittleEndian.PutUint16(buf[cursor:cursor+panIDLen], uint16(fr.SrcPANID))
			cursor += panIDLen
		}
		if fr.SrcMode == addr.ModeShort {
			copy(buf[cursor:cursor+2], fr.SrcShort[:])
			cursor += 2
		} else {
			copy(buf[cursor:cursor+8], fr.SrcExt[:])
			cursor += 8
		}
	}

	return cursor, nil
}

// BuildAck synthesises the minimum 802.15.4 ACK frame for seq, per
// spec.md §4.5/§6: type=ACK, version=2003, no addressing, no security,
// no ack-requested. The FCS is left for the PHY to append.
func BuildAck(seq uint8) []byte {
	fr := Frame{
		FrameType: TypeAck,
		Version:   Version2003,
		Seq:       seq,
		DstMode:   addr.ModeNone,
		SrcMode:   addr.ModeNone,
	}
	buf := make([]byte, HeaderLen(&fr))
	_, _ = Build(&fr, buf)
	return buf
}
