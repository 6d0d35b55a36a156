package mac

import "errors"

// Sentinel errors implementing the taxonomy of spec.md §7. The
// teacher expresses errors as plain errors.New/fmt.Errorf strings;
// here we additionally export sentinels for the outcomes callers
// need to switch on (Send's result, in particular), following the
// "return-by-out-parameter -> sum type" design note of spec.md §9.
var (
	// ErrInvalidArgument is returned when a caller passes a nil or
	// zero-length buffer to Send (no state is touched and no TX
	// callback fires), or a nil callback to Ioctl(CmdTxCbFnctSet, ...).
	ErrInvalidArgument = errors.New("mac: invalid argument")

	// ErrInvalidFrame names the taxonomy's outcome for an oversize or
	// unparseable received frame. Recv drops such frames silently
	// (spec.md §4.2/§7) and neither returns nor uses this value.
	ErrInvalidFrame = errors.New("mac: invalid frame")

	// ErrBufferOverflow names the taxonomy's outcome for an auto-ACK
	// whose header space cannot be reserved. sendAck builds every ACK
	// in a buffer of its own, so no path in this package returns it.
	ErrBufferOverflow = errors.New("mac: buffer overflow building ack")

	// ErrNoAck is returned from Send when a unicast-reliable
	// transmission exhausts its retry budget without the peer's ACK
	// arriving.
	ErrNoAck = errors.New("mac: no ack received")

	// ErrCollision is returned from Send when a non-matching frame
	// arrives during the ACK-wait window.
	ErrCollision = errors.New("mac: collision during ack wait")

	// ErrChannelAccessFailure is returned from Send when CSMA-CA
	// exhausts its backoff budget without a clear channel.
	ErrChannelAccessFailure = errors.New("mac: channel access failure")
)
