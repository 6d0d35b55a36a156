package mac

// TxAttrs carries the per-transmission packet-buffer attributes
// spec.md §3/§6 describes being queried during Send: whether the
// frame is a broadcast, whether the sender wants acknowledged
// delivery, the maximum number of MAC transmissions to attempt, and
// the sequence number the frame already carries.
//
// The C original threads these through a process-wide singleton
// packet buffer; per the design note in spec.md §9 ("global mutable
// state -> explicit context") this implementation passes them
// explicitly into Send instead.
type TxAttrs struct {
	// Broadcast marks the frame as addressed to the broadcast short
	// address. A broadcast is never acknowledged or retried
	// regardless of Reliable (spec.md §3 invariant).
	Broadcast bool
	// Reliable requests acknowledged, retried delivery. Ignored when
	// Broadcast is set.
	Reliable bool
	// MaxTransmissions bounds the total number of PHY sends (the
	// initial attempt plus retries) for a reliable unicast.
	MaxTransmissions uint8
	// SeqNo is the sequence number already encoded into the frame
	// passed to Send; the MAC does not assign it.
	SeqNo uint8
}

// ackRequired applies the spec.md §4.1 derivation:
// ack_required = reliable AND NOT broadcast.
func (a TxAttrs) ackRequired() bool {
	return a.Reliable && !a.Broadcast
}
