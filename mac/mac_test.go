package mac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystalpower/emb6mac/addr"
	"github.com/crystalpower/emb6mac/frame"
	"github.com/crystalpower/emb6mac/phy"
)

func fastTestConfig() Config {
	return Config{
		MinBE:             1,
		MaxBE:             2,
		MaxBackoffs:       2,
		UnitBackoffMicros: 10,
		PacketBufSize:     127,
		WFAPeriod:         5 * time.Millisecond,
	}
}

// recordCallback returns a TxCallback plus a way to block until it
// fires and inspect what it was given.
func recordCallback() (cb TxCallback, wait func() (any, error)) {
	done := make(chan struct{})
	var gotArg any
	var gotErr error
	cb = func(arg any, err error) {
		gotArg = arg
		gotErr = err
		close(done)
	}
	wait = func() (any, error) {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		return gotArg, gotErr
	}
	return cb, wait
}

func TestSendReliableUnicastAckReceived(t *testing.T) {
	m, fp, _ := newTestMAC(fastTestConfig())
	require.NoError(t, m.Init(addr.Extended{1}, 0x1234))
	require.NoError(t, m.On())

	const seq = uint8(7)
	fp.inject(frame.BuildAck(seq))

	cb, wait := recordCallback()
	attrs := TxAttrs{Reliable: true, MaxTransmissions: 3, SeqNo: seq}
	err := m.Send([]byte{0xAA, 0xBB}, attrs, cb, "arg1")
	require.NoError(t, err)

	arg, cbErr := wait()
	assert.NoError(t, cbErr)
	assert.Equal(t, "arg1", arg)
	assert.Equal(t, 1, fp.sentCount())
}

func TestSendBroadcastDoesNotWaitForAck(t *testing.T) {
	m, fp, _ := newTestMAC(fastTestConfig())
	require.NoError(t, m.Init(addr.Extended{2}, 0x1234))
	require.NoError(t, m.On())

	cb, wait := recordCallback()
	attrs := TxAttrs{Broadcast: true, Reliable: true, SeqNo: 1}
	err := m.Send([]byte{0x01}, attrs, cb, nil)
	require.NoError(t, err)

	_, cbErr := wait()
	assert.NoError(t, cbErr)
	assert.Equal(t, 1, fp.sentCount())
}

func TestSendRetryThenAckReceived(t *testing.T) {
	m, fp, _ := newTestMAC(fastTestConfig())
	require.NoError(t, m.Init(addr.Extended{3}, 0x1234))
	require.NoError(t, m.On())

	const seq = uint8(10)
	// No ACK is pending for the first transmission attempt, so it
	// times out; the matching ACK only becomes available once the
	// second PHY send happens, exercising the CCA -> TX -> WAIT_ACK ->
	// CCA retry path before the transmission finally succeeds.
	fp.injectOnSendCount = 2
	fp.injectOnSendFrame = frame.BuildAck(seq)

	cb, wait := recordCallback()
	attrs := TxAttrs{Reliable: true, MaxTransmissions: 3, SeqNo: seq}
	err := m.Send([]byte{0x01}, attrs, cb, nil)
	require.NoError(t, err)

	_, cbErr := wait()
	assert.NoError(t, cbErr)
	assert.Equal(t, 2, fp.sentCount(), "expected exactly one retry before the ack landed")
}

func TestSendNoAckExhaustsRetriesThenFails(t *testing.T) {
	m, fp, _ := newTestMAC(fastTestConfig())
	require.NoError(t, m.Init(addr.Extended{3}, 0x1234))
	require.NoError(t, m.On())

	attrs := TxAttrs{Reliable: true, MaxTransmissions: 3, SeqNo: 9}
	cb, wait := recordCallback()
	err := m.Send([]byte{0x01}, attrs, cb, nil)
	require.ErrorIs(t, err, ErrNoAck)

	_, cbErr := wait()
	assert.ErrorIs(t, cbErr, ErrNoAck)
	assert.Equal(t, 3, fp.sentCount())
}

func TestSendCollisionDuringAckWaitDoesNotRetry(t *testing.T) {
	m, fp, _ := newTestMAC(fastTestConfig())
	require.NoError(t, m.Init(addr.Extended{4}, 0x1234))
	require.NoError(t, m.On())

	// Injects an ACK with the wrong sequence number: the arbitration
	// in receive.go treats this as a collision, not a match.
	fp.inject(frame.BuildAck(200))

	attrs := TxAttrs{Reliable: true, MaxTransmissions: 3, SeqNo: 1}
	cb, wait := recordCallback()
	err := m.Send([]byte{0x01}, attrs, cb, nil)
	require.ErrorIs(t, err, ErrCollision)

	_, cbErr := wait()
	assert.ErrorIs(t, cbErr, ErrCollision)
	assert.Equal(t, 1, fp.sentCount())
}

func TestSendChannelAccessFailure(t *testing.T) {
	m, fp, _ := newTestMAC(fastTestConfig())
	require.NoError(t, m.Init(addr.Extended{5}, 0x1234))
	require.NoError(t, m.On())

	fp.mu.Lock()
	fp.ccaErr = phy.ErrChannelBusy
	fp.mu.Unlock()

	attrs := TxAttrs{Reliable: true, MaxTransmissions: 1, SeqNo: 1}
	err := m.Send([]byte{0x01}, attrs, nil, nil)
	require.ErrorIs(t, err, ErrChannelAccessFailure)
	assert.Equal(t, 0, fp.sentCount())
}

// buildDataFrame constructs a DATA frame addressed via extended
// addressing, with the given ack-requested bit, destined for (dstPan,
// dstExt), carrying payload.
func buildDataFrame(t *testing.T, seq uint8, ackRequested bool, dstPan addr.PANID, dstExt addr.Extended, payload []byte) []byte {
	t.Helper()

	fr := frame.Frame{
		FrameType:    frame.TypeData,
		Version:      frame.Version2006,
		Seq:          seq,
		AckRequested: ackRequested,
		DstPANID:     dstPan,
		DstMode:      addr.ModeExtended,
		DstExt:       dstExt,
		SrcMode:      addr.ModeNone,
	}
	hdr := make([]byte, frame.HeaderLen(&fr))
	n, err := frame.Build(&fr, hdr)
	require.NoError(t, err)

	return append(hdr[:n], payload...)
}

func TestRecvDispatchesDataAndAutoAcksWhenAddressedToUs(t *testing.T) {
	m, fp, llc := newTestMAC(fastTestConfig())
	ourExt := addr.Extended{6}
	ourPan := addr.PANID(0x1234)
	require.NoError(t, m.Init(ourExt, ourPan))
	require.NoError(t, m.On())

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	buf := buildDataFrame(t, 42, true, ourPan, ourExt, payload)

	m.Recv(buf)

	require.Equal(t, 1, llc.count())
	assert.Equal(t, payload, llc.received[0])
	require.Equal(t, 1, fp.sentCount())

	_, ackFr, err := frame.Parse(fp.sent[0])
	require.NoError(t, err)
	assert.Equal(t, frame.TypeAck, ackFr.FrameType)
	assert.Equal(t, uint8(42), ackFr.Seq)
}

func TestRecvDoesNotAutoAckWrongPAN(t *testing.T) {
	m, fp, llc := newTestMAC(fastTestConfig())
	ourExt := addr.Extended{6}
	require.NoError(t, m.Init(ourExt, 0x1234))
	require.NoError(t, m.On())

	buf := buildDataFrame(t, 43, true, 0x9999, ourExt, []byte{0x01})

	m.Recv(buf)

	assert.Equal(t, 1, llc.count(), "frame still dispatches upward even when not auto-acked")
	assert.Equal(t, 0, fp.sentCount(), "must not auto-ack a frame on a foreign PAN")
}

func TestRecvDoesNotAutoAckWrongDestAddr(t *testing.T) {
	m, fp, llc := newTestMAC(fastTestConfig())
	ourExt := addr.Extended{6}
	ourPan := addr.PANID(0x1234)
	require.NoError(t, m.Init(ourExt, ourPan))
	require.NoError(t, m.On())

	otherExt := addr.Extended{7}
	buf := buildDataFrame(t, 44, true, ourPan, otherExt, []byte{0x01})

	m.Recv(buf)

	assert.Equal(t, 1, llc.count())
	assert.Equal(t, 0, fp.sentCount(), "must not auto-ack a frame addressed to a different node")
}

func TestRecvDoesNotAutoAckBroadcast(t *testing.T) {
	m, fp, llc := newTestMAC(fastTestConfig())
	ourPan := addr.PANID(0x1234)
	require.NoError(t, m.Init(addr.Extended{6}, ourPan))
	require.NoError(t, m.On())

	fr := frame.Frame{
		FrameType:    frame.TypeData,
		Version:      frame.Version2006,
		Seq:          45,
		AckRequested: true,
		DstPANID:     ourPan,
		DstMode:      addr.ModeShort,
		DstShort:     addr.Broadcast,
		SrcMode:      addr.ModeNone,
	}
	hdr := make([]byte, frame.HeaderLen(&fr))
	n, err := frame.Build(&fr, hdr)
	require.NoError(t, err)
	buf := append(hdr[:n], byte(0x01))

	m.Recv(buf)

	assert.Equal(t, 1, llc.count())
	assert.Equal(t, 0, fp.sentCount(), "must not auto-ack a broadcast frame")
}

func TestRecvDiscardsOversizeFrame(t *testing.T) {
	m, _, llc := newTestMAC(fastTestConfig())
	m.cfg.PacketBufSize = 4

	m.Recv(make([]byte, 16))
	assert.Equal(t, 0, llc.count())
}

func TestRecvDiscardsUnsolicitedAck(t *testing.T) {
	m, _, llc := newTestMAC(fastTestConfig())
	m.Recv(frame.BuildAck(1))
	assert.Equal(t, 0, llc.count())
}
