// Package sim provides a loopback software PHY used for integration
// tests and the cmd/macsim demo. It stands in for the real radio
// driver spec.md §1 declares out of scope, letting two mac.MAC
// instances exchange real frames over a UDP socket.
//
// The socket plumbing — non-blocking AF_INET socket, bind, connect,
// syscall.RawConn-mediated read/write with EAGAIN retry on write — is adapted
// from the teacher's (katalix/go-l2tp) l2tpControlPlane, which does
// exactly this for the L2TP control-plane socket.
package sim

import (
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/crystalpower/emb6mac/phy"
)

// PHY is a loopback software radio backed by a UDP socket.
type PHY struct {
	local, remote *net.UDPAddr
	fd            int
	file          *os.File
	rc            syscall.RawConn

	mu  sync.Mutex
	on  bool
	// recv is invoked synchronously, on the caller's goroutine, for
	// every frame drained by Ioctl(CmdRxBufRead, ...) — mirroring the
	// C original's mac_recv() being called directly from the radio's
	// receive-buffer-read ioctl (spec.md §4.3).
	recv func(buf []byte)
}

// New creates a loopback PHY bound to localAddr and connected to
// remoteAddr (both "host:port" UDP addresses). recv is called for
// every frame the PHY drains via Ioctl(CmdRxBufRead, ...).
func New(localAddr, remoteAddr string, recv func(buf []byte)) (*PHY, error) {
	local, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("sim: resolve local %q: %w", localAddr, err)
	}
	remote, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("sim: resolve remote %q: %w", remoteAddr, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, fmt.Errorf("sim: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sim: set nonblocking: %w", err)
	}
	if err := unix.Bind(fd, toSockaddr(local)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sim: bind: %w", err)
	}
	if err := unix.Connect(fd, toSockaddr(remote)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sim: connect: %w", err)
	}

	file := os.NewFile(uintptr(fd), "emb6mac-sim")
	rc, err := file.SyscallConn()
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sim: syscall conn: %w", err)
	}

	return &PHY{
		local:  local,
		remote: remote,
		fd:     fd,
		file:   file,
		rc:     rc,
		recv:   recv,
	}, nil
}

func toSockaddr(a *net.UDPAddr) unix.Sockaddr {
	b := a.IP.To4()
	return &unix.SockaddrInet4{
		Port: a.Port,
		Addr: [4]byte{b[0], b[1], b[2], b[3]},
	}
}

// On implements phy.Driver.
func (p *PHY) On() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = true
	return nil
}

// Off implements phy.Driver.
func (p *PHY) Off() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = false
	return nil
}

// Close releases the underlying socket.
func (p *PHY) Close() error {
	return p.file.Close()
}

// Send implements phy.Driver.
func (p *PHY) Send(buf []byte) error {
	p.mu.Lock()
	on := p.on
	p.mu.Unlock()
	if !on {
		return fmt.Errorf("sim: radio is off")
	}

	var werr error
	cerr := p.rc.Write(func(fd uintptr) bool {
		_, werr = unix.Write(int(fd), buf)
		return werr != unix.EAGAIN && werr != unix.EWOULDBLOCK
	})
	if werr != nil {
		return werr
	}
	return cerr
}

// peek returns the size of a pending datagram, if any, without
// consuming it.
func (p *PHY) peek() (n int, ok bool) {
	var peekBuf [4096]byte
	var rerr error
	_ = p.rc.Read(func(fd uintptr) bool {
		n, rerr = unix.Recvfrom(int(fd), peekBuf[:], unix.MSG_PEEK)
		return true
	})
	return n, rerr == nil && n > 0
}

// Ioctl implements phy.Driver. CmdCCAGet and CmdIsRxBusy report the
// channel as busy whenever a datagram is already queued on the
// socket — the simplest faithful analogue of "the radio is receiving
// something" for a loopback transport. CmdRxBufRead drains every
// pending datagram, invoking recv for each.
func (p *PHY) Ioctl(cmd phy.Cmd, arg any) (any, error) {
	switch cmd {
	case phy.CmdCCAGet:
		if _, busy := p.peek(); busy {
			return nil, phy.ErrBusy
		}
		return nil, nil

	case phy.CmdIsRxBusy:
		if _, busy := p.peek(); busy {
			return nil, phy.ErrBusy
		}
		return nil, nil

	case phy.CmdRxBufRead:
		for {
			if _, pending := p.peek(); !pending {
				return nil, nil
			}
			buf := make([]byte, 4096)
			var n int
			var rerr error
			_ = p.rc.Read(func(fd uintptr) bool {
				n, rerr = unix.Read(int(fd), buf)
				return true
			})
			if rerr != nil || n == 0 {
				return nil, nil
			}
			p.recv(buf[:n])
		}

	default:
		return nil, fmt.Errorf("sim: unrecognised ioctl command %v", cmd)
	}
}
