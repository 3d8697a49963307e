package friendserver

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"golang.org/x/net/proxy"
)

// SOCKS5 protocol constants, mirroring what Tor's own SocksPort speaks.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
	socks5CmdConnect   = 0x01
	socks5AddrTypeDom  = 0x03
)

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	return err == nil && host != "" && port != ""
}

// dialer builds a SOCKS5 dialer for proxyAddress ("host:port"), the way a
// Tor SocksPort expects: no authentication.
func dialer(proxyAddress string) (proxy.Dialer, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}
	return proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
}

// dialContext establishes a TCP connection to address through d, honoring
// ctx's cancellation. proxy.Dialer has no native context support, so the
// dial runs in a goroutine and the result is raced against ctx.Done.
func dialContext(ctx context.Context, d proxy.Dialer, network, address string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := d.Dial(network, address)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// checkServerAddress performs a raw SOCKS5 handshake probe against
// proxyAddress to verify it is a working, unauthenticated SOCKS5 proxy,
// bounded by the given timeout. It does not depend on reaching any real
// destination; the CONNECT request names a synthetic .onion address and
// only exercises the proxy's own protocol handling.
func checkServerAddress(ctx context.Context, proxyAddress string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxyAddress)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrProxyUnreachable
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ErrProxyUnreachable
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return ErrProxyWrongType
	}
	if authResp[0] != socks5Version || authResp[1] == socks5AuthNoAccept || authResp[1] != socks5AuthNone {
		return ErrProxyWrongType
	}

	// Probe a synthetic .onion so the check exercises CONNECT handling
	// without depending on any real hidden service being reachable.
	const probeOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeDom, byte(len(probeOnion))}
	req = append(req, probeOnion...)
	req = append(req, 0x00, 0x50)
	if _, err := conn.Write(req); err != nil {
		return ErrProxyUnreachable
	}

	resp := make([]byte, 4)
	if _, err := io.ReadFull(conn, resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return ErrProxyWrongType
	}
	if resp[0] != socks5Version {
		return ErrProxyWrongType
	}
	return nil
}

// proxyHostPort joins host and port, defaulting an empty host to loopback.
func proxyHostPort(host, port string) string {
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
