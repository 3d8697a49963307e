package friendserver

import "errors"

// ErrInvalidProxyAddress means a configured SOCKS5 proxy address was not
// "host:port".
var ErrInvalidProxyAddress = errors.New("friendserver: invalid proxy address")

// ErrProxyUnreachable means the SOCKS5 proxy's TCP port refused or timed
// out the initial connection.
var ErrProxyUnreachable = errors.New("friendserver: proxy unreachable")

// ErrProxyWrongType means something answered the TCP port but did not
// speak SOCKS5, or rejected unauthenticated connections.
var ErrProxyWrongType = errors.New("friendserver: endpoint does not speak SOCKS5")
