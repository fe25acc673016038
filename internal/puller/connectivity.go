package puller

import (
	"context"
	"fmt"
	"net"
	"time"
)

// ConnectivityChecker implements spec §4.7's check_internet_connectivity:
// a cheap reachability probe run before Enumerate, distinct from actually
// listing the bucket. A failure here transitions Probe → Offline → Idle
// (a non-error, no-op tick), rather than surfacing as a tick error.
type ConnectivityChecker func(ctx context.Context) error

// DialProbe builds a ConnectivityChecker that dials addr (host:port) over
// TCP with the given timeout. No third-party library in the retrieval
// pack offers a higher-level "internet reachable" primitive — a bare TCP
// dial is the standard, idiomatic Go way to answer this narrow question,
// so net.Dialer (standard library) is used deliberately here (see
// DESIGN.md).
func DialProbe(addr string, timeout time.Duration) ConnectivityChecker {
	d := net.Dialer{Timeout: timeout}
	return func(ctx context.Context) error {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("puller: connectivity probe to %s: %w", addr, err)
		}
		return conn.Close()
	}
}

// DefaultConnectivityAddr is dialed when no ConnectivityChecker is
// configured: a well-known, highly-available DNS resolver port, chosen
// only for its reachability, not for any DNS semantics.
const DefaultConnectivityAddr = "1.1.1.1:53"

// DefaultConnectivityTimeout bounds the probe dial.
const DefaultConnectivityTimeout = 5 * time.Second
