package irr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// DefaultPort is the registry whois port.
const DefaultPort = 43

// DefaultServer is the registry queried when none is given.
const DefaultServer = "rr.ntt.net"

// Querier sends one query line to a registry and returns its raw response.
// An empty response means either no data or a transport failure; callers
// treat both the same way.
type Querier interface {
	Query(ctx context.Context, server, queryLine string) string
}

// Client is a single-shot registry client. It never retries and never
// returns an error: failures are logged and surface as an empty response.
type Client struct {
	// Port overrides DefaultPort when non-zero.
	Port int

	// DialTimeout bounds connection setup. Zero means no bound.
	DialTimeout time.Duration

	// ReadTimeout bounds the whole response read. Zero means the client
	// waits until the peer closes the connection.
	ReadTimeout time.Duration
}

// NewClient creates a registry client on the default port.
func NewClient() *Client {
	return &Client{Port: DefaultPort}
}

// Query opens a connection to server, writes queryLine followed by a
// newline, and reads until the peer closes. The protocol has no response
// terminator. Invalid UTF-8 sequences are replaced rather than failing the
// whole response.
func (c *Client) Query(ctx context.Context, server, queryLine string) string {
	log := util.WithServer(server).WithField("query", queryLine)

	raw, err := c.query(ctx, server, queryLine)
	if err != nil {
		log.Debugf("registry query failed: %v", err)
		return ""
	}
	log.Debugf("registry returned %d bytes", len(raw))
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

func (c *Client) query(ctx context.Context, server, queryLine string) ([]byte, error) {
	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		port := c.Port
		if port == 0 {
			port = DefaultPort
		}
		addr = net.JoinHostPort(server, fmt.Sprintf("%d", port))
	}

	dialer := &net.Dialer{Timeout: c.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if c.ReadTimeout > 0 {
		conn.SetDeadline(time.Now().Add(c.ReadTimeout))
	}

	// Unblock the read when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := io.WriteString(conn, queryLine+"\n"); err != nil {
		return nil, fmt.Errorf("write query: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return buf.Bytes(), nil
}
