package device

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// Delimiter ends every NETCONF 1.0 message.
const Delimiter = "]]>]]>"

const closeTimeout = 5 * time.Second

const (
	netconfNS   = "urn:ietf:params:xml:ns:netconf:base:1.0"
	capBase10   = "urn:ietf:params:netconf:base:1.0"
	xmlDecl     = `<?xml version="1.0" encoding="UTF-8"?>`
	clientHello = xmlDecl + `<hello xmlns="` + netconfNS + `"><capabilities><capability>` + capBase10 + `</capability></capabilities></hello>`
)

// RPCError is one <rpc-error> element of a reply.
type RPCError struct {
	Type     string `xml:"error-type"`
	Tag      string `xml:"error-tag"`
	Severity string `xml:"error-severity"`
	Path     string `xml:"error-path"`
	Message  string `xml:"error-message"`
	Info     struct {
		BadElement string `xml:"bad-element"`
	} `xml:"error-info"`
}

func (e RPCError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.Tag
	}
	if bad := strings.TrimSpace(e.Info.BadElement); bad != "" {
		msg += " (at " + bad + ")"
	}
	return msg
}

// IsError reports whether the entry is fatal. Junos marks warnings with
// severity "warning".
func (e RPCError) IsError() bool {
	return strings.TrimSpace(e.Severity) != "warning"
}

// Reply is a parsed <rpc-reply>.
type Reply struct {
	MessageID string
	OK        bool
	Errors    []RPCError
	Raw       string
}

// Err joins the fatal rpc-errors of the reply, or returns nil.
func (r *Reply) Err() error {
	var errs []error
	for _, e := range r.Errors {
		if e.IsError() {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

// Warnings returns the non-fatal rpc-errors.
func (r *Reply) Warnings() []RPCError {
	var out []RPCError
	for _, e := range r.Errors {
		if !e.IsError() {
			out = append(out, e)
		}
	}
	return out
}

// ParseReply extracts the message-id, <ok/> and every <rpc-error>, at any
// depth, from one framed reply.
func ParseReply(data string) (*Reply, error) {
	reply := &Reply{Raw: data}
	dec := xml.NewDecoder(strings.NewReader(data))
	seen := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing rpc-reply: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "rpc-reply":
			seen = true
			for _, a := range se.Attr {
				if a.Name.Local == "message-id" {
					reply.MessageID = a.Value
				}
			}
		case "ok":
			reply.OK = true
		case "rpc-error":
			var e RPCError
			if err := dec.DecodeElement(&e, &se); err != nil {
				return nil, fmt.Errorf("parsing rpc-error: %w", err)
			}
			reply.Errors = append(reply.Errors, e)
		}
	}
	if !seen {
		return nil, fmt.Errorf("no rpc-reply in message")
	}
	return reply, nil
}

// Netconf is a NETCONF 1.0 session speaking the Junos configuration RPCs.
// It implements Handle.
type Netconf struct {
	device string
	conn   io.ReadWriteCloser
	r      *bufio.Reader

	mu        sync.Mutex
	msgID     int
	sessionID string
	closed    bool

	// ServerCapabilities is filled from the server hello.
	ServerCapabilities []string
}

// Dial connects to the device's NETCONF subsystem and exchanges hellos.
func Dial(ctx context.Context, t Target) (*Netconf, error) {
	client, err := dialSSH(ctx, t)
	if err != nil {
		return nil, util.NewDeviceError("connect", t.Host, err)
	}
	conn, err := openSubsystem(client, "netconf")
	if err != nil {
		client.Close()
		return nil, util.NewDeviceError("connect", t.Host, err)
	}
	nc, err := NewNetconf(ctx, t.Host, conn)
	if err != nil {
		return nil, util.NewDeviceError("connect", t.Host, err)
	}
	return nc, nil
}

// NewNetconf runs the hello exchange over an established transport. The
// transport is closed if the exchange fails.
func NewNetconf(ctx context.Context, device string, conn io.ReadWriteCloser) (*Netconf, error) {
	nc := &Netconf{device: device, conn: conn, r: bufio.NewReader(conn)}
	if err := nc.hello(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	util.WithDevice(device).WithField("session_id", nc.sessionID).Debug("NETCONF session established")
	return nc, nil
}

type serverHello struct {
	XMLName      xml.Name `xml:"hello"`
	Capabilities []string `xml:"capabilities>capability"`
	SessionID    string   `xml:"session-id"`
}

func (nc *Netconf) hello(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { nc.conn.Close() })
	defer stop()

	// Both sides send hello without waiting for the peer.
	werr := make(chan error, 1)
	go func() { werr <- nc.writeMessage(clientHello) }()

	msg, err := nc.readMessage()
	if err != nil {
		return contextOr(ctx, fmt.Errorf("reading server hello: %w", err))
	}
	if err := <-werr; err != nil {
		return contextOr(ctx, fmt.Errorf("sending hello: %w", err))
	}

	var h serverHello
	if err := xml.Unmarshal([]byte(msg), &h); err != nil {
		return fmt.Errorf("parsing server hello: %w", err)
	}
	nc.ServerCapabilities = h.Capabilities
	nc.sessionID = strings.TrimSpace(h.SessionID)
	for _, c := range h.Capabilities {
		if strings.TrimSpace(c) == capBase10 {
			return nil
		}
	}
	return fmt.Errorf("server does not support %s", capBase10)
}

func (nc *Netconf) writeMessage(msg string) error {
	_, err := io.WriteString(nc.conn, msg+"\n"+Delimiter+"\n")
	return err
}

// readMessage returns the next message without its delimiter.
func (nc *Netconf) readMessage() (string, error) {
	var buf bytes.Buffer
	for {
		chunk, err := nc.r.ReadBytes('>')
		buf.Write(chunk)
		if bytes.HasSuffix(buf.Bytes(), []byte(Delimiter)) {
			msg := buf.Bytes()[:buf.Len()-len(Delimiter)]
			return strings.TrimSpace(string(msg)), nil
		}
		if err != nil {
			if err == io.EOF && buf.Len() > 0 {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
	}
}

// RPC sends body inside an <rpc> envelope and returns the parsed reply.
// The returned error covers transport and framing faults only; inspect
// Reply.Err for device-reported errors.
func (nc *Netconf) RPC(ctx context.Context, body string) (*Reply, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.closed {
		return nil, util.ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { nc.conn.Close() })
	defer stop()

	nc.msgID++
	id := fmt.Sprintf("%d", nc.msgID)
	msg := xmlDecl + `<rpc message-id="` + id + `" xmlns="` + netconfNS + `">` + body + `</rpc>`
	if err := nc.writeMessage(msg); err != nil {
		return nil, contextOr(ctx, fmt.Errorf("sending rpc: %w", err))
	}
	raw, err := nc.readMessage()
	if err != nil {
		return nil, contextOr(ctx, fmt.Errorf("reading rpc-reply: %w", err))
	}
	reply, err := ParseReply(raw)
	if err != nil {
		return nil, err
	}
	if reply.MessageID != "" && reply.MessageID != id {
		return nil, fmt.Errorf("rpc-reply message-id %s, expected %s", reply.MessageID, id)
	}
	for _, w := range reply.Warnings() {
		util.WithDevice(nc.device).Warnf("Device warning: %s", w.Error())
	}
	return reply, nil
}

func (nc *Netconf) call(ctx context.Context, body string) error {
	reply, err := nc.RPC(ctx, body)
	if err != nil {
		return err
	}
	return reply.Err()
}

// Lock takes the exclusive lock on the candidate configuration.
func (nc *Netconf) Lock(ctx context.Context) error {
	return nc.call(ctx, `<lock><target><candidate/></target></lock>`)
}

// Unlock releases the candidate lock.
func (nc *Netconf) Unlock(ctx context.Context) error {
	return nc.call(ctx, `<unlock><target><candidate/></target></unlock>`)
}

// Load stages config, in Junos curly-brace text format, into the candidate.
func (nc *Netconf) Load(ctx context.Context, config string, replace bool) error {
	action := "merge"
	if replace {
		action = "replace"
	}
	return nc.call(ctx, `<load-configuration action="`+action+`" format="text"><configuration-text>`+
		escape(config)+`</configuration-text></load-configuration>`)
}

// Commit activates the candidate with a commit log comment.
func (nc *Netconf) Commit(ctx context.Context, comment string) error {
	body := `<commit-configuration/>`
	if comment != "" {
		body = `<commit-configuration><log>` + escape(comment) + `</log></commit-configuration>`
	}
	return nc.call(ctx, body)
}

// Close ends the NETCONF session and the transport. Only the first call
// has any effect.
func (nc *Netconf) Close() error {
	nc.mu.Lock()
	if nc.closed {
		nc.mu.Unlock()
		return nil
	}
	nc.mu.Unlock()

	// best effort; the peer may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if _, err := nc.RPC(ctx, `<close-session/>`); err != nil {
		util.WithDevice(nc.device).Debugf("close-session: %v", err)
	}

	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.closed = true
	return nc.conn.Close()
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// contextOr prefers the context error when ctx ended the exchange.
func contextOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
