package device

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// DefaultNetconfPort is the Junos NETCONF-over-SSH port.
const DefaultNetconfPort = 830

// DefaultDialTimeout bounds the TCP connect and SSH handshake.
const DefaultDialTimeout = 30 * time.Second

// Target identifies a device and the credentials used to reach it.
type Target struct {
	Host       string
	Port       int
	User       string
	Password   string
	KeyFile    string
	KnownHosts string
	Timeout    time.Duration
}

// Addr returns host:port.
func (t Target) Addr() string {
	port := t.Port
	if port == 0 {
		port = DefaultNetconfPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

func (t Target) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if t.KeyFile != "" {
		pem, err := os.ReadFile(t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading SSH key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parsing SSH key %s: %w", t.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if t.Password != "" {
		pass := t.Password
		auth = append(auth,
			ssh.Password(pass),
			// Junos offers keyboard-interactive in place of password on
			// many releases.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = pass
				}
				return answers, nil
			}),
		)
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no SSH credentials for %s: need a password or key", t.Host)
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if t.KnownHosts != "" {
		cb, err := knownhosts.New(t.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKeys = cb
	} else {
		util.WithDevice(t.Host).Warn("Host key not verified (no known_hosts file configured)")
	}

	timeout := t.Timeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	return &ssh.ClientConfig{
		User:            t.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}, nil
}

// dialSSH opens an SSH connection honoring ctx during the TCP connect.
func dialSSH(ctx context.Context, t Target) (*ssh.Client, error) {
	config, err := t.clientConfig()
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", t.Addr())
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", t.Addr(), err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, t.Addr(), config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SSH handshake %s: %w", t.Addr(), err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// subsystemConn is the stdin/stdout pair of an SSH subsystem session.
type subsystemConn struct {
	io.Reader
	io.WriteCloser
	session *ssh.Session
	client  *ssh.Client
}

// Close tears down the session and then the connection.
func (c *subsystemConn) Close() error {
	c.WriteCloser.Close()
	c.session.Close()
	return c.client.Close()
}

// openSubsystem starts the named subsystem on a new session of client.
func openSubsystem(client *ssh.Client, name string) (*subsystemConn, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("SSH session: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("SSH stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("SSH stdout: %w", err)
	}
	if err := session.RequestSubsystem(name); err != nil {
		session.Close()
		return nil, fmt.Errorf("SSH subsystem %s: %w", name, err)
	}
	return &subsystemConn{Reader: stdout, WriteCloser: stdin, session: session, client: client}, nil
}
