package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/imamik/galeractl/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 3
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second

	// closeGrace bounds how long Exec waits for a killed command's channel to close.
	closeGrace = 5 * time.Second
)

// ErrAuthFailed is returned when the host rejects every offered credential.
// It is never retried.
var ErrAuthFailed = errors.New("ssh authentication failed")

// Config holds the credentials and connection policy for a provisioning run.
type Config struct {
	User string
	Port int

	// Password and PrivateKey are both offered when set; at least one is required.
	Password   string
	PrivateKey []byte

	// KnownHostsPath enables host key verification against an OpenSSH
	// known_hosts file. Ignored when HostKeyCallback is set.
	KnownHostsPath string

	// HostKeyCallback handles host key verification.
	// If nil and KnownHostsPath is empty, host keys are not verified.
	HostKeyCallback ssh.HostKeyCallback

	// DialTimeout bounds the TCP connect plus SSH handshake.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// MaxRetries is the number of additional dial attempts on network errors.
	// If zero, defaultMaxRetries is used. Negative disables retries.
	MaxRetries int

	// RetryDelay is the initial delay between dial attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	Logger logr.Logger
}

// Dialer opens authenticated connections with one set of credentials.
type Dialer struct {
	config *Config
	auth   []ssh.AuthMethod
}

// NewDialer validates cfg and prepares authentication. The private key is
// parsed once here rather than on every dial.
func NewDialer(cfg *Config) (*Dialer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if cfg.Password == "" && len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config requires a password or a private key")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.MaxRetries < 0 {
		configCopy.MaxRetries = 0
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		if configCopy.KnownHostsPath != "" {
			cb, err := knownhosts.New(configCopy.KnownHostsPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load known hosts %s: %w", configCopy.KnownHostsPath, err)
			}
			configCopy.HostKeyCallback = cb
		} else {
			configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in verification via KnownHostsPath
		}
	}

	var auth []ssh.AuthMethod
	if len(configCopy.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if configCopy.Password != "" {
		auth = append(auth, ssh.Password(configCopy.Password))
	}

	return &Dialer{config: &configCopy, auth: auth}, nil
}

// LoadPrivateKey reads a PEM private key from disk.
func LoadPrivateKey(path string) ([]byte, error) {
	// #nosec G304
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", path, err)
	}
	return key, nil
}

// Address returns host:port for host, keeping an explicit port if present.
func (d *Dialer) Address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(d.config.Port))
}

// Dial connects and authenticates to host, retrying network failures with
// exponential backoff. Authentication and host key failures are returned
// immediately.
func (d *Dialer) Dial(ctx context.Context, host string) (*Conn, error) {
	addr := d.Address(host)
	clientConfig := &ssh.ClientConfig{
		User:            d.config.User,
		Auth:            d.auth,
		HostKeyCallback: d.config.HostKeyCallback,
		Timeout:         d.config.DialTimeout,
	}

	var client *ssh.Client
	err := retry.Do(ctx, func(ctx context.Context) error {
		var dialErr error
		client, dialErr = d.dial(ctx, addr, clientConfig)
		return dialErr
	},
		retry.WithMaxRetries(d.config.MaxRetries),
		retry.WithInitialDelay(d.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			d.config.Logger.V(1).Info("retrying ssh dial", "addr", addr, "attempt", attempt, "delay", delay, "error", err.Error())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}

	return &Conn{host: host, client: client}, nil
}

func (d *Dialer) dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, d.config.DialTimeout)
	defer cancel()

	var nd net.Dialer
	netConn, err := nd.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// The handshake has no context of its own; a deadline bounds it instead.
	deadline, _ := dialCtx.Deadline()
	_ = netConn.SetDeadline(deadline)

	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, classifyHandshakeError(err)
	}
	_ = netConn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

func classifyHandshakeError(err error) error {
	var keyErr *knownhosts.KeyError
	var revokedErr *knownhosts.RevokedError
	switch {
	case errors.As(err, &keyErr), errors.As(err, &revokedErr), strings.Contains(err.Error(), "knownhosts:"):
		return retry.Fatal(fmt.Errorf("host key verification failed: %w", err))
	case strings.Contains(err.Error(), "unable to authenticate"):
		return retry.Fatal(fmt.Errorf("%w: %v", ErrAuthFailed, err))
	default:
		return err
	}
}

// Conn is one authenticated connection to one host.
type Conn struct {
	host   string
	client *ssh.Client

	closeOnce sync.Once
	closeErr  error
}

// Host returns the host this connection was dialed with.
func (c *Conn) Host() string {
	return c.host
}

// Exec runs command on a fresh session channel and returns after the channel
// closes. stdout and stderr receive the command's streams as they arrive and
// may be written concurrently. A non-zero exit is reported as *ExitError.
// If ctx ends first, the command is sent SIGKILL and its channel closed.
func (c *Conn) Exec(ctx context.Context, command string, stdout, stderr io.Writer) error {
	session, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Start(command); err != nil {
		return fmt.Errorf("failed to start command on %s: %w", c.host, err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case err := <-done:
		return exitError(err)
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		select {
		case <-done:
		case <-time.After(closeGrace):
		}
		return fmt.Errorf("command interrupted on %s: %w", c.host, ctx.Err())
	}
}

// Close releases the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Close()
	})
	return c.closeErr
}

// ExitError reports a remote command that finished unsuccessfully.
type ExitError struct {
	// Status is the exit status, or -1 if the remote side sent none.
	Status int
	// Signal is set when the command was terminated by a signal.
	Signal string
	Msg    string
}

func (e *ExitError) Error() string {
	switch {
	case e.Signal != "":
		return fmt.Sprintf("command killed by signal %s", e.Signal)
	case e.Status < 0:
		return "command exited without exit status"
	default:
		return fmt.Sprintf("command exited with status %d", e.Status)
	}
}

func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Status: exitErr.ExitStatus(), Signal: exitErr.Signal(), Msg: exitErr.Msg()}
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return &ExitError{Status: -1}
	}
	return fmt.Errorf("command stream failed: %w", err)
}
