// Package sshtest runs an in-process SSH server for tests.
//
// The server accepts password and public key authentication, serves "exec"
// requests on session channels through a Handler, and records every command
// it receives together with the number of commands running at the same time.
package sshtest

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/galeractl/internal/util/keygen"
)

const (
	// User is the only login name the server accepts.
	User = "root"
	// Password is the password the server accepts for User.
	Password = "secret"
)

// Result is what a Handler wants the remote command to produce.
type Result struct {
	Stdout string
	Stderr string
	Status uint32
}

// Handler decides the outcome of a command. It may block; the command stays
// running until it returns.
type Handler func(command string) Result

// Succeed is a Handler that prints the command and exits 0.
func Succeed(command string) Result {
	return Result{Stdout: "ok: " + firstLine(command) + "\n"}
}

// Server is a minimal SSH server bound to a loopback port.
type Server struct {
	Addr string

	listener net.Listener
	config   *ssh.ServerConfig
	handler  Handler

	mu          sync.Mutex
	commands    []string
	running     int
	maxRunning  int
	connections int
	authorized  []ssh.PublicKey
}

// NewServer starts a server that runs commands through handler.
// Close must be called to stop it.
func NewServer(handler Handler) (*Server, error) {
	hostKey, err := keygen.GenerateED25519KeyPair("sshtest-host")
	if err != nil {
		return nil, err
	}

	s := &Server{handler: handler}
	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == User && string(pass) == Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, k := range s.authorized {
				if c.User() == User && bytes.Equal(k.Marshal(), key.Marshal()) {
					return nil, nil
				}
			}
			return nil, fmt.Errorf("unknown public key for %q", c.User())
		},
	}
	s.config.AddHostKey(hostKey.Signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = ln
	s.Addr = ln.Addr().String()

	go s.serve()
	return s, nil
}

// Authorize accepts key for public key authentication.
func (s *Server) Authorize(key ssh.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = append(s.authorized, key)
}

// Commands returns the commands received so far, in arrival order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// MaxConcurrent returns the highest number of commands that ran at once.
func (s *Server) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxRunning
}

// Connections returns the number of authenticated connections accepted.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) serve() {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(nc)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	sconn, chans, reqs, err := ssh.NewServerConn(nc, s.config)
	if err != nil {
		_ = nc.Close()
		return
	}
	defer func() { _ = sconn.Close() }()

	s.mu.Lock()
	s.connections++
	s.mu.Unlock()

	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, requests)
	}
}

func (s *Server) handleSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()

	for req := range requests {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}

		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		s.begin(payload.Command)
		res := s.handler(payload.Command)
		s.end()

		_, _ = io.WriteString(ch, res.Stdout)
		_, _ = io.WriteString(ch.Stderr(), res.Stderr)
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{res.Status}))
		return
	}
}

func (s *Server) begin(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	s.running++
	if s.running > s.maxRunning {
		s.maxRunning = s.running
	}
}

func (s *Server) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running--
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
