package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bborn/wakeup/internal/alarm"
	"github.com/bborn/wakeup/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
)

// SSHServer serves the alarm form over SSH, one form per session.
type SSHServer struct {
	srv         *ssh.Server
	backend     ui.Backend
	defaultPrep int
	logger      *log.Logger
	addr        string
	hostKey     string
}

// SSHConfig holds SSH server configuration.
type SSHConfig struct {
	Addr        string // e.g. ":2222"
	HostKeyPath string
	Backend     ui.Backend // usually an api.Client pointed at the HTTP API
	DefaultPrep int
	Logger      *log.Logger
}

// NewSSH creates a new SSH server.
func NewSSH(cfg SSHConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "ssh"})
	}
	s := &SSHServer{
		backend:     cfg.Backend,
		defaultPrep: cfg.DefaultPrep,
		logger:      logger,
		addr:        cfg.Addr,
		hostKey:     cfg.HostKeyPath,
	}

	// Ensure host key directory exists
	if err := os.MkdirAll(filepath.Dir(s.hostKey), 0700); err != nil {
		return nil, fmt.Errorf("create host key dir: %w", err)
	}

	srv, err := wish.NewServer(
		wish.WithAddress(s.addr),
		wish.WithHostKeyPath(s.hostKey),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		}),
		wish.WithPasswordAuth(func(ctx ssh.Context, password string) bool {
			return false
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	s.srv = srv
	return s, nil
}

// Start starts the SSH server.
func (s *SSHServer) Start() error {
	s.logger.Info("SSH server starting", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *SSHServer) Shutdown(ctx context.Context) error {
	s.logger.Info("SSH server shutting down")
	return s.srv.Shutdown(ctx)
}

// teaHandler builds the form for a session. The alarm rings the session's
// terminal bell; notification permission is kept for the session only.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	model := ui.NewFormModel(s.sessionOptions(sess, sess.User()))

	go func() {
		<-sess.Context().Done()
		s.logger.Debug("session closed", "user", sess.User(), "status", model.AlarmStatus(time.Now()))
		model.Close()
	}()

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	}
}

func (s *SSHServer) sessionOptions(w io.Writer, user string) ui.Options {
	pty, _, _ := ptyOf(w)
	return ui.Options{
		Backend:     s.backend,
		DefaultPrep: s.defaultPrep,
		Logger:      s.logger.With("user", user),
		Width:       pty.Window.Width,
		Height:      pty.Window.Height,
		Alarm: []alarm.TriggerOption{
			alarm.WithSound(sessionBell{w: w}),
			alarm.WithPermissions(&alarm.MemoryPermissions{}),
		},
	}
}

// ptyOf returns the session's pty when w is a session.
func ptyOf(w io.Writer) (ssh.Pty, <-chan ssh.Window, bool) {
	if sess, ok := w.(ssh.Session); ok {
		return sess.Pty()
	}
	return ssh.Pty{}, nil, false
}

// sessionBell rings the remote terminal's bell.
type sessionBell struct {
	w io.Writer
}

func (b sessionBell) Play(context.Context) error {
	_, err := io.WriteString(b.w, "\a")
	return err
}
