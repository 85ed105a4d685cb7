package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/sheenubhat/network-automation-scripts/model"
)

// session drives one remote command-line session against a device. close
// must be called on every exit path, even when dial partially succeeded.
type session interface {
	// elevate enters privileged mode when the dialect has one.
	elevate() error

	// run issues a command on the interactive shell and returns its
	// output with the echo and trailing prompt stripped.
	run(cmd string) ([]byte, error)

	fetchFile(path string) ([]byte, error)

	close() error
}

// dialFunc opens a session. Tests substitute their own.
type dialFunc func(ctx context.Context, params *model.ConnParams, log zerolog.Logger) (session, error)

type sshSession struct {
	params *model.ConnParams
	log    zerolog.Logger
	client *ssh.Client
	shell  *ssh.Session
	stdin  io.Writer
	outCh  chan []byte
	done   chan struct{}
	trans  *transcript

	closeOnce sync.Once
	closeErr  error
}

// dialSSH establishes the transport, authenticates, opens an interactive
// shell with a PTY, waits for the first prompt, and disables paging. When
// params.TranscriptPath is set, every byte exchanged on the wire is
// mirrored there regardless of outcome.
func dialSSH(ctx context.Context, params *model.ConnParams, log zerolog.Logger) (session, error) {
	var trans *transcript
	if params.TranscriptPath != "" {
		t, err := newTranscript(params.TranscriptPath)
		if err != nil {
			return nil, transportErr(err)
		}
		trans = t
	}
	conf := &ssh.ClientConfig{
		User: params.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(params.Password),
			// Plenty of network gear only offers keyboard-interactive
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = params.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         params.Timeout,
	}
	log.Debug().Str("addr", params.Addr()).Str("user", params.Username).Msg("starting ssh session")
	dialer := &net.Dialer{Timeout: params.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", params.Addr())
	if err != nil {
		trans.Close()
		return nil, classifyDialErr(fmt.Errorf("unable to connect to %v: %w", params.Addr(), err))
	}
	// Bound the handshake too, not just the TCP dial
	if params.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(params.Timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, params.Addr(), conf)
	if err != nil {
		conn.Close()
		trans.Close()
		return nil, classifyDialErr(fmt.Errorf("ssh handshake with %v failed: %w", params.Addr(), err))
	}
	_ = conn.SetDeadline(time.Time{})
	s := &sshSession{
		params: params,
		log:    log,
		client: ssh.NewClient(sshConn, chans, reqs),
		outCh:  make(chan []byte, 64),
		done:   make(chan struct{}),
		trans:  trans,
	}
	if err := s.openShell(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *sshSession) openShell() error {
	shell, err := s.client.NewSession()
	if err != nil {
		return transportErr(fmt.Errorf("unable to initiate session on %v: %w", s.params.Host, err))
	}
	s.shell = shell
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := shell.RequestPty("vt100", 24, 200, modes); err != nil {
		return transportErr(fmt.Errorf("unable to request pty on %v: %w", s.params.Host, err))
	}
	stdin, err := shell.StdinPipe()
	if err != nil {
		return transportErr(fmt.Errorf("unable to open stdin on %v: %w", s.params.Host, err))
	}
	s.stdin = io.MultiWriter(stdin, s.trans)
	stdout, err := shell.StdoutPipe()
	if err != nil {
		return transportErr(fmt.Errorf("unable to open stdout on %v: %w", s.params.Host, err))
	}
	if err := shell.Shell(); err != nil {
		return transportErr(fmt.Errorf("unable to start shell on %v: %w", s.params.Host, err))
	}
	go s.pump(stdout)
	if _, err := s.readUntil(s.params.Dialect.Prompt); err != nil {
		return err
	}
	if s.params.Dialect.DisablePaging != "" {
		if _, err := s.exec(s.params.Dialect.DisablePaging); err != nil {
			return err
		}
	}
	return nil
}

// pump moves shell output onto outCh, mirroring to the transcript. It
// exits, closing outCh, when the remote side closes the stream.
func (s *sshSession) pump(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			s.trans.Write(b)
			select {
			case s.outCh <- b:
			case <-s.done:
				return
			}
		}
		if err != nil {
			close(s.outCh)
			return
		}
	}
}

// readUntil collects output until the last line matches pattern or the
// session timeout elapses. The collected bytes are returned either way.
func (s *sshSession) readUntil(pattern *regexp.Regexp) ([]byte, error) {
	buff, _, err := s.readUntilAny(pattern)
	return buff, err
}

func (s *sshSession) readUntilAny(patterns ...*regexp.Regexp) ([]byte, int, error) {
	timeout := s.params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	buff := []byte{}
	for {
		select {
		case b, ok := <-s.outCh:
			if !ok {
				return buff, -1, transportErr(fmt.Errorf("connection to %v closed while awaiting prompt", s.params.Host))
			}
			buff = append(buff, b...)
			line := bytes.TrimRight(lastLine(buff), " ")
			for i, pattern := range patterns {
				if pattern != nil && pattern.Match(line) {
					return buff, i, nil
				}
			}
		case <-deadline.C:
			return buff, -1, transportErr(fmt.Errorf("timed out waiting for prompt on %v", s.params.Host))
		}
	}
}

// exec writes a command and waits for the prompt to come back.
func (s *sshSession) exec(cmd string) ([]byte, error) {
	s.log.Debug().Str("host", s.params.Host).Str("command", cmd).Msg("running command")
	if _, err := s.stdin.Write([]byte(cmd + "\n")); err != nil {
		return nil, transportErr(fmt.Errorf("error writing command '%v' to %v: %w", cmd, s.params.Host, err))
	}
	return s.readUntil(s.params.Dialect.Prompt)
}

func (s *sshSession) elevate() error {
	dialect := s.params.Dialect
	if dialect.ElevateCommand == "" {
		return nil
	}
	if _, err := s.stdin.Write([]byte(dialect.ElevateCommand + "\n")); err != nil {
		return transportErr(fmt.Errorf("error requesting privileged mode on %v: %w", s.params.Host, err))
	}
	_, idx, err := s.readUntilAny(dialect.PasswordPrompt, dialect.Prompt)
	if err != nil {
		return err
	}
	if idx != 0 {
		// No password asked, already privileged
		return nil
	}
	if s.params.Secret == "" {
		return transportErr(fmt.Errorf("%v asked for an enable password but no secret is configured", s.params.Host))
	}
	if _, err := s.stdin.Write([]byte(s.params.Secret + "\n")); err != nil {
		return transportErr(fmt.Errorf("error sending enable password to %v: %w", s.params.Host, err))
	}
	if _, err := s.readUntil(dialect.Prompt); err != nil {
		return transportErr(fmt.Errorf("privileged mode not reached on %v: %w", s.params.Host, err))
	}
	return nil
}

func (s *sshSession) run(cmd string) ([]byte, error) {
	raw, err := s.exec(cmd)
	if err != nil {
		return raw, err
	}
	return cleanOutput(cmd, raw, s.params.Dialect.Prompt), nil
}

func (s *sshSession) fetchFile(path string) ([]byte, error) {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, transportErr(fmt.Errorf("unable to connect to sftp on %v: %w", s.params.Host, err))
	}
	defer client.Close()
	file, err := client.Open(path)
	if err != nil {
		return nil, transportErr(fmt.Errorf("unable to open %v via sftp on %v: %w", path, s.params.Host, err))
	}
	defer file.Close()
	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, transportErr(fmt.Errorf("unable to read %v via sftp on %v: %w", path, s.params.Host, err))
	}
	return contents, nil
}

func (s *sshSession) close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.shell != nil {
			s.shell.Close()
		}
		if s.client != nil {
			s.closeErr = s.client.Close()
		}
		s.trans.Close()
	})
	return s.closeErr
}

// lastLine returns the bytes after the final newline, which is where the
// prompt sits on an interactive shell.
func lastLine(buff []byte) []byte {
	if i := bytes.LastIndexByte(buff, '\n'); i >= 0 {
		return buff[i+1:]
	}
	return buff
}

// cleanOutput strips the command echo and the trailing prompt from raw
// shell capture, leaving just what the device printed.
func cleanOutput(cmd string, raw []byte, prompt *regexp.Regexp) []byte {
	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	lines := bytes.Split(normalized, []byte("\n"))
	if len(lines) > 0 && bytes.Contains(lines[0], []byte(cmd)) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && prompt.Match(bytes.TrimRight(lines[n-1], " ")) {
		lines = lines[:n-1]
	}
	out := bytes.Join(lines, []byte("\n"))
	return bytes.TrimLeft(out, "\n")
}
