package adapter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

const (
	// SuccessToken is the response a worker prints for a command that worked.
	SuccessToken = "success"

	batchFlag      = "--batch"
	batchSeparator = ";"
	// responseQueue bounds how many unsolicited lines are buffered before the
	// reader blocks; one is enough to detect a desync.
	responseQueue = 16
)

// Session is a request/response channel to a running subsetting worker.
// Requests are strictly alternating: one Send must return before the next.
type Session interface {
	// Send issues one command, given as CLI-style arguments, and returns the
	// worker's single response line with surrounding whitespace trimmed.
	Send(ctx context.Context, args []string) (string, error)
	// Close ends the session and waits for the worker to exit.
	Close() error
}

// BatchSession drives `<worker> --batch`: one semicolon-joined command per
// input line, exactly one response line per command.
type BatchSession struct {
	path    string
	timeout time.Duration

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
	lines  chan string
	group  *errgroup.Group

	// readErr is written by the reader goroutine before lines is closed.
	readErr error
	broken  error
}

// StartBatchSession validates workerPath and launches it in batch mode. The
// worker's stderr is copied to stderr. A zero timeout waits for responses
// indefinitely.
func StartBatchSession(workerPath string, stderr io.Writer, timeout time.Duration) (*BatchSession, error) {
	if err := checkInvocable(workerPath); err != nil {
		return nil, err
	}

	// #nosec G204 -- the worker path is the harness's explicit input.
	cmd := exec.Command(workerPath, batchFlag)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, m.WrapError(m.ClassWorkerGone, err, "open worker stdin")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, m.WrapError(m.ClassWorkerGone, err, "open worker stdout")
	}

	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, m.WrapError(m.ClassWorkerGone, err, "open worker stderr")
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to start worker", "worker", workerPath, "error", err)
		return nil, m.WrapError(m.ClassWorkerGone, err, "start %s", workerPath)
	}

	slog.Debug("Started worker", "worker", workerPath, "pid", cmd.Process.Pid)

	s := &BatchSession{
		path:    workerPath,
		timeout: timeout,
		cmd:     cmd,
		stdin:   stdin,
		writer:  bufio.NewWriter(stdin),
		lines:   make(chan string, responseQueue),
		group:   &errgroup.Group{},
	}

	s.group.Go(func() error {
		return s.readResponses(stdout)
	})

	s.group.Go(func() error {
		if stderr == nil {
			stderr = io.Discard
		}

		_, err := io.Copy(stderr, errPipe)

		return err
	})

	return s, nil
}

func checkInvocable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return m.WrapError(m.ClassWorkerGone, err, "worker %s", path)
	}

	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return m.NewError(m.ClassWorkerGone, "worker %s is not executable", path)
	}

	return nil
}

func (s *BatchSession) readResponses(stdout io.Reader) error {
	defer close(s.lines)

	reader := bufio.NewReader(stdout)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			s.lines <- line
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.readErr = err
			}

			return nil
		}
	}
}

// EncodeBatchLine renders a command as one batch protocol line, without the
// trailing newline. The worker path is the first token.
func EncodeBatchLine(workerPath string, args []string) (string, error) {
	tokens := append([]string{workerPath}, args...)

	for _, tok := range tokens {
		if strings.ContainsAny(tok, batchSeparator+"\r\n") {
			return "", fmt.Errorf("argument %q cannot be expressed in the batch protocol", tok)
		}
	}

	return strings.Join(tokens, batchSeparator), nil
}

// Send writes one command and blocks for exactly one response line.
func (s *BatchSession) Send(ctx context.Context, args []string) (string, error) {
	if s.broken != nil {
		return "", s.broken
	}

	if err := s.checkIdle(); err != nil {
		return "", err
	}

	line, err := EncodeBatchLine(s.path, args)
	if err != nil {
		return "", m.WrapError(m.ClassProtocol, err, "encode command")
	}

	if _, err := s.writer.WriteString(line + "\n"); err != nil {
		return "", s.fail(m.WrapError(m.ClassWorkerGone, err, "write to worker"))
	}

	if err := s.writer.Flush(); err != nil {
		return "", s.fail(m.WrapError(m.ClassWorkerGone, err, "write to worker"))
	}

	return s.await(ctx)
}

// checkIdle fails if the worker produced output nobody asked for. Such a line
// would otherwise be taken as the answer to the next command.
func (s *BatchSession) checkIdle() error {
	select {
	case extra, ok := <-s.lines:
		if !ok {
			return s.fail(s.exitedError())
		}

		slog.Error("Worker produced an unsolicited line", "worker", s.path, "line", extra)

		return s.fail(m.NewError(m.ClassProtocolDesync,
			"worker wrote an unexpected extra line %q; responses are out of step with commands",
			strings.TrimSpace(extra)))
	default:
		return nil
	}
}

func (s *BatchSession) await(ctx context.Context) (string, error) {
	var timeout <-chan time.Time

	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", s.fail(s.exitedError())
		}

		return strings.TrimSpace(line), nil
	case <-timeout:
		slog.Error("Worker did not answer in time", "worker", s.path, "timeout", s.timeout)
		// A late answer would be read as the reply to the next command.
		s.broken = m.NewError(m.ClassWorkerGone, "worker session abandoned after a %s response timeout", s.timeout)

		return "", m.NewError(m.ClassProtocol, "no response from worker within %s", s.timeout)
	case <-ctx.Done():
		s.broken = m.WrapError(m.ClassWorkerGone, ctx.Err(), "worker session abandoned")

		return "", s.broken
	}
}

func (s *BatchSession) exitedError() error {
	if s.readErr != nil {
		return m.WrapError(m.ClassWorkerGone, s.readErr, "read from worker")
	}

	return m.NewError(m.ClassWorkerGone, "worker exited unexpectedly")
}

func (s *BatchSession) fail(err error) error {
	s.broken = err
	return err
}

// Close closes the worker's input and waits for it to exit. Output left
// unread by a healthy session means some response answered the wrong
// command, so it is reported as a ProtocolDesync.
func (s *BatchSession) Close() error {
	closeErr := s.stdin.Close()

	if s.broken != nil && s.cmd.Process != nil {
		// A hung or desynchronized worker may never see EOF.
		_ = s.cmd.Process.Kill()
	}

	leftover := 0
	for range s.lines {
		leftover++
	}

	groupErr := s.group.Wait()
	waitErr := s.cmd.Wait()

	if s.broken != nil {
		return nil
	}

	if leftover > 0 {
		slog.Error("Worker left unread output", "worker", s.path, "lines", leftover)

		return m.NewError(m.ClassProtocolDesync,
			"worker left %d unread line(s); responses were out of step with commands", leftover)
	}

	if waitErr != nil {
		slog.Error("Worker exited with error", "worker", s.path, "error", waitErr)
		return m.WrapError(m.ClassWorkerGone, waitErr, "worker exit")
	}

	if closeErr != nil {
		return fmt.Errorf("close worker stdin: %w", closeErr)
	}

	return groupErr
}
