package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrToolNotFound = errors.New("tool not found")
	ErrToolFailed   = errors.New("tool exited with an error")
	ErrToolTimeout  = errors.New("tool did not finish in time")
)

// RunCommand executes the given command in the specified directory, or in the current one when
// 'path' is empty. The command is killed when 'ctx' is done. Errors wrap one of ErrToolNotFound,
// ErrToolFailed or ErrToolTimeout.
func RunCommand(ctx context.Context, log *zap.Logger, path string, cmd string, args ...string) (stdout []byte, stderr []byte, err error) {
	if path != "" && !filepath.IsAbs(path) {
		if path, err = filepath.Abs(path); err != nil {
			return nil, nil, err
		}
	}

	log = log.With(zap.Strings("args", append([]string{cmd}, args...)))

	binary, err := exec.LookPath(cmd)
	if err != nil {
		log.Debug("Could not find command.", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %q", ErrToolNotFound, cmd)
	}

	stdoutBuffer := &bytes.Buffer{}
	stderrBuffer := &bytes.Buffer{}

	execCmd := exec.CommandContext(ctx, binary, args...)
	execCmd.Dir = path
	execCmd.Stdout = stdoutBuffer
	execCmd.Stderr = stderrBuffer

	if log.Core().Enabled(zap.DebugLevel) {
		execCmd.Stdout = io.MultiWriter(execCmd.Stdout, os.Stdout)
		execCmd.Stderr = io.MultiWriter(execCmd.Stderr, os.Stderr)
	}

	log.Debug("Running command.")
	err = execCmd.Run()
	log.Debug("Finished running.", zap.ByteString("stdout", stdoutBuffer.Bytes()), zap.ByteString("stderr", stderrBuffer.Bytes()))
	switch {
	case err == nil:
		return stdoutBuffer.Bytes(), stderrBuffer.Bytes(), nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Debug("Command timed out.", zap.Error(err))
		return stdoutBuffer.Bytes(), stderrBuffer.Bytes(), fmt.Errorf("%w: '%s %s'", ErrToolTimeout, cmd, strings.Join(args, " "))
	case ctx.Err() != nil:
		return stdoutBuffer.Bytes(), stderrBuffer.Bytes(), ctx.Err()
	default:
		log.Debug("Command exited with an error.", zap.Error(err))
		return stdoutBuffer.Bytes(), stderrBuffer.Bytes(), fmt.Errorf("%w: '%s %s': %v", ErrToolFailed, cmd, strings.Join(args, " "), err)
	}
}

// WithTimeout bounds 'ctx' by 'timeout' unless the latter is zero or negative.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
