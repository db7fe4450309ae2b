package exechelper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultExecTimeout = 30

	exitCodeTimeout    = 124
	exitCodeErrDefault = 1
	exitCodeSuccess    = 0
)

var squashRegex = regexp.MustCompile("[\t\n\r]+")

type basicExecutor struct{}

// NewExecutor creates an Executor backed by os/exec with a per-command
// timeout.
func NewExecutor() Executor {
	return &basicExecutor{}
}

// RunCommand run a command, and get result
func (e *basicExecutor) RunCommand(params ExecParams) ExecResult {
	log.WithFields(log.Fields{"command": params.CmdName, "args": params.CmdArgs}).Debug("Running command")

	if params.Timeout == 0 {
		params.Timeout = defaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*time.Duration(params.Timeout))
	defer cancel()

	outbuf, errbuf := bytes.NewBufferString(""), bytes.NewBufferString("")
	cmd := exec.CommandContext(ctx, params.CmdName, params.CmdArgs...)
	cmd.Stdout = outbuf
	cmd.Stderr = errbuf
	err := cmd.Run()

	result := ExecResult{
		OutBuf:   bytes.NewBufferString(strings.TrimSuffix(outbuf.String(), "\n")),
		ErrBuf:   bytes.NewBufferString(strings.TrimSuffix(errbuf.String(), "\n")),
		ExitCode: exitCodeSuccess,
		Error:    err,
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = exitCodeTimeout
		result.Error = fmt.Errorf("command %s %s timed out after %d seconds", params.CmdName, params.CmdArgs, params.Timeout)
		err = result.Error
	}

	if err != nil {
		// try to get the exit code
		if exitError, ok := err.(*exec.ExitError); ok {
			ws := exitError.Sys().(syscall.WaitStatus)
			result.ExitCode = ws.ExitStatus()
		} else {
			// failed to get exit code, use default code
			result.ExitCode = exitCodeErrDefault
		}
		result.Error = errors.New(squashRegex.ReplaceAllString(err.Error(), " "))
	}

	log.WithFields(log.Fields{
		"command":  params.CmdName,
		"args":     params.CmdArgs,
		"exitCode": result.ExitCode,
	}).Debug("Command finished")

	return result
}
