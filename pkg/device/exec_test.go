package device

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hushdisk/hushdisk/pkg/exechelper"
)

// fakeExecutor serves canned outputs keyed by "command arg0 arg1 ..."
// and records every invocation.
type fakeExecutor struct {
	outputs map[string]string
	fail    map[string]error
	calls   []string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{outputs: map[string]string{}, fail: map[string]error{}}
}

func (e *fakeExecutor) on(cmdline, output string) {
	e.outputs[cmdline] = output
}

func (e *fakeExecutor) failOn(cmdline string, err error) {
	e.fail[cmdline] = err
}

func (e *fakeExecutor) RunCommand(params exechelper.ExecParams) exechelper.ExecResult {
	cmdline := strings.TrimSpace(params.CmdName + " " + strings.Join(params.CmdArgs, " "))
	e.calls = append(e.calls, cmdline)

	if err, ok := e.fail[cmdline]; ok {
		return exechelper.ExecResult{
			OutBuf:   bytes.NewBufferString(""),
			ErrBuf:   bytes.NewBufferString(err.Error()),
			ExitCode: 1,
			Error:    err,
		}
	}

	out, ok := e.outputs[cmdline]
	if !ok {
		err := fmt.Errorf("no canned output for %q", cmdline)
		return exechelper.ExecResult{
			OutBuf:   bytes.NewBufferString(""),
			ErrBuf:   bytes.NewBufferString(err.Error()),
			ExitCode: 1,
			Error:    err,
		}
	}
	return exechelper.ExecResult{
		OutBuf:   bytes.NewBufferString(out),
		ErrBuf:   bytes.NewBufferString(""),
		ExitCode: 0,
	}
}
