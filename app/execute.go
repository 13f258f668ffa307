package app

import (
	"context"
	"time"

	"github.com/jonwraymond/gptshell/history"
	"github.com/jonwraymond/gptshell/observe"
	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/shell"
	"github.com/jonwraymond/gptshell/translate"
)

// Metric names emitted by TranslateAndExecute.
const (
	MetricExecuted     = "command.executed"
	MetricDeclined     = "command.declined"
	MetricExecDuration = "command.duration_ms"
)

// historyPriority runs history writes ahead of default-priority work.
const historyPriority = 1

// ConfirmFunc decides whether to run a translated command. dangerous is
// true when the command matches a dangerous pattern or the model marked
// it unsafe.
type ConfirmFunc func(ctx context.Context, t *provider.Translation, dangerous bool) (bool, error)

// Execution is the outcome of TranslateAndExecute.
type Execution struct {
	Translation translate.Result `json:"translation"`
	Dangerous   bool             `json:"dangerous"`
	Executed    bool             `json:"executed"`

	// Result is set when Executed. Stdout and Stderr are truncated to
	// shell.max_output_lines.
	Result shell.Result `json:"result"`
}

// TranslateAndExecute translates input and runs the command in the
// current directory context tc. confirm is asked before running; a nil
// confirm approves safe commands and, when shell.confirm_dangerous is set,
// refuses dangerous ones. Executed commands are recorded in history
// through the task queue.
//
// The returned error is non-nil only when confirm fails or ctx ends
// before the command runs.
func (a *App) TranslateAndExecute(ctx context.Context, input string, tc translate.Context, confirm ConfirmFunc) (Execution, error) {
	res := a.translator.Translate(ctx, input, tc)
	exec := Execution{Translation: res}
	if !res.OK() {
		return exec, nil
	}

	command := res.Translation.Command
	exec.Dangerous = shell.IsDangerous(command) || !res.Translation.Safe

	approved := !exec.Dangerous || !a.config.Shell.ConfirmDangerous
	if confirm != nil {
		ok, err := confirm(ctx, res.Translation, exec.Dangerous)
		if err != nil {
			return exec, err
		}
		approved = ok
	}
	if !approved {
		a.metrics.Increment(ctx, MetricDeclined, 1)
		a.logger.Info(ctx, "command not executed",
			observe.F("command", command),
			observe.F("dangerous", exec.Dangerous),
		)
		return exec, nil
	}
	if err := ctx.Err(); err != nil {
		return exec, err
	}

	out := a.runner.Run(ctx, command, a.config.Shell.Timeout)
	out.Stdout = shell.TruncateLines(out.Stdout, a.config.Shell.MaxOutputLines)
	out.Stderr = shell.TruncateLines(out.Stderr, a.config.Shell.MaxOutputLines)
	exec.Executed, exec.Result = true, out

	a.metrics.Increment(ctx, MetricExecuted, 1)
	a.metrics.Observe(ctx, MetricExecDuration, float64(out.Duration.Microseconds())/1000)
	a.logger.Info(ctx, "command executed",
		observe.F("command", command),
		observe.F("exit_code", out.ExitCode),
		observe.F("duration_ms", out.Duration.Milliseconds()),
	)

	a.recordHistory(ctx, history.Entry{
		Input:     input,
		Command:   command,
		ExitCode:  out.ExitCode,
		Timestamp: time.Now(),
	})
	return exec, nil
}

// recordHistory queues the write and falls back to writing inline when
// the queue refuses it.
func (a *App) recordHistory(ctx context.Context, e history.Entry) {
	_, err := a.queue.Enqueue(ctx, "history.add", historyPriority, func(ctx context.Context) error {
		a.history.Add(ctx, e)
		return nil
	})
	if err != nil {
		a.logger.Warn(ctx, "history write not queued; writing inline", observe.Err(err))
		a.history.Add(context.WithoutCancel(ctx), e)
	}
}
