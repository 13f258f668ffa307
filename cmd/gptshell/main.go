// Command gptshell turns natural-language requests into shell commands.
//
//	gptshell [flags] <request...>    translate (and with -exec, run) one request
//	gptshell serve [flags]           serve the HTTP API
//	gptshell health [flags]          print a health report
//	gptshell config [flags]          print the effective configuration
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/jonwraymond/gptshell/app"
	"github.com/jonwraymond/gptshell/config"
	"github.com/jonwraymond/gptshell/health"
	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/translate"
)

var version = "dev"

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newApp is replaced in tests.
var newApp = func(ctx context.Context, cfg config.Config, stderr io.Writer) (*app.App, error) {
	return app.New(ctx, cfg, app.Options{Version: version, LogWriter: stderr})
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			return runServe(args[1:], stderr)
		case "health":
			return runHealth(args[1:], stdout, stderr)
		case "config":
			return runConfig(args[1:], stdout, stderr)
		}
	}
	return runTranslate(args, stdin, stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  gptshell [-config path] [-exec] [-yes] [-json] <request...>")
	fmt.Fprintln(w, "  gptshell serve  [-config path] [-addr host:port]")
	fmt.Fprintln(w, "  gptshell health [-config path]")
	fmt.Fprintln(w, "  gptshell config [-config path]")
}

func runTranslate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gptshell", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath string
	var execute, assumeYes, asJSON, showVersion bool
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.BoolVar(&execute, "exec", false, "run the translated command")
	fs.BoolVar(&assumeYes, "yes", false, "run without asking for confirmation")
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if showVersion {
		fmt.Fprintf(stdout, "gptshell %s\n", version)
		return 0
	}

	input := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if input == "" {
		printUsage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, code := start(ctx, configPath, "", stderr)
	if a == nil {
		return code
	}
	defer shutdown(a, stderr)

	tc := workingContext()
	if !execute {
		res := a.Translate(ctx, input, tc)
		if asJSON {
			return printJSON(stdout, stderr, res)
		}
		return printTranslation(stdout, res)
	}

	var confirm app.ConfirmFunc
	switch {
	case assumeYes:
		confirm = func(context.Context, *provider.Translation, bool) (bool, error) { return true, nil }
	case stdinIsTerminal():
		confirm = promptConfirm(stdin, stderr)
	}

	ex, err := a.TranslateAndExecute(ctx, input, tc, confirm)
	if err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return 1
	}
	if asJSON {
		if code := printJSON(stdout, stderr, ex); code != 0 {
			return code
		}
	} else if code := printTranslation(stdout, ex.Translation); code != 0 {
		return code
	}
	if !ex.Executed {
		if !asJSON {
			fmt.Fprintln(stderr, "command not executed")
		}
		return 1
	}
	if !asJSON {
		io.WriteString(stdout, ex.Result.Stdout)
		io.WriteString(stderr, ex.Result.Stderr)
	}
	return ex.Result.ExitCode
}

// printTranslation writes the command and notes. It returns a non-zero
// code when the result carries no command.
func printTranslation(w io.Writer, res translate.Result) int {
	switch res.Outcome {
	case translate.OutcomeRejected:
		reason := "input rejected"
		if res.Rejection != nil {
			reason = res.Rejection.Reason
		}
		fmt.Fprintf(w, "rejected: %s\n", reason)
		return 1
	case translate.OutcomeRateLimited:
		fmt.Fprintln(w, "rate limited: try again shortly")
		return 1
	}

	t := res.Translation
	if t == nil {
		return 1
	}
	if t.Command != "" {
		fmt.Fprintf(w, "$ %s\n", t.Command)
	}
	if t.Explanation != "" {
		fmt.Fprintf(w, "# %s\n", t.Explanation)
	}
	if warning := t.WarningText(); warning != "" {
		fmt.Fprintf(w, "! %s\n", warning)
	}
	if !res.OK() {
		return 1
	}
	return 0
}

func promptConfirm(stdin io.Reader, prompt io.Writer) app.ConfirmFunc {
	reader := bufio.NewReader(stdin)
	return func(_ context.Context, t *provider.Translation, dangerous bool) (bool, error) {
		if dangerous {
			fmt.Fprintf(prompt, "WARNING: %q may be destructive.\n", t.Command)
		}
		fmt.Fprintf(prompt, "Run %q? [y/N] ", t.Command)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath, addr string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, code := start(ctx, configPath, addr, stderr)
	if a == nil {
		return code
	}
	defer shutdown(a, stderr)

	if err := a.Serve(ctx); err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return 1
	}
	return 0
}

func runHealth(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	a, code := start(ctx, configPath, "", stderr)
	if a == nil {
		return code
	}
	defer shutdown(a, stderr)

	report := a.Health(ctx)
	if code := printJSON(stdout, stderr, report); code != 0 {
		return code
	}
	if report.Status == health.StatusUnhealthy {
		return 1
	}
	return 0
}

func runConfig(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return 1
	}
	out, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return 1
	}
	stdout.Write(out)
	return 0
}

// start loads configuration, resolves secrets, and starts an App. On
// failure it reports the error and returns a nil App with the exit code.
func start(ctx context.Context, configPath, addr string, stderr io.Writer) (*app.App, int) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return nil, 1
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return nil, 1
	}
	defer resolver.Close()
	if err := cfg.ResolveSecrets(ctx, resolver); err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return nil, 1
	}

	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return nil, 1
	}
	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		shutdown(a, stderr)
		return nil, 1
	}
	return a, 0
}

func shutdown(a *app.App, stderr io.Writer) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		fmt.Fprintf(stderr, "gptshell: shutdown: %v\n", err)
	}
}

func printJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "gptshell: %v\n", err)
		return 1
	}
	return 0
}

func workingContext() translate.Context {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "unknown"
	}
	return translate.Context{WorkingDir: cwd, OS: runtime.GOOS}
}
