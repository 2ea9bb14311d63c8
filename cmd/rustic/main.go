// Package main is the command-line front end for the rustic runner: it
// wraps a build-tool invocation, streams the decoded log, and prints the
// extracted source locations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tshepang/rustic/internal/config"
	"github.com/tshepang/rustic/internal/control"
	"github.com/tshepang/rustic/internal/supervise"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type cliOptions struct {
	configPath string
	workDir    string
	logLevel   string
	locations  bool
	yes        bool
	usePTY     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "rustic",
		Short:         "Supervised build-tool runner with live log and location extraction",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "path to configuration file")
	root.PersistentFlags().StringVarP(&opts.workDir, "dir", "d", "", "starting directory for project-root discovery")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&opts.locations, "locations", "l", true, "print extracted locations after the run")
	root.PersistentFlags().BoolVarP(&opts.yes, "yes", "y", false, "kill a running session without asking")
	root.PersistentFlags().BoolVar(&opts.usePTY, "pty", false, "spawn the tool under a pseudo-terminal")

	for _, role := range supervise.Roles {
		root.AddCommand(newRoleCmd(opts, role))
	}
	root.AddCommand(newRerunCmd(opts))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rustic: %v\n", err)
		return 1
	}
	return 0
}

func newRoleCmd(opts *cliOptions, role supervise.Role) *cobra.Command {
	return &cobra.Command{
		Use:     fmt.Sprintf("%s [command...]", role),
		Aliases: roleAliases(role),
		Short:   fmt.Sprintf("Run the %s command and extract locations from its output", role),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), opts, role, shellJoin(args), false)
		},
	}
}

func newRerunCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rerun <role>",
		Short: "Repeat the last run for a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := supervise.ParseRole(args[0])
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), opts, role, "", true)
		},
	}
}

func runSession(parent context.Context, opts *cliOptions, role supervise.Role, command string, rerun bool) error {
	logger := newLogger(opts.logLevel)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.usePTY {
		cfg.UsePTY = true
	}

	ctrlOpts := []control.ControllerOption{
		control.WithLogger(logger),
		control.WithConfirm(confirmKill(opts.yes)),
	}
	if opts.workDir != "" {
		ctrlOpts = append(ctrlOpts, control.WithWorkDir(opts.workDir))
	}
	ctrl := control.New(cfg, ctrlOpts...)

	if w, err := config.Watch(opts.configPath, ctrl.SetConfig, func(err error) {
		logger.Warn("config reload failed", "err", err)
	}); err == nil {
		defer w.Close()
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Stream the log as it grows, unless the policy keeps it hidden.
	if cfg.DisplayPolicy != config.DisplayBackground {
		streamLog(ctrl.Sink(role))
	}

	var sess *supervise.Session
	if rerun {
		sess, err = ctrl.Rerun(ctx, role)
	} else {
		sess, err = ctrl.Run(ctx, role, command)
	}
	if err != nil {
		return err
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	go func() {
		<-interrupts
		_ = ctrl.Terminate(role)
	}()

	<-sess.Done()

	if opts.locations {
		printLocations(ctrl, role)
	}

	if sess.Status() == supervise.StatusKilled {
		return fmt.Errorf("%s killed", role)
	}
	if code := sess.ExitCode(); code != 0 {
		// A nonzero exit is a result, not a runner failure; surface it as
		// the process exit code without an error banner.
		os.Exit(code)
	}
	return nil
}

func roleAliases(role supervise.Role) []string {
	switch role {
	case supervise.RoleFormat:
		return []string{"fmt"}
	case supervise.RoleLint:
		return []string{"clippy"}
	default:
		return nil
	}
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "rustic",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// confirmKill answers the supervisor's takeover question on the terminal,
// or always yes with --yes.
func confirmKill(always bool) supervise.ConfirmFunc {
	return func(running *supervise.Session) bool {
		if always {
			return true
		}
		fmt.Fprintf(os.Stderr, "%s session is running (pid %d); kill it? [y/N] ",
			running.Role, running.PID())
		var answer string
		if _, err := fmt.Fscanln(os.Stdin, &answer); err != nil {
			return false
		}
		return answer == "y" || answer == "Y" || answer == "yes"
	}
}

func printLocations(ctrl *control.Controller, role supervise.Role) {
	locs := ctrl.Locations(role)
	if len(locs) == 0 {
		return
	}
	fmt.Println()
	for _, l := range locs {
		fmt.Printf("%s:%d:%d [%s]\n", l.File, l.Line, l.Column, l.Kind)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/rustic/config.toml"
	}
	return "rustic.toml"
}

// shellJoin rebuilds a command string from argv tokens, quoting tokens so
// the controller's shell-style split round-trips to the same argv.
func shellJoin(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += shellQuote(a)
	}
	return out
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !needsQuoting(s) {
		return s
	}
	// An embedded single quote closes the quoting, escapes the quote,
	// and reopens it.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuoting(s string) bool {
	for _, c := range s {
		if c == ' ' || c == '\t' || c == '\'' || c == '"' || c == '\\' {
			return true
		}
	}
	return false
}
