package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	serveradapter "github.com/hylla/vimdo/internal/adapters/server"
	"github.com/hylla/vimdo/internal/tui"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

// program is the slice of tea.Program the board launcher needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the board program; tests swap it for a scripted one.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// globalOptions holds flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	remoteURL  string
}

// run builds the command tree and executes args through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if args == nil {
		args = []string{}
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetIn(os.Stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithoutManpage(),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
}

// newRootCommand wires the board launcher and its subcommands.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{
		appName: "vimdo",
		devMode: version == "dev",
	}
	if envDev, ok := parseBoolEnv("VIMDO_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("VIMDO_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:   "vimdo",
		Short: "A vim-style keyboard-driven task board",
		Long: `vimdo sorts tasks into Urgent, Important and Normal columns and drives them
with modal keys: hjkl to move, i to add, e to edit, v to toggle, dd to delete
and : for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.remoteURL, "remote", "", "drive a running vimdo server at this API url instead of the local database")

	root.AddCommand(
		newServeCommand(opts, stderr),
		newListCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stderr),
		newPathsCommand(opts, stdout),
	)
	return root
}

// runBoard launches the interactive board.
func runBoard(ctx context.Context, opts *globalOptions, stderr io.Writer) error {
	rt, err := openRuntime(ctx, opts, "tui", stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Runtime logs go to the dev file only while the board owns the terminal.
	rt.logger.SetConsoleEnabled(false)

	keys := rt.cfg.Keys
	m := tui.NewModel(
		rt.tasks,
		tui.WithDeleteWindow(rt.cfg.Vim.DeleteWindow.Std()),
		tui.WithClockDisplay(rt.cfg.UI.ShowClock, rt.cfg.UI.ClockFormat),
		tui.WithKeyConfig(tui.KeyConfig{
			Insert:  keys.Insert,
			Edit:    keys.Edit,
			Toggle:  keys.Toggle,
			Delete:  keys.Delete,
			Command: keys.Command,
		}),
		tui.WithNoticeHook(func(text string) {
			rt.logger.Warn("board notice", "text", text)
		}),
	)
	rt.logger.Info("starting tui program loop", "remote", rt.remote)
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

// parseBoolEnv reads a boolean environment override; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
