package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	serveradapter "github.com/hylla/vimdo/internal/adapters/server"
	"github.com/hylla/vimdo/internal/adapters/storage/sqlite"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/config"
	"github.com/hylla/vimdo/internal/tui"
	"github.com/hylla/vimdo/internal/vim"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("VIMDO_DEV_MODE", "false")
	_ = os.Unsetenv("VIMDO_CONFIG")
	_ = os.Unsetenv("VIMDO_DB_PATH")
	_ = os.Unsetenv("VIMDO_APP_NAME")
	os.Exit(m.Run())
}

// fakeProgram stands in for the tea program.
type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// scriptedProgram hands the built model to runFn.
type scriptedProgram struct {
	model tea.Model
	runFn func(tea.Model) (tea.Model, error)
}

func (p scriptedProgram) Run() (tea.Model, error) {
	if p.runFn == nil {
		return p.model, nil
	}
	return p.runFn(p.model)
}

// isolateHome points every platform directory at a temp dir and returns it.
func isolateHome(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	return root
}

// storeArgs returns flags pointing at an isolated config and database.
func storeArgs(root string) []string {
	return []string{
		"--config", filepath.Join(root, "config.toml"),
		"--db", filepath.Join(root, "vimdo.db"),
	}
}

// runCLI executes run() and returns captured stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

const sampleSnapshot = `{
  "version": "vimdo.snapshot.v1",
  "exported_at": "2026-02-24T12:00:00Z",
  "tasks": [
    {"id": 1, "title": "Pay rent", "urgency": 1, "completed": false},
    {"id": 2, "title": "Book dentist", "urgency": 2, "completed": true},
    {"id": 7, "title": "Water plants", "urgency": 3, "completed": false}
  ]
}
`

// TestRootCommandDescribesDefaultKeys verifies the long help names the real bindings.
func TestRootCommandDescribesDefaultKeys(t *testing.T) {
	long := newRootCommand(nil, nil).Long
	keys := vim.DefaultBindings()
	for _, want := range []string{
		keys.Insert[0] + " to add",
		keys.Edit[0] + " to edit",
		keys.Toggle[0] + " to toggle",
		keys.Delete[0] + keys.Delete[0] + " to delete",
	} {
		if !strings.Contains(long, want) {
			t.Fatalf("expected root help to mention %q, got %q", want, long)
		}
	}
}

// TestRunPathsCommand verifies path resolution output.
func TestRunPathsCommand(t *testing.T) {
	root := isolateHome(t)

	out, _, err := runCLI(t, "--app", "vimdo-test", "paths")
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	for _, want := range []string{
		"app: vimdo-test",
		"dev_mode: false",
		"config: " + filepath.Join(root, "config", "vimdo-test", "config.toml"),
		"db: " + filepath.Join(root, "data", "vimdo-test", "vimdo-test.db"),
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected paths output to contain %q, got %q", want, out)
		}
	}

	t.Setenv("VIMDO_DB_PATH", "/env/override.db")
	out, _, err = runCLI(t, "--dev", "paths")
	if err != nil {
		t.Fatalf("run(--dev paths) error = %v", err)
	}
	if !strings.Contains(out, "db: /env/override.db") || !strings.Contains(out, "vimdo-dev") {
		t.Fatalf("expected env db override and dev app dirs, got %q", out)
	}
}

// TestRunImportListExport verifies the snapshot round trip and table output.
func TestRunImportListExport(t *testing.T) {
	root := isolateHome(t)
	snapPath := filepath.Join(root, "in.json")
	if err := os.WriteFile(snapPath, []byte(sampleSnapshot), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, _, err := runCLI(t, append(storeArgs(root), "import", "--in", snapPath)...); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	out, _, err := runCLI(t, append(storeArgs(root), "list")...)
	if err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	for _, want := range []string{"Pay rent", "Book dentist", "Water plants", "Urgent", "Important", "[x]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected list output to contain %q, got %q", want, out)
		}
	}
	if strings.Index(out, "Pay rent") > strings.Index(out, "Water plants") {
		t.Fatalf("expected board order in list output, got %q", out)
	}

	out, _, err = runCLI(t, append(storeArgs(root), "list", "--column", "normal")...)
	if err != nil {
		t.Fatalf("run(list --column) error = %v", err)
	}
	if strings.Contains(out, "Pay rent") || !strings.Contains(out, "Water plants") {
		t.Fatalf("expected only normal tasks, got %q", out)
	}

	out, _, err = runCLI(t, append(storeArgs(root), "export", "--format", "yaml")...)
	if err != nil {
		t.Fatalf("run(export yaml) error = %v", err)
	}
	if !strings.Contains(out, "version: vimdo.snapshot.v1") || !strings.Contains(out, "title: Water plants") {
		t.Fatalf("unexpected yaml export %q", out)
	}

	outPath := filepath.Join(root, "out", "board.json")
	if _, _, err := runCLI(t, append(storeArgs(root), "export", "--out", outPath)...); err != nil {
		t.Fatalf("run(export json) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	snap, err := decodeSnapshot(content, formatJSON)
	if err != nil {
		t.Fatalf("decodeSnapshot() error = %v", err)
	}
	if len(snap.Tasks) != 3 || snap.Tasks[2].ID != 7 || !snap.Tasks[1].Completed {
		t.Fatalf("unexpected exported snapshot %#v", snap.Tasks)
	}
}

// TestRunImportYAMLRoundTrip verifies yaml snapshots import by extension.
func TestRunImportYAMLRoundTrip(t *testing.T) {
	root := isolateHome(t)
	yamlPath := filepath.Join(root, "in.yaml")
	content := "version: vimdo.snapshot.v1\ntasks:\n  - id: 3\n    title: Read novel\n    urgency: 3\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, _, err := runCLI(t, append(storeArgs(root), "import", "--in", yamlPath)...); err != nil {
		t.Fatalf("run(import yaml) error = %v", err)
	}
	out, _, err := runCLI(t, append(storeArgs(root), "list")...)
	if err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(out, "Read novel") {
		t.Fatalf("expected imported task, got %q", out)
	}
}

// TestRunCommandErrors verifies flag and argument validation.
func TestRunCommandErrors(t *testing.T) {
	root := isolateHome(t)

	if _, _, err := runCLI(t, "bogus"); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if _, _, err := runCLI(t, append(storeArgs(root), "import")...); err == nil || !strings.Contains(err.Error(), "--in is required") {
		t.Fatalf("run(import) error = %v, want --in is required", err)
	}
	if _, _, err := runCLI(t, append(storeArgs(root), "export", "--format", "xml")...); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, _, err := runCLI(t, append(storeArgs(root), "list", "--column", "later")...); err == nil {
		t.Fatal("expected unknown column error")
	}

	badConfig := filepath.Join(root, "bad.toml")
	if err := os.WriteFile(badConfig, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, _, err := runCLI(t, "--config", badConfig, "--db", filepath.Join(root, "x.db"), "list"); err == nil {
		t.Fatal("expected config validation error")
	}
}

// TestRunBoardUsesProgramFactory verifies the default command builds and runs the board.
func TestRunBoardUsesProgramFactory(t *testing.T) {
	root := isolateHome(t)
	cfgPath := filepath.Join(root, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[vim]\ndelete_window = \"750ms\"\n\n[keys]\ndelete = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	orig := programFactory
	t.Cleanup(func() { programFactory = orig })

	var built tea.Model
	programFactory = func(m tea.Model) program {
		return scriptedProgram{model: m, runFn: func(m tea.Model) (tea.Model, error) {
			built = m
			return m, nil
		}}
	}
	_, stderr, err := runCLI(t, "--config", cfgPath, "--db", filepath.Join(root, "vimdo.db"))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := built.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", built)
	}
	if strings.Contains(stderr, "starting tui program loop") {
		t.Fatalf("expected console logging muted while the board runs, got %q", stderr)
	}

	programFactory = func(tea.Model) program {
		return fakeProgram{runErr: errors.New("tty lost")}
	}
	_, _, err = runCLI(t, "--config", cfgPath, "--db", filepath.Join(root, "vimdo.db"))
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("run() error = %v, want run tui program failure", err)
	}
}

// TestRunServeUsesRunner verifies serve wiring without binding a socket.
func TestRunServeUsesRunner(t *testing.T) {
	root := isolateHome(t)

	orig := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = orig })

	var (
		gotCfg  serveradapter.Config
		gotDeps serveradapter.Dependencies
	)
	serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg, gotDeps = cfg, deps
		if deps.Ready == nil {
			return errors.New("missing ready probe")
		}
		return deps.Ready(ctx)
	}

	if _, _, err := runCLI(t, append(storeArgs(root), "serve", "--bind", "127.0.0.1:9911")...); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if gotCfg.HTTPBind != "127.0.0.1:9911" || gotCfg.APIEndpoint != "/api/v1" || gotCfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected serve config %#v", gotCfg)
	}
	if gotCfg.ServerName != "vimdo" || gotDeps.Tasks == nil || gotDeps.Logger == nil {
		t.Fatalf("unexpected serve dependencies %#v %#v", gotCfg, gotDeps)
	}

	serveCommandRunner = func(context.Context, serveradapter.Config, serveradapter.Dependencies) error {
		return errors.New("address in use")
	}
	if _, _, err := runCLI(t, append(storeArgs(root), "serve")...); err == nil || !strings.Contains(err.Error(), "run serve command") {
		t.Fatalf("run(serve) error = %v, want run serve command failure", err)
	}
}

// TestRunRemoteMode verifies list against a live API and local-only command rejection.
func TestRunRemoteMode(t *testing.T) {
	root := isolateHome(t)
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	svc := app.NewService(repo, func() time.Time { return time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC) })
	if _, err := svc.CreateTask(context.Background(), app.CreateTaskInput{Title: "Call plumber", Urgency: 1}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	handler, _, err := serveradapter.NewHandler(serveradapter.Config{}, serveradapter.Dependencies{Tasks: svc})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	args := append(storeArgs(root), "--remote", srv.URL+"/api/v1")
	out, _, err := runCLI(t, append(args, "list")...)
	if err != nil {
		t.Fatalf("run(list --remote) error = %v", err)
	}
	if !strings.Contains(out, "Call plumber") {
		t.Fatalf("expected remote task in list, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "vimdo.db")); !os.IsNotExist(err) {
		t.Fatalf("expected remote mode to leave the local database untouched, stat err = %v", err)
	}

	if _, _, err := runCLI(t, append(args, "export")...); !errors.Is(err, errRemoteUnsupported) {
		t.Fatalf("run(export --remote) error = %v, want errRemoteUnsupported", err)
	}

	gone := httptest.NewServer(handler)
	goneURL := gone.URL + "/api/v1"
	gone.Close()
	_, _, err = runCLI(t, append(storeArgs(root), "--remote", goneURL, "list")...)
	if err == nil || !strings.Contains(err.Error(), "ping remote server") {
		t.Fatalf("run(list --remote unreachable) error = %v, want ping remote server failure", err)
	}
}

// TestRuntimeLoggerDevFile verifies dev-mode file sinks and console muting.
func TestRuntimeLoggerDevFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	now := func() time.Time { return time.Date(2026, 2, 24, 9, 0, 0, 0, time.UTC) }
	logger, err := newRuntimeLogger(&console, "vimdo test", true, config.LoggingConfig{
		Level:   "debug",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	wantPath := filepath.Join(dir, "vimdo-test-20260224.log")
	if logger.DevLogPath() != wantPath {
		t.Fatalf("DevLogPath() = %q, want %q", logger.DevLogPath(), wantPath)
	}

	logger.Info("visible", "k", "v")
	logger.SetConsoleEnabled(false)
	logger.Warn("file only")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "visible") || strings.Contains(console.String(), "file only") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	content, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "visible") || !strings.Contains(string(content), "file only") {
		t.Fatalf("unexpected dev log content %q", content)
	}

	if _, err := newRuntimeLogger(nil, "vimdo", false, config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected invalid level error")
	}
}

// TestLogHelpers verifies file-name sanitizing and workspace detection.
func TestLogHelpers(t *testing.T) {
	if got := sanitizeLogFileStem(" a/b:c "); got != "a-b-c" {
		t.Fatalf("sanitizeLogFileStem() = %q, want a-b-c", got)
	}
	if got := sanitizeLogFileStem("//"); got != "vimdo" {
		t.Fatalf("sanitizeLogFileStem(//) = %q, want vimdo", got)
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
}
