package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	serveradapter "github.com/hylla/vimdo/internal/adapters/server"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newServeCommand exposes the task API and MCP tools over HTTP.
func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task HTTP API and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, "serve", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.requireLocal(); err != nil {
				return err
			}

			serverCfg := serveradapter.Config{
				HTTPBind:      rt.cfg.Server.Bind,
				APIEndpoint:   rt.cfg.Server.APIEndpoint,
				MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
				ServerName:    opts.appName,
				ServerVersion: version,
			}
			if strings.TrimSpace(bind) != "" {
				serverCfg.HTTPBind = bind
			}
			rt.logger.Info("command flow start", "command", "serve", "bind", serverCfg.HTTPBind)
			err = serveCommandRunner(cmd.Context(), serverCfg, serveradapter.Dependencies{
				Tasks:  rt.local,
				Ready:  rt.repo.Ping,
				Logger: rt.logger,
			})
			if err != nil {
				rt.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.bind)")
	return cmd
}

// newListCommand prints the board as a table, column by column.
func newListCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks grouped by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := parseColumnFilter(column)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, "list", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			tasks, err := rt.tasks.ListTasks(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tasks: %s", app.ErrorMessage(err))
			}
			_, err = fmt.Fprintln(stdout, renderTaskTable(domain.Columns(tasks), filter))
			return err
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "only show one column: urgent, important or normal")
	return cmd
}

// parseColumnFilter maps a column name to its category; -1 means all columns.
func parseColumnFilter(raw string) (domain.Category, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return -1, nil
	}
	for category := domain.Category(0); category < domain.ColumnCount; category++ {
		if strings.ToLower(category.Title()) == raw {
			return category, nil
		}
	}
	return -1, fmt.Errorf("unknown column %q: want urgent, important or normal", raw)
}

// renderTaskTable lays tasks out in board order.
func renderTaskTable(columns [domain.ColumnCount][]domain.Task, filter domain.Category) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	doneStyle := cellStyle.Foreground(lipgloss.Color("241"))

	rows := make([][]string, 0)
	done := map[int]bool{}
	for category, tasks := range columns {
		if filter >= 0 && domain.Category(category) != filter {
			continue
		}
		for _, task := range tasks {
			mark := " "
			if task.Completed {
				mark = "x"
				done[len(rows)] = true
			}
			rows = append(rows, []string{
				strconv.FormatInt(task.ID, 10),
				domain.Category(category).Title(),
				"[" + mark + "]",
				task.Title,
			})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("ID", "COLUMN", "DONE", "TITLE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case done[row]:
				return doneStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

// snapshotFormat names a snapshot encoding.
type snapshotFormat string

const (
	formatJSON snapshotFormat = "json"
	formatYAML snapshotFormat = "yaml"
)

// resolveSnapshotFormat honours an explicit --format, else infers from the file extension.
func resolveSnapshotFormat(raw, path string) (snapshotFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	case "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return formatYAML, nil
		default:
			return formatJSON, nil
		}
	default:
		return "", fmt.Errorf("unsupported format %q: want json or yaml", raw)
	}
}

func encodeSnapshot(snap app.Snapshot, format snapshotFormat) ([]byte, error) {
	if format == formatYAML {
		encoded, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return encoded, nil
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot json: %w", err)
	}
	return append(encoded, '\n'), nil
}

func decodeSnapshot(content []byte, format snapshotFormat) (app.Snapshot, error) {
	var snap app.Snapshot
	if format == formatYAML {
		if err := yaml.Unmarshal(content, &snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
		return snap, nil
	}
	if err := json.Unmarshal(content, &snap); err != nil {
		return app.Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
	}
	return snap, nil
}

// newExportCommand writes every task to a snapshot file or stdout.
func newExportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks as a JSON or YAML snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveSnapshotFormat(format, outPath)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, "export", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.requireLocal(); err != nil {
				return err
			}

			snap, err := rt.local.ExportSnapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			encoded, err := encodeSnapshot(snap, resolved)
			if err != nil {
				return err
			}
			if outPath == "-" {
				if _, err := stdout.Write(encoded); err != nil {
					return fmt.Errorf("write snapshot to stdout: %w", err)
				}
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create export output dir: %w", err)
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "export", "tasks", len(snap.Tasks), "out", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "snapshot format: json or yaml (default from --out extension)")
	return cmd
}

// newImportCommand upserts tasks from a snapshot file, keeping their ids.
func newImportCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		inPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from a JSON or YAML snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			resolved, err := resolveSnapshotFormat(format, inPath)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			snap, err := decodeSnapshot(content, resolved)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context(), opts, "import", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.requireLocal(); err != nil {
				return err
			}
			if err := rt.local.ImportSnapshot(cmd.Context(), snap); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "import", "tasks", len(snap.Tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file")
	cmd.Flags().StringVar(&format, "format", "", "snapshot format: json or yaml (default from --in extension)")
	return cmd
}

// newPathsCommand prints resolved config and data locations.
func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, configPath, dbPath, _, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}
