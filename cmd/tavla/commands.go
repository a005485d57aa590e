package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/tavla/internal/adapters/mcpstdio"
	"github.com/evanschultz/tavla/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tavla/internal/app"
	"github.com/evanschultz/tavla/internal/domain"
	"github.com/spf13/cobra"
)

func newPathsCommand(opts *globalOptions) *cobra.Command {
	var entries bool
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config, data, and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s (%s)\n", paths.ConfigPath, paths.ConfigSource)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s (%s)\n", paths.DBPath, paths.DBSource)
			if !entries {
				return nil
			}
			return printEntries(cmd, paths.DBPath)
		},
	}
	cmd.Flags().BoolVar(&entries, "entries", false, "also list the keys stored in the database")
	return cmd
}

// printEntries lists stored keys without loading or repairing the board.
func printEntries(cmd *cobra.Command, dbPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "entries: none (database not created yet)")
		return nil
	}
	repo, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() { _ = repo.Close() }()
	list, err := repo.Entries(cmd.Context())
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "entries: %d\n", len(list))
	for _, e := range list {
		_, _ = fmt.Fprintf(out, "  %s\t%d bytes\t%s\n", e.Key, e.Size, e.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func newResetCommand(opts *globalOptions) *cobra.Command {
	var keys []string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored board keys so the next run starts from defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				keys = []string{app.KeyTasks, app.KeyColumns, app.KeyDarkMode}
			}
			return resetEntries(cmd, paths.DBPath, keys)
		},
	}
	cmd.Flags().StringSliceVarP(&keys, "key", "k", nil, "key to delete (repeatable; default all board keys)")
	return cmd
}

// resetEntries deletes keys from the database at dbPath. Keys that are not
// stored are reported and skipped.
func resetEntries(cmd *cobra.Command, dbPath string, keys []string) error {
	out := cmd.OutOrStdout()
	if _, err := os.Stat(dbPath); err != nil {
		_, _ = fmt.Fprintln(out, "reset: nothing to do (database not created yet)")
		return nil
	}
	repo, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() { _ = repo.Close() }()

	deleted := 0
	for _, key := range keys {
		key = strings.TrimSpace(key)
		err := repo.Delete(cmd.Context(), key)
		switch {
		case err == nil:
			deleted++
			_, _ = fmt.Fprintf(out, "deleted %s\n", key)
		case errors.Is(err, sqlite.ErrNotFound):
			_, _ = fmt.Fprintf(out, "skipped %s (not stored)\n", key)
		default:
			return fmt.Errorf("reset %q: %w", key, err)
		}
	}
	_, _ = fmt.Fprintf(out, "reset %d of %d keys\n", deleted, len(keys))
	return nil
}

func newListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr(), opts, "list", false)
			if err != nil {
				return err
			}
			defer s.Close(cmd.ErrOrStderr())
			writeBoard(cmd.OutOrStdout(), s.svc.Board())
			return nil
		},
	}
}

// writeBoard prints columns in order with their tasks indented below.
func writeBoard(w io.Writer, b domain.Board) {
	for idx, col := range b.Columns {
		if idx > 0 {
			_, _ = fmt.Fprintln(w)
		}
		tasks := b.ByStatus(col.ID)
		_, _ = fmt.Fprintf(w, "%s (%d)\n", col.Title, len(tasks))
		for _, t := range tasks {
			line := fmt.Sprintf("  - %s [%s]", t.Title, t.Priority)
			if t.DueDate != nil {
				line += " due " + t.DueDate.Format(domain.DueDateLayout)
			}
			_, _ = fmt.Fprintf(w, "%s  %s\n", line, t.ID)
		}
	}
}

func newAddCommand(opts *globalOptions) *cobra.Command {
	var (
		priority    string
		description string
		due         string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the first column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title is required")
			}
			p := domain.Priority(strings.ToLower(strings.TrimSpace(priority)))
			if !p.Valid() {
				return fmt.Errorf("unknown priority %q", priority)
			}
			var dueDate *time.Time
			if strings.TrimSpace(due) != "" {
				parsed, err := time.Parse(domain.DueDateLayout, strings.TrimSpace(due))
				if err != nil {
					return fmt.Errorf("--due must be YYYY-MM-DD")
				}
				dueDate = &parsed
			}

			s, err := openSession(cmd.Context(), cmd.ErrOrStderr(), opts, "add", false)
			if err != nil {
				return err
			}
			defer s.Close(cmd.ErrOrStderr())
			task, ok := s.svc.AddTask(cmd.Context(), app.AddTaskInput{
				Title:       title,
				Priority:    p,
				Description: description,
				DueDate:     dueDate,
			})
			if !ok {
				return fmt.Errorf("task was not added")
			}
			board := s.svc.Board()
			column := task.Status
			if idx := board.ColumnIndex(task.Status); idx >= 0 {
				column = board.Columns[idx].Title
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", task.ID, column)
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(domain.PriorityMedium), "task priority (low, medium, high)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "markdown description")
	cmd.Flags().StringVar(&due, "due", "", "due date as YYYY-MM-DD")
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as a snapshot JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr(), opts, "export", false)
			if err != nil {
				return err
			}
			defer s.Close(cmd.ErrOrStderr())

			encoded, err := app.EncodeSnapshot(s.svc.ExportSnapshot())
			if err != nil {
				return err
			}
			if outPath == "-" {
				if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
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
			s.logger.Info("snapshot exported", "path", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file path ('-' for stdout)")
	return cmd
}

func newImportCommand(opts *globalOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a snapshot JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			snap, err := app.DecodeSnapshot(content)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), cmd.ErrOrStderr(), opts, "import", false)
			if err != nil {
				return err
			}
			defer s.Close(cmd.ErrOrStderr())
			if err := s.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks in %d columns\n", len(s.svc.Board().Tasks), len(s.svc.Board().Columns))
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "input snapshot JSON file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newMCPCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the board as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr(), opts, "mcp", false)
			if err != nil {
				return err
			}
			defer s.Close(cmd.ErrOrStderr())

			srv, err := mcpstdio.NewServer(mcpstdio.Config{ServerName: opts.appName, ServerVersion: version}, s.svc)
			if err != nil {
				return err
			}
			s.logger.Info("serving mcp over stdio")
			if err := mcpstdio.Serve(cmd.Context(), srv, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				s.logger.Error("mcp server stopped", "err", err)
				return err
			}
			s.logger.Info("command flow complete", "command", "mcp")
			return nil
		},
	}
}
