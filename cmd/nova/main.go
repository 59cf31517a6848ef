// Command nova is the composition root that binds a Database to a real
// workspace on disk: load configuration, discover .java sources, feed
// them into the VFS, build the cross-file workspace index, and run the
// query surface's checks over it. check and serve are separate cobra
// subcommands because they need distinct flag surfaces.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/termfx/nova/internal/clierr"
	"github.com/termfx/nova/internal/config"
	"github.com/termfx/nova/internal/discover"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/internal/nlog"
	"github.com/termfx/nova/internal/procwatch"
	"github.com/termfx/nova/internal/warmstart"
	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/memory"
	"github.com/termfx/nova/nova"
	"github.com/termfx/nova/query"
	"github.com/termfx/nova/vfs"
)

// workspaceFlags is the flag surface shared by check and serve: where
// the sources live and what warm-start persistence to use. The memory
// manager's budget is not a flag; it comes from the loaded configuration.
type workspaceFlags struct {
	root          string
	include       []string
	exclude       []string
	classpath     []string
	languageLevel int
	warmstartDB   string
	nameTable     string
	transactionLog string
	jsonOutput    bool
}

func (f *workspaceFlags) register(fs *cobra.Command) {
	fs.Flags().StringVar(&f.root, "root", ".", "workspace root directory to scan for.java sources")
	fs.Flags().StringSliceVar(&f.include, "include", nil, "doublestar include patterns (default **/*.java)")
	fs.Flags().StringSliceVar(&f.exclude, "exclude", nil, "doublestar exclude patterns")
	fs.Flags().StringSliceVar(&f.classpath, "classpath", nil, "classpath entries (jar/dir globs)")
	fs.Flags().IntVar(&f.languageLevel, "language-level", 21, "Java language level (major version)")
	fs.Flags().StringVar(&f.warmstartDB, "warmstart-db", "", "path to a warm-start SQLite database (empty disables warm-start)")
	fs.Flags().StringVar(&f.nameTable, "name-table", "", "path to persist the interned name table (empty disables it)")
	fs.Flags().StringVar(&f.transactionLog, "transaction-log", "", "directory for warm-start transaction logs")
	fs.Flags().BoolVar(&f.jsonOutput, "json", false, "emit machine-readable JSON instead of text")
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := nlog.New("nova", nlog.Level(cfg.LogLevel), nil)

	rootCmd := &cobra.Command{
		Use:   "nova",
		Short: "Nova Java language intelligence engine",
		Long:  "Nova parses, resolves, type-checks, and flow-analyzes a Java workspace incrementally.",
	}

	var checkFlags workspaceFlags
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run every diagnostic query over a workspace once and report findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cfg, logger, &checkFlags)
		},
	}
	checkFlags.register(checkCmd)

	var serveFlags workspaceFlags
	var parentPID int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep a workspace's Database warm, enforcing memory pressure and flushing warm-start state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, logger, &serveFlags, parentPID)
		},
	}
	serveFlags.register(serveCmd)
	serveCmd.Flags().IntVar(&parentPID, "parent-pid", 0, "exit once this PID is no longer alive (0 disables the watch)")

	rootCmd.AddCommand(checkCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildWorkspace discovers sources under f.root, feeds them into a fresh
// Database, and returns the database plus the tracked FileIds, ready for
// BuildWorkspaceIndex.
func buildWorkspace(ctx context.Context, cfg *config.Config, f *workspaceFlags) (*nova.Database, []intern.FileId, error) {
	files, err := discover.Walk(ctx, discover.Scope{Root: f.root, Include: f.include, Exclude: f.exclude})
	if err != nil {
		return nil, nil, clierr.Wrap(clierr.ErrWorkspace, "scan workspace", err)
	}

	var warm *warmstart.Store
	if f.warmstartDB != "" {
		gdb, err := warmstart.Connect(f.warmstartDB, false)
		if err != nil {
			return nil, nil, clierr.Wrap(clierr.ErrWarmstart, "connect warm-start database", err)
		}
		warm = warmstart.NewStore(gdb, nil)
	}

	db := nova.New(vfs.NewProjectId(), cfg.TotalBudgetBytes, warm, f.root, f.nameTable, f.transactionLog)
	db.SetClasspath(f.classpath)
	db.SetLanguageLevel(vfs.LanguageLevel{Major: f.languageLevel})

	ids := make([]intern.FileId, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(f.root, file.Path)
		if err != nil {
			rel = file.Path
		}
		ids = append(ids, db.SetFile(rel, file.Text))
	}
	return db, ids, nil
}

func runCheck(ctx context.Context, cfg *config.Config, logger *nlog.Logger, f *workspaceFlags) error {
	log := logger.With("check")
	db, ids, err := buildWorkspace(ctx, cfg, f)
	if err != nil {
		return err
	}
	log.Info("workspace loaded", nlog.Fields{"files": len(ids)})

	qsnap, _ := db.Snapshot(ctx)
	qctx := query.NewCtx(qsnap)

	if _, err := db.BuildWorkspaceIndex(qctx, ids); err != nil {
		return clierr.Wrap(clierr.ErrWorkspace, "build workspace index", err)
	}

	// Diagnostics are computed one query.Ctx per file, all pinned to the
	// same qsnap: request handlers run queries in parallel against a
	// shared read-only snapshot, so each file's traversal gets its own
	// call-stack/dependency frame while the underlying memo tables are
	// read and filled concurrently.
	perFile := make([][]diag.Diagnostic, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, file := range ids {
		i, file := i, file
		eg.Go(func() error {
			if egCtx.Err() != nil {
				qsnap.Cancel()
			}
			ds, err := db.Diagnostics(query.NewCtx(qsnap), file, f.classpath)
			if err != nil {
				log.Warning("diagnostics failed", nlog.Fields{"file": file, "error": err.Error()})
				return nil
			}
			perFile[i] = ds
			return nil
		})
	}
	_ = eg.Wait()

	var all []diag.Diagnostic
	for _, ds := range perFile {
		all = append(all, ds...)
	}

	if f.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(all); err != nil {
			return err
		}
	} else {
		for _, d := range all {
			fmt.Printf("%d:%d:%d [%s] %s\n", d.File, d.Range.Start, d.Range.End, d.Severity, d.Message)
		}
	}

	for _, d := range all {
		if d.Severity == diag.SeverityError {
			os.Exit(1)
		}
	}
	return nil
}

// runServe keeps db alive: it rebuilds the workspace index in the
// background (staging warm-start artifacts as it goes), periodically
// enforces memory pressure, honors the resulting degraded mode, and
// flushes warm-start state on the way out.
func runServe(ctx context.Context, cfg *config.Config, logger *nlog.Logger, f *workspaceFlags, parentPID int) error {
	log := logger.With("serve")
	db, ids, err := buildWorkspace(ctx, cfg, f)
	if err != nil {
		return err
	}
	log.Info("workspace loaded", nlog.Fields{"files": len(ids), "warm_symbols": len(db.WarmSymbols)})

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go procwatch.Watch(ctx, parentPID, 2*time.Second, cancel)

	// Initial index build, so the first request after startup doesn't
	// pay for it, and so warm-start artifacts are staged early.
	qsnap, _ := db.Snapshot(ctx)
	qctx := query.NewCtx(qsnap)
	if _, err := db.BuildWorkspaceIndex(qctx, ids); err != nil {
		log.Warning("initial index build failed", nlog.Fields{"error": err.Error()})
	} else if unchanged, err := db.WarmUnchangedCount(qctx, ids); err == nil && db.Warm != nil {
		log.Info("warm-start cache checked", nlog.Fields{"unchanged_files": unchanged, "files": len(ids)})
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushWarmState(db, log)
			return nil
		case <-ticker.C:
			pressure := db.Enforce()
			deg := db.Memory.Degraded()
			log.Debug("enforced memory pressure", nlog.Fields{
				"pressure":             pressure.String(),
				"skip_expensive_diags": deg.SkipExpensiveDiagnostics,
				"completion_cap":       deg.CompletionCandidateCap,
				"background_indexing":  deg.BackgroundIndexing.String(),
			})
			if deg.BackgroundIndexing == memory.IndexingPaused {
				continue
			}
			qsnap, _ := db.Snapshot(ctx)
			if _, err := db.BuildWorkspaceIndex(query.NewCtx(qsnap), ids); err != nil {
				log.Warning("background index rebuild failed", nlog.Fields{"error": err.Error()})
			}
		}
	}
}

// flushWarmState persists whatever warm-start artifacts are staged when
// the serve loop exits, so the next process starts with them.
func flushWarmState(db *nova.Database, log *nlog.Logger) {
	if db.Warm != nil {
		if err := db.Warm.FlushToDisk(); err != nil {
			log.Warning("final warm-start flush failed", nlog.Fields{"error": err.Error()})
		}
	}
	if db.NameTable != nil {
		if err := db.NameTable.FlushToDisk(); err != nil {
			log.Warning("final name table flush failed", nlog.Fields{"error": err.Error()})
		}
	}
}
