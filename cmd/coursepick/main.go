// Package main provides the CLI entrypoint for coursepick.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/coursepick/internal/catalog"
	"github.com/verte-zerg/coursepick/internal/config"
	"github.com/verte-zerg/coursepick/internal/controller"
	"github.com/verte-zerg/coursepick/internal/logger"
	"github.com/verte-zerg/coursepick/internal/model"
	"github.com/verte-zerg/coursepick/internal/plain"
	"github.com/verte-zerg/coursepick/internal/selection"
	"github.com/verte-zerg/coursepick/internal/server"
	"github.com/verte-zerg/coursepick/internal/store"
	"github.com/verte-zerg/coursepick/internal/tui"
)

const (
	sourceHTTP   = "http"
	sourceSQLite = "sqlite"

	defaultSource  = sourceHTTP
	defaultTimeout = 5 * time.Second
	defaultRetries = 2
	defaultAddr    = ":4232"
)

type options struct {
	source   string
	url      string
	db       string
	timeout  time.Duration
	retries  int
	logLevel string
	logFile  string

	selectIDs []int64
	selectYes bool

	importReplace bool

	serveAddr string
	serveSeed string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "coursepick",
		Short:         "Pick courses for the semester",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUICmd(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.source, "source", defaultSource, "catalog source: http or sqlite")
	flags.StringVar(&opts.url, "url", catalog.DefaultBaseURL, "catalog service base URL")
	flags.StringVar(&opts.db, "db", config.DefaultDBPath(), "SQLite catalog path")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-request timeout for the http source")
	flags.IntVar(&opts.retries, "retries", defaultRetries, "retries on transient http failures")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error, off")
	flags.StringVar(&opts.logFile, "log-file", config.DefaultLogPath(), "log file used while the TUI runs")

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newSelectCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newRemoveCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// resolve applies config file values for every flag the user did not set.
func resolve(cmd *cobra.Command, opts *options) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "source", &opts.source, fileCfg.Catalog.Source)
	applyStringConfig(cmd, "url", &opts.url, fileCfg.Catalog.URL)
	applyStringConfig(cmd, "db", &opts.db, fileCfg.Catalog.DB)
	applyDurationConfig(cmd, "timeout", &opts.timeout, fileCfg.Catalog.Timeout)
	applyIntConfig(cmd, "retries", &opts.retries, fileCfg.Catalog.Retries)
	applyStringConfig(cmd, "log-level", &opts.logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &opts.logFile, fileCfg.Log.File)
	if cmd.Flags().Lookup("addr") != nil {
		applyStringConfig(cmd, "addr", &opts.serveAddr, fileCfg.Server.Addr)
	}

	cfg := model.Config{
		Source:   strings.ToLower(strings.TrimSpace(opts.source)),
		URL:      opts.url,
		DBPath:   opts.db,
		Timeout:  opts.timeout,
		Retries:  opts.retries,
		LogLevel: opts.logLevel,
		LogFile:  opts.logFile,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	switch cfg.Source {
	case sourceHTTP:
		if strings.TrimSpace(cfg.URL) == "" {
			return fmt.Errorf("--url must not be empty")
		}
	case sourceSQLite:
		if strings.TrimSpace(cfg.DBPath) == "" {
			return fmt.Errorf("--db must not be empty")
		}
	default:
		return fmt.Errorf("--source must be %q or %q, got %q", sourceHTTP, sourceSQLite, cfg.Source)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("--retries must be >= 0")
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

// openSource builds the configured catalog source. The returned closer
// releases the SQLite handle when one was opened.
func openSource(cfg model.Config, log zerolog.Logger) (catalog.Source, func(), error) {
	switch cfg.Source {
	case sourceSQLite:
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		closer := func() {
			if cerr := st.Close(); cerr != nil {
				log.Error().Err(cerr).Msg("failed to close db")
			}
		}
		return catalog.NewStoreSource(st), closer, nil
	default:
		src := catalog.NewHTTPSource(cfg.URL,
			catalog.WithTimeout(cfg.Timeout),
			catalog.WithRetries(cfg.Retries),
		)
		return src, func() {}, nil
	}
}

func stderrLogger(cfg model.Config) (zerolog.Logger, error) {
	return logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: plain.IsTerminal(os.Stderr),
		Output: os.Stderr,
	})
}

func runTUICmd(cmd *cobra.Command, opts *options) error {
	cfg, err := resolve(cmd, opts)
	if err != nil {
		return err
	}

	logOut := io.Discard
	if cfg.LogFile != "" {
		f, err := logger.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		logOut = f
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Output: logOut})
	if err != nil {
		return err
	}

	src, closeSource, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ctrl := controller.New(selection.New(), nil, src, log)
	m := tui.NewModel(ctx, ctrl)
	ctrl.SetPresenter(m)

	log.Info().Str("source", cfg.Source).Msg("starting course selection")
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the course catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd, opts)
			if err != nil {
				return err
			}
			log, err := stderrLogger(cfg)
			if err != nil {
				return err
			}
			src, closeSource, err := openSource(cfg, log)
			if err != nil {
				return err
			}
			defer closeSource()

			view := plain.NewPresenter(cmd.OutOrStdout())
			ctrl := controller.New(selection.New(), view, src, log)
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}
			if err := view.Err(); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func newSelectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick courses by id and submit them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelectCmd(cmd, opts)
		},
	}
	cmd.Flags().Int64SliceVar(&opts.selectIDs, "id", nil, "course id to pick (repeatable)")
	cmd.Flags().BoolVarP(&opts.selectYes, "yes", "y", false, "submit without asking")
	return cmd
}

func runSelectCmd(cmd *cobra.Command, opts *options) error {
	if len(opts.selectIDs) == 0 {
		return fmt.Errorf("--id is required")
	}
	cfg, err := resolve(cmd, opts)
	if err != nil {
		return err
	}
	log, err := stderrLogger(cfg)
	if err != nil {
		return err
	}
	src, closeSource, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	view := plain.NewPresenter(cmd.OutOrStdout())
	ctrl := controller.New(selection.New(), view, src, log)
	if err := ctrl.Load(cmd.Context()); err != nil {
		return err
	}

	// Rejected picks are reported through the presenter and skipped.
	for _, id := range opts.selectIDs {
		if _, err := ctrl.CourseClicked(id); err != nil {
			log.Debug().Err(err).Int64("course_id", id).Msg("pick skipped")
		}
	}

	confirm := plain.NewConfirmer(opts.selectYes)
	res, err := ctrl.CommitClicked(confirm.Confirm)
	if err != nil {
		return err
	}
	if err := view.Err(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !res.Committed {
		return fmt.Errorf("selection was not submitted")
	}
	return nil
}

func newImportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a JSON or TOML catalog file into the SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, opts)
			if err != nil {
				return err
			}
			log, err := stderrLogger(cfg)
			if err != nil {
				return err
			}
			n, err := importCatalog(cmd.Context(), cfg.DBPath, args[0], opts.importReplace)
			if err != nil {
				return err
			}
			log.Info().Int("courses", n).Str("db", cfg.DBPath).Bool("replace", opts.importReplace).Msg("catalog imported")
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.importReplace, "replace", false, "replace the whole catalog instead of merging")
	return cmd
}

func importCatalog(ctx context.Context, dbPath, file string, replace bool) (int, error) {
	dtos, err := catalog.LoadFile(file)
	if err != nil {
		return 0, err
	}
	courses := model.ToCourses(dtos)
	if err := selection.New().LoadCatalog(courses); err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", file, err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()
	if replace {
		err = st.ReplaceCourses(ctx, courses)
	} else {
		err = st.UpsertCourses(ctx, courses)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to save courses: %w", err)
	}
	return len(courses), nil
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a course from the catalog source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid course id %q: %w", args[0], err)
			}
			cfg, err := resolve(cmd, opts)
			if err != nil {
				return err
			}
			log, err := stderrLogger(cfg)
			if err != nil {
				return err
			}
			src, closeSource, err := openSource(cfg, log)
			if err != nil {
				return err
			}
			defer closeSource()

			view := plain.NewPresenter(io.Discard)
			ctrl := controller.New(selection.New(), view, src, log)
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}
			if err := ctrl.RemoveClicked(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to remove course %d: %w", id, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed course %d\n", id)
			return err
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the course catalog service backed by SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeCmd(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.serveSeed, "seed", "", "catalog file imported when the store is empty")
	return cmd
}

func runServeCmd(cmd *cobra.Command, opts *options) error {
	cfg, err := resolve(cmd, opts)
	if err != nil {
		return err
	}
	log, err := stderrLogger(cfg)
	if err != nil {
		return err
	}
	srvCfg := model.ServerConfig{Addr: opts.serveAddr, DBPath: cfg.DBPath}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.serveSeed != "" {
		if err := seedStore(ctx, srvCfg.DBPath, opts.serveSeed, log); err != nil {
			return err
		}
	}

	st, err := store.Open(srvCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close db")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(st, log)
	if err := server.Run(ctx, srvCfg.Addr, router, log); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	log.Info().Msg("catalog server stopped")
	return nil
}

func seedStore(ctx context.Context, dbPath, file string, log zerolog.Logger) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	n, err := st.CountCourses(ctx)
	if cerr := st.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to count courses: %w", err)
	}
	if n > 0 {
		log.Info().Int("courses", n).Msg("store already seeded")
		return nil
	}
	imported, err := importCatalog(ctx, dbPath, file, true)
	if err != nil {
		return err
	}
	log.Info().Int("courses", imported).Str("file", file).Msg("store seeded")
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# coursepick configuration
# Uncomment a value to enable it. CLI flags override config values.

[catalog]
# source = %q           # "http" or "sqlite"
# url = %q  # Catalog service base URL
# db = %q
# timeout = %q             # Per-request timeout for the http source
# retries = %d                # Retries on transient http failures

[server]
# addr = %q            # Listen address for coursepick serve

[log]
# level = "info"             # debug, info, warn, error, off
# file = %q
`,
		defaultSource,
		catalog.DefaultBaseURL,
		config.DefaultDBPath(),
		defaultTimeout.String(),
		defaultRetries,
		defaultAddr,
		config.DefaultLogPath(),
	)
}
