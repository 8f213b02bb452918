package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"digimess/internal/app"
	"digimess/internal/clock"
	"digimess/internal/config"
	"digimess/internal/database"
	"digimess/internal/importer"
	"digimess/internal/logging"
	"digimess/internal/menu"
	"digimess/internal/menudata"
	"digimess/internal/metrics"
	"digimess/internal/preference"
	"digimess/internal/resolver"
	"digimess/internal/storage"
	"digimess/internal/webserver"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: digimess <command> [flags]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  today              Today's menu with meal states")
	fmt.Fprintln(w, "  date <YYYY-MM-DD>  Menu for a date (also today, tomorrow, yesterday)")
	fmt.Fprintln(w, "  week               The Monday to Sunday menu around --date")
	fmt.Fprintln(w, "  cycles             List cycles and the browsable date range")
	fmt.Fprintln(w, "  prefs              Show a user's mess per cycle")
	fmt.Fprintln(w, "  set-pref           Store a user's mess for a cycle")
	fmt.Fprintln(w, "  validate           Check the dataset for errors and ambiguities")
	fmt.Fprintln(w, "  import-html        Turn a published HTML menu table into an override")
	fmt.Fprintln(w, "  token              Issue an API token for --user")
	fmt.Fprintln(w, "  metrics            Show lookup usage for the last --days")
	fmt.Fprintln(w, "  metrics-cleanup    Remove old lookup metric records")
	fmt.Fprintln(w, "\nCommon flags: --data DIR, --category C, --user ID, --verbose")
}

// options holds every flag; each command registers the ones it reads.
type options struct {
	data     string
	category string
	user     string
	verbose  bool

	date   string
	week   string
	cycle  string
	file   string
	url    string
	source string
	dryRun bool
	days   int
}

func parseFlags(command string, args []string) (*options, []string, error) {
	opts := &options{}
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.StringVar(&opts.data, "data", "", "dataset directory (default $DIGIMESS_DATA_DIR)")
	fs.StringVar(&opts.category, "category", "", "mess category, e.g. South_Veg")
	fs.StringVar(&opts.user, "user", "cli", "user id preferences are stored under")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log lookups to stderr")

	switch command {
	case "week":
		fs.StringVar(&opts.date, "date", "", "any date of the week (default today)")
		fs.StringVar(&opts.week, "week", "", "show this rotation week (A-D) instead of the scheduled one")
	case "set-pref":
		fs.StringVar(&opts.cycle, "cycle", "", "cycle name")
	case "import-html":
		fs.StringVar(&opts.file, "file", "", "HTML file to read")
		fs.StringVar(&opts.url, "url", "", "page to fetch instead of --file")
		fs.StringVar(&opts.week, "week", "", "rotation week the table describes (A-D)")
		fs.StringVar(&opts.date, "date", "", "date the override takes effect (YYYY-MM-DD)")
		fs.StringVar(&opts.source, "source", "", "source note stored with the week")
		fs.BoolVar(&opts.dryRun, "dry-run", false, "print the patch instead of saving it")
	case "metrics":
		fs.IntVar(&opts.days, "days", 7, "number of days to report")
	case "metrics-cleanup":
		fs.IntVar(&opts.days, "days", 30, "keep records for the last N days")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs.Args(), nil
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	}

	opts, rest, err := parseFlags(command, args)
	if err != nil {
		return err
	}

	switch command {
	case "today":
		return withEnv(ctx, opts, true, func(e *env) error {
			view, err := e.app.TodaysMenu(ctx, opts.user, menu.Category(opts.category))
			if err != nil {
				return explain(out, view, err)
			}
			printDay(out, view)
			return nil
		})
	case "date":
		if len(rest) != 1 {
			return fmt.Errorf("usage: digimess date <YYYY-MM-DD>")
		}
		return withEnv(ctx, opts, true, func(e *env) error {
			date, err := e.app.ParseDate(rest[0])
			if err != nil {
				return err
			}
			view, err := e.app.DayMenu(ctx, opts.user, date, menu.Category(opts.category))
			if err != nil {
				return explain(out, view, err)
			}
			printDay(out, view)
			return nil
		})
	case "week":
		return withEnv(ctx, opts, true, func(e *env) error {
			date, err := e.app.ParseDate(opts.date)
			if err != nil {
				return err
			}
			var week menu.Week
			if opts.week != "" {
				if week, err = menu.ParseWeek(opts.week); err != nil {
					return err
				}
			}
			view, err := e.app.WeekMenu(ctx, opts.user, date, menu.Category(opts.category), week)
			if err != nil {
				return err
			}
			printWeek(out, view)
			return nil
		})
	case "cycles":
		return withEnv(ctx, opts, false, func(e *env) error {
			printCycles(out, e.engine.Cycles(), e.app.Now())
			return nil
		})
	case "prefs":
		return withEnv(ctx, opts, true, func(e *env) error {
			view, err := e.app.Preferences(ctx, opts.user)
			if err != nil {
				return err
			}
			printPreferences(out, view)
			return nil
		})
	case "set-pref":
		if opts.cycle == "" || opts.category == "" {
			return fmt.Errorf("set-pref needs --cycle and --category")
		}
		return withEnv(ctx, opts, true, func(e *env) error {
			if err := e.app.SetPreference(ctx, opts.user, opts.cycle, menu.Category(opts.category)); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s for %s (user %s).\n", e.app.Catalog().Label(menu.Category(opts.category)), opts.cycle, opts.user)
			return nil
		})
	case "validate":
		return withEnv(ctx, opts, false, func(e *env) error {
			return report(out, menudata.Validate(e.ds))
		})
	case "import-html":
		return importHTML(ctx, opts, out)
	case "token":
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		if err := cfg.RequireServer(); err != nil {
			return err
		}
		token, err := webserver.NewJWTManager(cfg.JWTSecret, cfg.JWTExpirationHours).GenerateToken(opts.user)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		fmt.Fprintln(out, token)
		return nil
	case "metrics":
		return withDB(opts, func(db *database.DB) error {
			usage, err := metrics.NewStore(db.SQL).GetDailyUsage(ctx, opts.days)
			if err != nil {
				return err
			}
			printUsageReport(out, usage)
			return nil
		})
	case "metrics-cleanup":
		return withDB(opts, func(db *database.DB) error {
			affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, opts.days)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(out, "Successfully removed %d old metric records.\n", affected)
			return nil
		})
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

// explain prints the categories a partial view offers before returning err.
func explain(out io.Writer, view *app.DayView, err error) error {
	if view != nil && len(view.AvailableCategories) > 0 &&
		(errors.Is(err, app.ErrMissingPreference) || errors.Is(err, app.ErrCategoryUnavailable)) {
		fmt.Fprintf(out, "Messes serving on %s (pass one with --category):\n", view.Date)
		for _, c := range view.AvailableCategories {
			fmt.Fprintf(out, "  %-28s %s\n", c.Value, c.Label)
		}
	}
	return err
}

func report(out io.Writer, issues []menudata.Issue) error {
	if len(issues) == 0 {
		fmt.Fprintln(out, "Dataset OK.")
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintln(out, issue.String())
	}
	if menudata.HasErrors(issues) {
		return fmt.Errorf("dataset has errors")
	}
	return nil
}

func importHTML(ctx context.Context, opts *options, out io.Writer) error {
	if (opts.file == "") == (opts.url == "") {
		return fmt.Errorf("import-html needs exactly one of --file or --url")
	}
	if opts.category == "" || opts.week == "" {
		return fmt.Errorf("import-html needs --category and --week")
	}
	week, err := menu.ParseWeek(opts.week)
	if err != nil {
		return err
	}

	var table *importer.WeekTable
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", opts.file, err)
		}
		defer f.Close()
		table, err = importer.ParseWeekTable(f)
		if err != nil {
			return err
		}
	} else {
		table, err = importer.New(nil).FetchWeekTable(ctx, opts.url)
		if err != nil {
			return err
		}
	}

	source := opts.source
	if source == "" {
		source = opts.file + opts.url
	}
	patch, err := importer.BuildPatch(menu.Category(opts.category), week, table, source)
	if err != nil {
		return err
	}

	if opts.dryRun {
		data, err := json.MarshalIndent(patch, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if opts.date == "" {
		return fmt.Errorf("import-html needs --date unless --dry-run is set")
	}
	if _, err := clock.ParseDateKey(opts.date); err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	store, err := storage.ForDataset(cfg.DataDir)
	if err != nil {
		return err
	}
	if _, err := store.Merge(opts.date, patch); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	fmt.Fprintf(out, "Imported %d days of %s week %s into overrides/%s.\n", len(table.Schedule), opts.category, week, opts.date)

	// The merged override must still decode against its version.
	ds, err := menudata.Load(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	return report(out, menudata.Validate(ds))
}

func loadConfig(opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if opts.data != "" {
		os.Setenv("DIGIMESS_DATA_DIR", opts.data)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Logging.Output != "file" {
		cfg.Logging.Output = "stderr"
	}
	if !opts.verbose {
		cfg.Logging.Level = "warn"
	}
	return cfg, nil
}

// env is everything a menu command needs.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	ds     *menu.Dataset
	engine *resolver.Engine
	db     *database.DB
	app    *app.App
}

// withEnv loads the dataset and, when withDatabase is set, the preference
// and metrics database, then runs fn.
func withEnv(ctx context.Context, opts *options, withDatabase bool, fn func(*env) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	clk, err := clock.FromEnv(cfg.FakeNow)
	if err != nil {
		return err
	}

	ds, err := menudata.Load(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	engine := resolver.NewEngine(ds, resolver.WithLogger(logger.Logger))

	e := &env{cfg: cfg, logger: logger, ds: ds, engine: engine}
	appOpts := []app.Option{app.WithClock(clk), app.WithLogger(logger), app.WithSurface("cli")}

	var prefs preference.Provider = preference.NewMemoryProvider()
	if withDatabase {
		db, err := database.NewDB(cfg.DBPath, logger.WithField("component", "database"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		e.db = db
		prefs = preference.NewRepository(db.SQL)
		appOpts = append(appOpts, app.WithMetrics(metrics.NewStore(db.SQL)))
	}
	e.app = app.NewApp(engine, prefs, appOpts...)

	return fn(e)
}

func withDB(opts *options, fn func(*database.DB) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	db, err := database.NewDB(cfg.DBPath, logging.Discard().Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	return fn(db)
}
