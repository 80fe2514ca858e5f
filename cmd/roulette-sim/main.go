package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-strategy-sim/internal/api"
	"github.com/MJE43/roulette-strategy-sim/internal/config"
	"github.com/MJE43/roulette-strategy-sim/internal/logger"
	"github.com/MJE43/roulette-strategy-sim/internal/publisher"
	"github.com/MJE43/roulette-strategy-sim/internal/report"
	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
	"github.com/MJE43/roulette-strategy-sim/internal/store"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

const usage = `Usage: roulette-sim <command> [flags]

Commands:
  strategies   list strategies and their parameters
  run          play one session
  replay       play one session against a fixed pocket sequence
  batch        play many sessions and report the outcome distribution
  serve        start the HTTP API
  version      print build information

Run 'roulette-sim <command> -h' for the flags of a command.
Settings are read from $ROULETTE_CONFIG (YAML), .env and ROULETTE_* variables.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("ROULETTE_CONFIG"), ".env")
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "strategies":
		err = report.Catalog(os.Stdout, strategy.Catalog())
	case "run":
		err = runSession(cfg, "run", args)
	case "replay":
		err = runSession(cfg, "replay", args)
	case "batch":
		err = runBatch(ctx, cfg, args)
	case "serve":
		err = serve(ctx, cfg, args)
	case "version":
		fmt.Println(api.GetVersionInfo())
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fatal(err)
	}
	logger.Log.Sync()
}

func fatal(err error) {
	logger.Log.Sync()
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// paramList collects repeated -param key=value flags.
type paramList []string

func (p *paramList) String() string { return strings.Join(*p, ",") }

func (p *paramList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

type simFlags struct {
	strategy   string
	params     paramList
	scriptFile string
	budget     string
	spins      int
	target     string
	variant    string
	seed       uint64
	serverSeed string
	clientSeed string
	pockets    string
}

func addSimFlags(fs *flag.FlagSet, def config.SimulationConfig, replay bool) *simFlags {
	f := &simFlags{}
	fs.StringVar(&f.strategy, "strategy", "martingale", "strategy key (see 'strategies')")
	fs.Var(&f.params, "param", "strategy parameter as key=value; repeatable")
	fs.StringVar(&f.scriptFile, "script", "", "JavaScript strategy file; implies -strategy script")
	fs.StringVar(&f.budget, "budget", def.Budget, "initial budget")
	fs.IntVar(&f.spins, "spins", def.MaxSpins, "maximum spins per session")
	fs.StringVar(&f.target, "target", "", "target balance; a session stops once it is reached")
	fs.StringVar(&f.variant, "variant", def.Variant, "wheel variant: european or american")
	fs.Uint64Var(&f.seed, "seed", uint64(def.Seed), "random seed; 0 picks a random one")
	fs.StringVar(&f.serverSeed, "server-seed", "", "server seed for the HMAC-SHA256 source")
	fs.StringVar(&f.clientSeed, "client-seed", "", "client seed for the HMAC-SHA256 source")
	if replay {
		fs.StringVar(&f.pockets, "pockets", "", "comma-separated pocket sequence, e.g. 1,00,17")
	}
	return f
}

// job is a parsed simulation request.
type job struct {
	key    string
	params strategy.Params
	cfg    simulator.SessionConfig
	spec   simulator.WheelSpec
}

func (f *simFlags) job() (job, error) {
	params, err := strategy.ParseParams(f.params)
	if err != nil {
		return job{}, err
	}
	key := f.strategy
	if f.scriptFile != "" {
		src, err := os.ReadFile(f.scriptFile)
		if err != nil {
			return job{}, fmt.Errorf("failed to read script: %w", err)
		}
		key = "script"
		params["source"] = string(src)
	}

	budget, err := decimal.NewFromString(f.budget)
	if err != nil {
		return job{}, fmt.Errorf("invalid -budget %q: %w", f.budget, err)
	}
	var target *decimal.Decimal
	if f.target != "" {
		t, err := decimal.NewFromString(f.target)
		if err != nil {
			return job{}, fmt.Errorf("invalid -target %q: %w", f.target, err)
		}
		target = &t
	}
	cfg, err := simulator.NewSessionConfig(budget, f.spins, target)
	if err != nil {
		return job{}, err
	}

	variant, err := roulette.ParseVariant(f.variant)
	if err != nil {
		return job{}, err
	}
	spec := simulator.WheelSpec{
		Variant:    variant,
		Seed:       f.seed,
		ServerSeed: f.serverSeed,
		ClientSeed: f.clientSeed,
	}
	if f.pockets != "" {
		if spec.Pockets, err = roulette.ParsePockets(f.pockets); err != nil {
			return job{}, err
		}
	}
	if err := spec.Validate(); err != nil {
		return job{}, err
	}

	return job{key: key, params: params, cfg: cfg, spec: spec}, nil
}

func runSession(cfg config.Config, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f := addSimFlags(fs, cfg.Simulation, name == "replay")
	historyTail := fs.Int("history", 10, "trailing spins to print; -1 prints all, 0 none")
	if err := fs.Parse(args); err != nil {
		return err
	}

	j, err := f.job()
	if err != nil {
		return err
	}
	if name == "replay" && len(j.spec.Pockets) == 0 {
		return errors.New("replay needs -pockets")
	}

	st, err := simulator.StrategyFactory(j.key, j.params, j.spec)()
	if err != nil {
		return err
	}
	sim := simulator.New(j.spec.Wheel(0),
		simulator.WithHistory(*historyTail != 0),
		simulator.WithLogger(logger.Named("simulator")))
	result := sim.Run(st, j.cfg)

	if err := report.Session(os.Stdout, st.Name(), result, *historyTail); err != nil {
		return err
	}
	if script, ok := st.(*strategy.Script); ok {
		for _, entry := range script.Logs() {
			fmt.Fprintf(os.Stderr, "[script %s] %s\n", entry.Time.Format(time.TimeOnly), entry.Message)
		}
		if err := script.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "script error:", err)
		}
	}
	return nil
}

func runBatch(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	f := addSimFlags(fs, cfg.Simulation, false)
	sessions := fs.Int("sessions", cfg.Simulation.Sessions, "number of sessions")
	workers := fs.Int("workers", cfg.Simulation.Workers, "worker goroutines; 0 means one per CPU")
	persist := fs.Bool("persist", false, "save the run and its sessions to the database")
	recordSpins := fs.Bool("record-spins", false, "with -persist, also save every spin")
	publish := fs.Bool("publish", false, "publish the summary to the Redis stream")
	if err := fs.Parse(args); err != nil {
		return err
	}

	j, err := f.job()
	if err != nil {
		return err
	}
	if *publish && cfg.Redis.URL == "" {
		return errors.New("-publish needs REDIS_URL")
	}
	name := j.key
	if d, ok := strategy.Lookup(j.key); ok {
		name = d.Name
	}

	opts := []simulator.Option{
		simulator.WithHistory(false),
		simulator.WithLogger(logger.Named("simulator")),
	}

	var (
		db  store.DB
		run *store.Run
		rec *store.Recorder
	)
	if *persist {
		db, err = openStore(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err = store.NewRun(uuid.NewString(), j.key, j.params, j.spec.Variant.String(), j.cfg, *sessions, j.spec.Label(), api.EngineVersion)
		if err != nil {
			return err
		}
		if err := db.SaveRun(ctx, run); err != nil {
			return err
		}
		rec = store.NewRecorder(ctx, db, run.ID,
			store.WithSpins(*recordSpins),
			store.WithRecorderLogger(logger.Named("store")))
		opts = append(opts, simulator.WithObserver(rec))
	}

	start := time.Now()
	batch, err := j.spec.RunBatch(ctx, j.key, j.params, j.cfg, *sessions, *workers, opts...)
	if err != nil {
		if run != nil {
			db.DeleteRun(context.Background(), run.ID)
		}
		return err
	}
	logger.Log.Info("batch finished",
		zap.String("strategy", j.key),
		zap.Int("sessions", batch.TotalSimulations),
		zap.Duration("elapsed", time.Since(start)))

	if err := report.Batch(os.Stdout, name, batch); err != nil {
		return err
	}

	var runID string
	if run != nil {
		if err := rec.Flush(); err != nil {
			return fmt.Errorf("failed to record sessions: %w", err)
		}
		run.Finish(batch)
		if err := db.UpdateRun(ctx, run); err != nil {
			return err
		}
		runID = run.ID
		fmt.Printf("\nRun ID: %s\n", runID)
	}

	if *publish {
		client, err := publisher.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		p := publisher.NewStreamPublisher(client, cfg.Redis.StreamPrefix, logger.Named("publisher"))
		defer p.Close()

		entry, err := p.PublishBatch(ctx, publisher.BatchSummary{
			RunID:    runID,
			Strategy: j.key,
			Variant:  j.spec.Variant.String(),
			Result:   batch,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Published to %s as %s\n", p.StreamKey(j.key), entry)
	}
	return nil
}

func openStore(ctx context.Context, c config.DBConfig) (store.DB, error) {
	var db store.DB
	switch c.Driver {
	case "postgres":
		pg, err := store.NewPostgresDB(ctx, c.PostgresDSN)
		if err != nil {
			return nil, err
		}
		db = pg
	default:
		if err := os.MkdirAll(filepath.Dir(c.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		lite, err := store.NewSQLiteDB(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		db = lite
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func serve(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	noDB := fs.Bool("no-db", false, "run without persistence")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logger.Named("api")
	opts := []api.Option{
		api.WithLogger(log),
		api.WithRequestTimeout(cfg.Server.RequestTimeout),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	}

	var db store.DB
	if !*noDB {
		opened, err := openStore(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened
	}

	if cfg.Redis.URL != "" {
		client, err := publisher.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("redis unavailable, batches will not be published", zap.Error(err))
		} else {
			p := publisher.NewStreamPublisher(client, cfg.Redis.StreamPrefix, logger.Named("publisher"))
			defer p.Close()
			opts = append(opts, api.WithPublisher(p))
		}
	}

	srv := api.NewServer(db, opts...)
	if _, err := srv.Start(*addr); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
