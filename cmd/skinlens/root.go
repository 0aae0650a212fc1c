package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/skinlens/internal/adapters/docstore"
	"github.com/okian/skinlens/internal/adapters/mq/stream"
	"github.com/okian/skinlens/internal/adapters/repository"
	"github.com/okian/skinlens/internal/adapters/storage"
	"github.com/okian/skinlens/internal/adapters/vendor"
	service "github.com/okian/skinlens/internal/app"
	"github.com/okian/skinlens/internal/config"
	"github.com/okian/skinlens/internal/session"
	"github.com/okian/skinlens/pkg/logger"
	"github.com/okian/skinlens/pkg/metrics"
)

// cli holds what every subcommand shares once the root has run setup.
type cli struct {
	envFile string
	cfg     *config.Config
	svc     *service.Service
	log     logger.Logger
}

// run executes one command line and always releases what setup opened.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer c.teardown(ctx)
	return root.ExecuteContext(ctx)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "skinlens",
		Short:         "Analyze face photos with the skincare vendor and track the scores over time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(
		c.signUpCmd(),
		c.verifyCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.profileCmd(),
		c.analyzeCmd(),
		c.batchCmd(),
		c.historyCmd(),
		c.showCmd(),
		c.metricCmd(),
		c.deleteCmd(),
		c.masksCmd(),
		c.compareCmd(),
		c.chatCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads configuration (dotenv -> defaults -> optional file -> env)
// and builds the service with every configured backend.
func (c *cli) setup(ctx context.Context) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	c.cfg = cfg

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithConstLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
	)

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	c.log = logger.Named("cli")
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	client, err := vendor.New(cfg.BaseURL, store,
		vendor.WithTimeout(cfg.RequestTimeout),
		vendor.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		vendor.WithPollPolicy(vendor.PollPolicy{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
			Timeout:     cfg.PollTimeout,
		}),
	)
	if err != nil {
		return fmt.Errorf("vendor client: %w", err)
	}

	history, err := repository.NewByEngine(cfg.StoreEngine, cfg.StorePath)
	if err != nil {
		return fmt.Errorf("history store: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(logger.Get()),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithRepository(history),
	}
	mirrors, err := mirrorOptions(ctx, cfg)
	if err != nil {
		_ = history.Close()
		return err
	}
	c.svc = service.New(client, append(opts, mirrors...)...)
	return c.svc.Start(ctx)
}

func (c *cli) teardown(ctx context.Context) {
	if c.svc != nil {
		c.svc.Stop(context.WithoutCancel(ctx))
	}
}

// newSessionStore restores the sealed session file when one is configured,
// otherwise the session lives only as long as the process.
func newSessionStore(ctx context.Context, cfg *config.Config) (*session.Store, error) {
	if cfg.SessionFile == "" {
		return session.NewStore(), nil
	}
	p, err := session.NewFilePersister(cfg.SessionFile, cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(session.WithPersister(p))
	if err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return store, nil
}

// mirrorOptions connects the object, document and event backends that have
// configuration. Unconfigured ones stay on the service's no-op defaults.
func mirrorOptions(ctx context.Context, cfg *config.Config) ([]service.Option, error) {
	var opts []service.Option
	if cfg.S3Bucket != "" {
		s3, err := storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		opts = append(opts, service.WithObjectStore(s3))
	}
	var pg *docstore.Postgres
	if cfg.PostgresDSN != "" {
		var err error
		pg, err = docstore.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("document store: %w", err)
		}
		opts = append(opts, service.WithDocStore(pg))
	}
	if cfg.RedisAddr != "" {
		pub, err := stream.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisStream)
		if err != nil {
			if pg != nil {
				pg.Close()
			}
			return nil, fmt.Errorf("event stream: %w", err)
		}
		opts = append(opts, service.WithPublisher(pub))
	}
	return opts, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
