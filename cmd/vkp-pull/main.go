// Command vkp-pull is the distribution core's cron entry point: it wires
// the Object-Store Client, Version Registry, Vector Index Adapter, and
// Response Cache into a Puller and runs its tick on a schedule, or once
// on demand.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"vkp/internal/blobstore"
	"vkp/internal/cache"
	cachememory "vkp/internal/cache/memory"
	cacheredis "vkp/internal/cache/redis"
	"vkp/internal/objectstore"
	"vkp/internal/objectstore/azureblob"
	"vkp/internal/objectstore/gcs"
	"vkp/internal/objectstore/s3"
	"vkp/internal/puller"
	"vkp/internal/registry"
	registrymemory "vkp/internal/registry/memory"
	registrysqlite "vkp/internal/registry/sqlite"
	"vkp/internal/vectorindex/qdrant"
	"vkp/internal/vkp"
	"vkp/internal/vkpconfig"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rootCmd := &cobra.Command{
		Use:   "vkp-pull",
		Short: "Pull, verify, and install versioned knowledge packages",
	}

	rootCmd.AddCommand(
		onceCmd(logger),
		serveCmd(logger),
		rollbackCmd(logger),
		historyCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

// onceCmd runs a single tick and translates its Tally into the exit
// codes of spec §6: 0 = all successful (or offline no-op), 1 = partial
// failure, 2 = fatal (could not even enumerate).
func onceCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single pull tick and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			p, closeFn, err := buildPuller(ctx, logger)
			if err != nil {
				logger.Error("could not build puller", "error", err)
				os.Exit(2)
			}
			defer closeFn()

			tally, err := p.Tick(ctx)
			if err != nil {
				logger.Error("tick failed fatally", "error", err)
				os.Exit(2)
			}
			logTally(logger, tally)
			if tally.Failed > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
}

// serveCmd wires Puller.Tick into a gocron cron job, the way the
// teacher's internal/orchestrator/scheduler.go wires cronrotation, and
// blocks until interrupted.
func serveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run pull ticks on the configured cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := vkpconfig.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			p, closeFn, err := buildPuller(ctx, logger)
			if err != nil {
				return fmt.Errorf("build puller: %w", err)
			}
			defer closeFn()

			sched, err := gocron.NewScheduler()
			if err != nil {
				return fmt.Errorf("create scheduler: %w", err)
			}

			_, err = sched.NewJob(
				gocron.CronJob(cfg.CronSchedule, false),
				gocron.NewTask(func() {
					tally, err := p.Tick(ctx)
					if err != nil {
						logger.Error("scheduled tick failed fatally", "error", err)
						return
					}
					logTally(logger, tally)
				}),
				gocron.WithName("vkp-pull-tick"),
			)
			if err != nil {
				return fmt.Errorf("register cron job: %w", err)
			}

			logger.Info("scheduler starting", "cron", cfg.CronSchedule)
			sched.Start()
			<-ctx.Done()
			logger.Info("shutting down")
			return sched.Shutdown()
		},
	}
}

// rollbackCmd exposes the Version Registry's Rollback operation directly
// (SPEC_FULL.md's supplemented CLI surface), since the core's only other
// user-visible surface is the cron entry point.
func rollbackCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <subject> <grade> <semester> <version>",
		Short: "Activate a previously-installed version for a triple",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			triple, err := parseTriple(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			reg, closeFn, err := buildRegistry()
			if err != nil {
				return fmt.Errorf("open registry: %w", err)
			}
			defer closeFn()

			if err := reg.Rollback(ctx, triple, args[3]); err != nil {
				return fmt.Errorf("rollback %s to v%s: %w", triple.CollectionName(), args[3], err)
			}
			logger.Info("rolled back", "triple", triple.CollectionName(), "version", args[3])
			return nil
		},
	}
	return cmd
}

// historyCmd exposes the Version Registry's History operation directly.
func historyCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "history <subject> <grade> <semester>",
		Short: "List every installed version for a triple, most-recent-first",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			triple, err := parseTriple(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			reg, closeFn, err := buildRegistry()
			if err != nil {
				return fmt.Errorf("open registry: %w", err)
			}
			defer closeFn()

			entries, err := reg.History(ctx, triple)
			if err != nil {
				return fmt.Errorf("history %s: %w", triple.CollectionName(), err)
			}
			for _, e := range entries {
				fmt.Printf("%s\tinstalled_at=%s\tchunks=%d\tactive=%v\n",
					e.Version, e.InstalledAt.Format(time.RFC3339), e.ChunkCount, e.Active)
			}
			return nil
		},
	}
}

func parseTriple(subject, grade, semester string) (vkp.Triple, error) {
	var g, s int
	if _, err := fmt.Sscanf(grade, "%d", &g); err != nil {
		return vkp.Triple{}, fmt.Errorf("invalid grade %q: %w", grade, err)
	}
	if _, err := fmt.Sscanf(semester, "%d", &s); err != nil {
		return vkp.Triple{}, fmt.Errorf("invalid semester %q: %w", semester, err)
	}
	return vkp.Triple{Subject: subject, Grade: g, Semester: s}, nil
}

func logTally(logger *slog.Logger, tally puller.Tally) {
	if tally.Offline {
		logger.Info("tick complete: offline, no-op")
		return
	}
	logger.Info("tick complete",
		"successful", tally.Successful, "failed", tally.Failed, "skipped", tally.Skipped)
	for _, e := range tally.Errors {
		logger.Warn("candidate failed",
			"triple", e.Triple.CollectionName(), "version", e.Version, "stage", e.Stage, "error", e.Err)
	}
}

// buildRegistry opens just the Version Registry, for the rollback/history
// sub-commands that don't need the rest of the core.
func buildRegistry() (registry.Registry, func(), error) {
	cfg, err := vkpconfig.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return buildRegistryFromConfig(cfg)
}

// buildPuller assembles a puller.Puller from vkpconfig.Config, selecting
// each backend the way spec §6's configuration table names it.
func buildPuller(ctx context.Context, logger *slog.Logger) (*puller.Puller, func(), error) {
	cfg, err := vkpconfig.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	backend, err := buildObjectStoreBackend(ctx, cfg)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("object store: %w", err)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), int(cfg.RateLimitPerSecond)+1)
	store := objectstore.NewClient(backend, objectstore.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Delay:       cfg.RetryDelay,
	}, limiter, logger)

	reg, regClose, err := buildRegistryFromConfig(cfg)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("registry: %w", err)
	}
	closers = append(closers, regClose)

	index, indexClose, err := buildVectorIndex(cfg)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("vector index: %w", err)
	}
	closers = append(closers, indexClose)

	respCache := buildCache(cfg)

	p := puller.New(store, blobstore.New(cfg.PersistDir), reg, index, respCache, logger)
	return p, closeAll, nil
}

func buildObjectStoreBackend(ctx context.Context, cfg *vkpconfig.Config) (objectstore.Backend, error) {
	switch cfg.ObjectStoreProvider {
	case "s3":
		return s3.New(ctx, cfg.BucketName, cfg.Region)
	case "gcs":
		return gcs.New(ctx, cfg.BucketName)
	case "azureblob":
		return azureblob.New(cfg.AzureServiceURL, cfg.BucketName)
	default:
		return nil, fmt.Errorf("unknown object store provider %q", cfg.ObjectStoreProvider)
	}
}

func buildRegistryFromConfig(cfg *vkpconfig.Config) (registry.Registry, func(), error) {
	switch cfg.RegistryDriver {
	case "memory":
		return registrymemory.NewStore(), func() {}, nil
	case "sqlite":
		store, err := registrysqlite.NewStore(cfg.RegistryPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry driver %q", cfg.RegistryDriver)
	}
}

func buildVectorIndex(cfg *vkpconfig.Config) (*qdrant.Adapter, func(), error) {
	switch cfg.VectorIndexProvider {
	case "qdrant":
		conn, err := grpc.NewClient(cfg.QdrantAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("dial qdrant: %w", err)
		}
		return qdrant.New(conn, cfg.VectorSize), func() { _ = conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector index provider %q", cfg.VectorIndexProvider)
	}
}

func buildCache(cfg *vkpconfig.Config) cache.Cache {
	switch cfg.CacheBackend {
	case "redis":
		return cacheredis.New(cfg.RedisAddr)
	default:
		c, err := cachememory.New(cfg.CacheCapacity)
		if err != nil {
			// Only a non-positive capacity reaches here; fall back to a
			// small sane default rather than leaving the cache unusable.
			c, _ = cachememory.New(1000)
		}
		return c
	}
}
