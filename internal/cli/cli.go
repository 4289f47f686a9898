package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signal-export/internal/config"
	"signal-export/internal/db"
	"signal-export/internal/domain"
	"signal-export/internal/repository"
	"signal-export/internal/service"
)

// Execute corre el comando raiz y devuelve el codigo de salida del proceso.
func Execute(ctx context.Context) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cmd := NewRootCommand(cfg)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", describeError(err))
		return 1
	}
	return 0
}

// NewRootCommand arma el comando; los flags pisan lo que venga del entorno.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signal-export",
		Short: "Export Signal Desktop conversations to JSON",
		Long: `signal-export reads the encrypted Signal Desktop database with the key from
config.json and writes one pretty-printed JSON file per conversation.

Examples:
  signal-export -c ~/.config/Signal/config.json -d ~/.config/Signal/sql/db.sqlite -o ./export
  SIGNAL_CONFIG_PATH=... SIGNAL_DATABASE_PATH=... SIGNAL_OUTPUT_DIRECTORY=... signal-export`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogDebug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			run, err := runExport(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), cfg.OutputDirectory, run)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.SignalConfigPath, "config-path", "c", cfg.SignalConfigPath, "path to Signal's config.json (env SIGNAL_CONFIG_PATH)")
	flags.StringVarP(&cfg.SignalDatabasePath, "database-path", "d", cfg.SignalDatabasePath, "path to Signal's db.sqlite (env SIGNAL_DATABASE_PATH)")
	flags.StringVarP(&cfg.OutputDirectory, "output-directory", "o", cfg.OutputDirectory, "directory for the JSON files (env SIGNAL_OUTPUT_DIRECTORY)")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel file writers, 0 uses every CPU (env EXPORT_WORKERS)")
	flags.StringVar(&cfg.PayloadErrorPolicy, "on-payload-error", cfg.PayloadErrorPolicy, "skip or halt on an undecodable message (env PAYLOAD_ERROR_POLICY)")
	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runExport(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.ExportRun, error) {
	key, err := config.ResolveSignalKey(cfg.SignalConfigPath)
	if err != nil {
		return domain.ExportRun{}, err
	}

	store, err := db.OpenEncrypted(ctx, cfg.SignalDatabasePath, key)
	if err != nil {
		return domain.ExportRun{}, err
	}
	defer store.Close()
	logger.Debug("database unlocked", zap.String("path", cfg.SignalDatabasePath))

	opts := service.ExportOptions{HaltOnPayloadError: cfg.PayloadErrorPolicy == config.PayloadPolicyHalt}

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Warn("archive mirror disabled", zap.Error(err))
		} else {
			defer pool.Close()
			opts.Archives = prepareArchiveMirror(ctx, logger, pool)
		}
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, run ledger disabled", zap.Error(err))
		} else {
			opts.Ledger = service.NewRedisRunLedger(redisClient)
		}
		cancel()
	}

	writer := service.NewArchiveWriter(logger, cfg.WorkerCount())
	svc := service.NewExportService(logger, repository.NewSQLiteMessageRepository(store.Conn()), writer, opts)
	return svc.Run(ctx, cfg.OutputDirectory)
}

// prepareArchiveMirror devuelve nil si Postgres no responde o no acepta el esquema.
func prepareArchiveMirror(ctx context.Context, logger *zap.Logger, pool *pgxpool.Pool) repository.ArchiveRepository {
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.Ping(ctxPing, pool); err != nil {
		logger.Warn("postgres ping failed, archive mirror disabled", zap.Error(err))
		return nil
	}

	archives := repository.NewPgArchiveRepository(pool)
	if err := archives.EnsureSchema(ctx); err != nil {
		logger.Warn("archive mirror disabled", zap.Error(err))
		return nil
	}
	return archives
}

func printSummary(w io.Writer, dir string, run domain.ExportRun) {
	fmt.Fprintf(w, "exported %d conversations (%d messages) to %s\n", run.FilesWritten, run.Messages, dir)
	if run.SkippedPayloads > 0 {
		fmt.Fprintf(w, "skipped %d messages with unreadable payloads\n", run.SkippedPayloads)
	}
	if run.FilesFailed > 0 {
		fmt.Fprintf(w, "failed to write %d conversation files, see log for details\n", run.FilesFailed)
	}
}

// describeError agrega una pista para los errores que el usuario puede corregir.
func describeError(err error) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound), errors.Is(err, config.ErrConfigUnreadable):
		return fmt.Sprintf("%v\nset --config-path or SIGNAL_CONFIG_PATH to Signal's config.json", err)
	case errors.Is(err, config.ErrConfigMalformed):
		return fmt.Sprintf("%v\nconfig.json must be the file Signal Desktop writes, with a \"key\" field", err)
	case errors.Is(err, db.ErrStoreNotFound):
		return fmt.Sprintf("%v\nset --database-path or SIGNAL_DATABASE_PATH to Signal's sql/db.sqlite", err)
	case errors.Is(err, db.ErrUnlockFailed):
		return fmt.Sprintf("%v\nthe key in config.json does not open this database; make sure both come from the same Signal profile", err)
	default:
		return err.Error()
	}
}
