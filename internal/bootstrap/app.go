package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/database"
	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/handler"
	"github.com/locvowork/employee_migration/internal/loader"
	"github.com/locvowork/employee_migration/internal/logger"
	"github.com/locvowork/employee_migration/internal/metrics"
	"github.com/locvowork/employee_migration/internal/metrics/prompush"
	"github.com/locvowork/employee_migration/internal/pipeline"
	"github.com/locvowork/employee_migration/internal/report"
	"github.com/locvowork/employee_migration/internal/repository"
	"github.com/locvowork/employee_migration/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Overrides are command line values that take precedence over the environment.
// Nil or zero fields keep the configured value.
type Overrides struct {
	EnvPath      string
	TablesPath   string
	DestKind     string
	BatchSize    int
	ClearOnEmpty *bool
}

type App struct {
	Config       *config.Config
	Log          zerolog.Logger
	RunID        string
	Echo         *echo.Echo
	Status       *pipeline.Status
	Metrics      *metrics.Recorder
	Orchestrator *pipeline.Orchestrator

	logCloser io.Closer
}

func NewApp() *App {
	return &App{
		Echo:  echo.New(),
		RunID: uuid.NewString(),
	}
}

func (a *App) Initialize(ctx context.Context, o Overrides) error {
	// Load environment configuration
	cfg, err := config.Load(o.EnvPath)
	if err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	applyOverrides(cfg, o)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.Config = cfg

	// Initialize logging
	log, closer, err := logger.New(logger.Options{Level: cfg.LogLevel, FilePath: cfg.LogFilePath, RunID: a.RunID})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.Log = log
	a.logCloser = closer
	a.Log.Info().Str("source", cfg.SourceDriver).Str("destination", cfg.DestKind).Int("batch_size", cfg.BatchSize).Msg("configuration loaded")

	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return err
	}

	// Initialize metrics
	var backend metrics.Backend
	if cfg.PushgatewayURL != "" {
		pb, err := prompush.NewBackend(cfg.MetricsJob, cfg.PushgatewayURL)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		backend = pb
	}
	a.Metrics = metrics.NewRecorder(cfg.MetricsJob, backend)

	// Initialize dependencies
	a.Status = pipeline.NewStatus(a.RunID)
	transformer := service.NewTransformer(a.Log, service.NewAggregator(a.Log, service.FirstWins))
	a.Orchestrator = pipeline.New(pipeline.Params{
		Source:      a.openSource,
		Store:       a.openStore,
		Transformer: transformer,
		Queries:     repository.TableQueries(tables),
		Loader: loader.Options{
			BatchSize:    cfg.BatchSize,
			ClearOnEmpty: cfg.ClearOnEmpty,
			WriteTimeout: cfg.DestWriteTimeout,
		},
		Log:     a.Log,
		Metrics: a.Metrics,
		Status:  a.Status,
	})

	a.RegisterMiddlewares()
	a.RegisterRoutes(handler.NewStatusHandler(a.Status))
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.Echo.Use(middleware.Recover())
}

func (a *App) RegisterRoutes(statusHandler *handler.StatusHandler) {
	a.Echo.GET("/status", statusHandler.StatusHandler)
	a.Echo.GET("/healthz", statusHandler.HealthHandler)
}

// Run executes the migration once. The status endpoint, when configured, is served
// for the duration of the run. Metrics are pushed and the report written on every outcome.
func (a *App) Run(ctx context.Context) (*pipeline.Result, error) {
	if a.Config.StatusAddr != "" {
		go func() {
			if err := a.Echo.Start(a.Config.StatusAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Log.Error().Err(err).Str("addr", a.Config.StatusAddr).Msg("status server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := a.Echo.Shutdown(shutdownCtx); err != nil {
				a.Log.Warn().Err(err).Msg("status server shutdown")
			}
		}()
	}

	res, runErr := a.Orchestrator.Run(ctx)

	if err := a.Metrics.Flush(); err != nil {
		a.Log.Warn().Err(err).Msg("failed to push metrics")
	}
	if a.Config.ReportPath != "" && res != nil {
		if err := report.Write(a.Config.ReportPath, res); err != nil {
			a.Log.Warn().Err(err).Str("path", a.Config.ReportPath).Msg("failed to write run report")
		} else {
			a.Log.Info().Str("path", a.Config.ReportPath).Msg("run report written")
		}
	}
	return res, runErr
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

func (a *App) openSource(ctx context.Context) (domain.SourceReader, error) {
	db, err := database.NewSQLDB(ctx, database.SourceConfig(a.Config), a.Log)
	if err != nil {
		return nil, err
	}
	return repository.NewSQLSourceReader(db, a.Log, a.Config.SourceQueryTimeout), nil
}

func (a *App) openStore(ctx context.Context) (domain.DocumentStore, error) {
	return database.NewDocumentStore(ctx, a.Config, a.Log)
}

func applyOverrides(cfg *config.Config, o Overrides) {
	if o.TablesPath != "" {
		cfg.TablesFile = o.TablesPath
	}
	if o.DestKind != "" {
		cfg.DestKind = o.DestKind
	}
	if o.BatchSize != 0 {
		cfg.BatchSize = o.BatchSize
	}
	if o.ClearOnEmpty != nil {
		cfg.ClearOnEmpty = *o.ClearOnEmpty
	}
}
