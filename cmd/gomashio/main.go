package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/gomashio/gomashio/internal/config"
	"github.com/gomashio/gomashio/internal/directory"
	"github.com/gomashio/gomashio/internal/dispatch"
	"github.com/gomashio/gomashio/internal/handlers"
	"github.com/gomashio/gomashio/internal/identity"
	"github.com/gomashio/gomashio/internal/logger"
	"github.com/gomashio/gomashio/internal/router"
	"github.com/gomashio/gomashio/internal/secrets"
	"github.com/gomashio/gomashio/internal/server"
	"github.com/gomashio/gomashio/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	// Deployment values may come from the environment.
	if v := os.Getenv("GOMASHIO_CACHE_TABLE"); v != "" {
		cfg.Cache.Table = v
	}
	if v := os.Getenv("GOMASHIO_TOKEN_PARAMETER"); v != "" {
		cfg.Slack.TokenParameter = v
	}
	if v := os.Getenv("GOMASHIO_WEBHOOK_URL"); v != "" {
		cfg.Slack.WebhookURL = v
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideAWSConfig() (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws config: %w", err)
	}
	return awsCfg, nil
}

func provideSecretSource(log *slog.Logger, cfg config.Config, awsCfg aws.Config) secrets.Source {
	return secrets.NewSSMSource(log, ssm.NewFromConfig(awsCfg), cfg.Slack.TokenParameter)
}

func provideCacheStore(log *slog.Logger, cfg config.Config, awsCfg aws.Config) directory.Store {
	return directory.NewDynamoStore(log, dynamodb.NewFromConfig(awsCfg), cfg.Cache.Table)
}

func provideLister(log *slog.Logger, source secrets.Source) directory.Lister {
	return directory.NewSlackLister(log, source)
}

func provideDirectoryService(log *slog.Logger, cfg config.Config, store directory.Store, lister directory.Lister) *directory.Service {
	return directory.NewService(log, store, lister, cfg.Cache.Expiry())
}

func provideRefresher(log *slog.Logger, cfg config.Config, service *directory.Service) *directory.Refresher {
	return directory.NewRefresher(log, service, cfg.Cache.RefreshSchedule)
}

func provideIdentityResolver(cfg config.Config) *identity.Resolver {
	return identity.NewResolver(cfg.Rules.AccountMap)
}

func provideRoutingTable(cfg config.Config) (*router.Table, error) {
	return router.NewTable(cfg.Rules.Repositories)
}

func provideSender(log *slog.Logger, cfg config.Config, source secrets.Source) *dispatch.Sender {
	return dispatch.NewSender(log, cfg.Slack, source)
}

func provideProcessor(log *slog.Logger, cfg config.Config, table *router.Table, service *directory.Service, ids *identity.Resolver, sender *dispatch.Sender) *router.Processor {
	return router.NewProcessor(log, cfg.Rules, table, service, ids, sender)
}

func provideWebhookHandler(log *slog.Logger, processor *router.Processor) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, processor)
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,

			provideAWSConfig,
			provideSecretSource,
			provideCacheStore,
			provideLister,
			provideDirectoryService,
			provideRefresher,

			provideIdentityResolver,
			provideRoutingTable,
			provideSender,
			provideProcessor,

			provideServerHandler(provideWebhookHandler),
			provideServerHandler(handlers.NewPingHandler),

			provideServer,
		),
		fx.Invoke(
			startRefresher,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

func startRefresher(lc fx.Lifecycle, refresher *directory.Refresher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return refresher.Start()
		},
		OnStop: func(ctx context.Context) error {
			return refresher.Stop(ctx)
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting gomashio %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
