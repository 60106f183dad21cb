package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/guildpass/guildpass/modules/customerapi"
	"github.com/guildpass/guildpass/modules/sellerapi"
	"github.com/guildpass/guildpass/modules/webhooks"
	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/clientip"
	"github.com/guildpass/guildpass/pkg/config"
	"github.com/guildpass/guildpass/pkg/cookie"
	"github.com/guildpass/guildpass/pkg/discord"
	"github.com/guildpass/guildpass/pkg/httpserver"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/pkg/mongo"
	"github.com/guildpass/guildpass/pkg/ratelimit"
	"github.com/guildpass/guildpass/pkg/redis"
	"github.com/guildpass/guildpass/pkg/requestid"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/auth"
	"github.com/guildpass/guildpass/svc/catalog"
	"github.com/guildpass/guildpass/svc/checkout"
	"github.com/guildpass/guildpass/svc/reconcile"
)

type appConfig struct {
	// LoginRedirectURL is where the browser lands after the OAuth callback.
	LoginRedirectURL string `env:"APP_LOGIN_REDIRECT_URL" envDefault:"/"`

	APIRateLimit  int           `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var (
		logCfg    logger.Config
		srvCfg    httpserver.Config
		mongoCfg  mongo.Config
		redisCfg  redis.Config
		botCfg    discord.Config
		oauthCfg  discord.OAuthConfig
		stripeCfg billing.Config
		cookieCfg cookie.Config
		authCfg   auth.Config
		chkCfg    checkout.Config
		appCfg    appConfig
	)
	config.MustLoad(&logCfg)
	config.MustLoad(&srvCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&botCfg)
	config.MustLoad(&oauthCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&cookieCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&chkCfg)
	config.MustLoad(&appCfg)

	log := logger.New(
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	mongoClient, err := mongo.New(ctx, mongoCfg)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn("mongodb disconnect failed", logger.Error(err))
		}
	}()
	db := mongoClient.Database(mongoCfg.Database)

	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	platformBilling, err := billing.New(stripeCfg.Credentials())
	if err != nil {
		return fmt.Errorf("platform stripe client: %w", err)
	}

	records := store.New(db)
	bot := discord.NewClient(botCfg)
	oauth := discord.NewOAuth(oauthCfg)

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}

	engine := reconcile.New(records, bot,
		func(creds billing.Credentials) (reconcile.SubscriptionFetcher, error) {
			return billing.New(creds)
		},
		platformBilling, stripeCfg.WebhookSecret, log)

	checkoutSvc := checkout.NewService(chkCfg, records,
		func(creds billing.Credentials) (checkout.BillingClient, error) {
			return billing.New(creds)
		},
		platformBilling, bot, log)

	catalogSvc := catalog.NewService(records, bot,
		func(creds billing.Credentials) (catalog.PriceValidator, error) {
			return billing.New(creds)
		},
		log)

	authSvc := auth.NewService(authCfg, auth.NewRedisSessionStore(rdb), oauth, bot, checkoutSvc, log)

	apiLimiter, err := ratelimit.New(ratelimit.NewRedisStore(rdb), appCfg.APIRateLimit, appCfg.APIRateWindow)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(log,
		mongo.Healthcheck(mongoClient),
		redis.Healthcheck(rdb),
	))

	r.Mount("/webhooks", webhooks.Router(engine, log))

	r.Route("/api", func(r chi.Router) {
		r.Use(ratelimit.Middleware(apiLimiter, clientip.GetIP))
		r.Use(auth.Middleware(authSvc, cookies))
		r.Mount("/customer", customerapi.Router(authSvc, checkoutSvc, cookies, appCfg.LoginRedirectURL))
		r.Mount("/seller", sellerapi.Router(catalogSvc, checkoutSvc, authSvc))
	})

	log.Info("starting server", slog.String("addr", srvCfg.Addr))
	return httpserver.New(srvCfg, log).Run(ctx, r)
}
