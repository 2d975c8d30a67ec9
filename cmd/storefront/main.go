package main

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BuildStore/internal/auth"
	"BuildStore/internal/cart"
	"BuildStore/internal/catalog"
	"BuildStore/internal/checkout"
	"BuildStore/internal/config"
	"BuildStore/internal/storefront"
	"BuildStore/pkg/kit"
)

const startupTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger("storefront", "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(cfg.Service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if cfg.Admin.SecretGenerated {
		log.Warn("JWT_SECRET not set, using a random secret; admin tokens will not survive a restart")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open catalog store failed", zap.Error(err))
	}
	defer closeStore()

	events := openPublisher(cfg, log)
	if c, ok := events.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	creds, err := auth.NewCredentials(cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		log.Fatal("admin credentials", zap.Error(err))
	}

	reg := prometheus.NewRegistry()

	cartSrv := &cart.Server{
		Jar:     cart.NewCookieJar(cfg.Cart.SecureCookie),
		Log:     log,
		Metrics: cart.NewMetrics(reg),
	}

	h := storefront.NewHandler(
		storefront.Deps{
			Catalog: &catalog.Server{Store: store, Log: log, Events: events},
			Cart:    cartSrv,
			Checkout: &checkout.Server{
				Cart:     cartSrv,
				ShopName: cfg.Shop.Name,
				Phone:    cfg.Shop.CheckoutPhone,
			},
			Admin: &auth.Server{
				Log:      log,
				Creds:    creds,
				JWT:      auth.NewTokenMaker(cfg.Admin.JWTSecret),
				TokenTTL: cfg.Admin.TokenTTL,
			},
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        cfg.Service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)

	timeouts := kit.ServerTimeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	}
	if err := kit.RunHTTPServer(":"+cfg.Port, h, timeouts, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openStore picks Postgres when DATABASE_URL is set and the in-memory store
// otherwise, then seeds an empty catalog and layers the Redis cache on top.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (catalog.Store, func(), error) {
	seed, err := seedProducts(cfg.Catalog.File)
	if err != nil {
		return nil, nil, err
	}

	var (
		store   catalog.Store
		closers []func()
	)

	if cfg.Catalog.DatabaseURL != "" {
		db, err := catalog.OpenPostgres(cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })

		pg := catalog.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store = pg
		log.Info("catalog store: postgres")
	} else {
		store = catalog.NewMemStore()
		log.Info("catalog store: memory")
	}

	n, err := catalog.SeedIfEmpty(ctx, store, seed)
	if err != nil {
		runAll(closers)
		return nil, nil, err
	}
	if n > 0 {
		log.Info("catalog seeded", zap.Int("products", n))
	}

	if cfg.Redis.Addr != "" {
		rdb, err := catalog.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
			store = catalog.NewCachedStore(store, rdb, cfg.Catalog.CacheTTL, log)
			log.Info("catalog cache: redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	return store, func() { runAll(closers) }, nil
}

func seedProducts(file string) ([]catalog.Product, error) {
	if file == "" {
		return catalog.DefaultProducts(), nil
	}
	return catalog.LoadProductsFile(file)
}

func openPublisher(cfg config.Config, log *zap.Logger) catalog.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return catalog.NopPublisher{}
	}
	log.Info("product events: kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.ProductTopic),
	)
	return catalog.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic)
}

func runAll(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
