package container

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

// Visit transports.
const (
	TransportInline = "inline"
	TransportStream = "stream"
)

// ConsumerGroupName is the redis stream consumer group of the click aggregator.
const ConsumerGroupName = "shortlink-aggregator"

const (
	bucketIdleTTL  = 10 * time.Minute
	janitorEvery   = time.Minute
	apiTitle       = "Shortlink"
	apiVersion     = "1.0.0"
	memoryDatabase = "memory"
)

var errUnsupportedDatabase = errors.New("unsupported database url")

// Options configures the service. Every option is also read from a SERVICE_ prefixed
// environment variable.
type Options struct {
	Port               int    `default:"8888"    help:"Port to listen on"                                            short:"p"`
	BaseURL            string `default:""        help:"Public base of short links, defaults to http://localhost:<port>"`
	DatabaseURL        string `default:"memory"  help:"Link store: postgres://..., sqlite:<path> or memory"          short:"d"`
	RedisAddr          string `default:""        help:"Redis address; empty keeps the resolution cache in process"   short:"r"`
	CacheTTL           int    `default:"600"     help:"Resolution cache TTL in seconds"`
	AliasLength        int    `default:"7"       help:"Length of generated aliases"                                  short:"a"`
	FlushInterval      int    `default:"1000"    help:"Click flush interval in milliseconds"`
	VisitQueueLimit    int    `default:"0"       help:"Visit queue bound; 0 is an unbuffered handoff that never drops visits"`
	DrainTimeout       int    `default:"5"       help:"Seconds to flush pending clicks on shutdown"`
	VisitTransport     string `default:"inline"  help:"Where visits are counted: inline or stream"`
	RateLimitPerMinute int    `default:"60"      help:"Requests per minute per client"`
	RateLimitBurst     int    `default:"60"      help:"Request burst per client"`
	LogFormat          string `default:"console" help:"Log format: console or json"`
}

// PublicBaseURL returns the configured base URL or the local default.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// AggregatorConfig converts the click options.
func (o *Options) AggregatorConfig() analytics.Config {
	return analytics.Config{
		FlushInterval: time.Duration(o.FlushInterval) * time.Millisecond,
		QueueLimit:    o.VisitQueueLimit,
		DrainTimeout:  time.Duration(o.DrainTimeout) * time.Second,
	}
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisClient closes the connection pool on shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.RedisAddr == "" {
			return nil, errors.New("redis address is not configured")
		}

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// LinkStore is a link store that also keeps the click ledger.
type LinkStore interface {
	shortener.Repository
	shortener.ClickCounter
	analytics.Ledger
	health.Checker
}

// Storage owns the configured LinkStore and releases it on shutdown.
type Storage struct {
	LinkStore

	close func() error
}

func (s *Storage) Shutdown() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}

func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Storage, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return OpenStorage(context.Background(), opts.DatabaseURL, logger)
	})
}

// OpenStorage selects the backend from databaseURL. Postgres schemas are migrated first.
func OpenStorage(ctx context.Context, databaseURL string, logger *zap.Logger) (*Storage, error) {
	switch {
	case databaseURL == "" || databaseURL == memoryDatabase:
		logger.Warn("using in-memory link store, links are lost on restart")

		return &Storage{LinkStore: store.NewMemoryStore()}, nil
	case strings.HasPrefix(databaseURL, "sqlite:"):
		s, err := store.OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite:"))
		if err != nil {
			return nil, err
		}

		return &Storage{LinkStore: s, close: s.Shutdown}, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		if err := store.Migrate(databaseURL, logger); err != nil {
			return nil, err
		}

		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &Storage{
			LinkStore: store.NewPostgresStore(pool),
			close: func() error {
				pool.Close()

				return nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedDatabase, databaseURL)
	}
}

// ResolutionCache is a shortener.Cache that can be health checked.
type ResolutionCache interface {
	shortener.Cache
	health.Checker
}

func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ResolutionCache, error) {
		opts := do.MustInvoke[*Options](i)
		ttl := time.Duration(opts.CacheTTL) * time.Second

		if opts.RedisAddr == "" {
			return store.NewLRUCache(store.DefaultLRUSize, ttl), nil
		}

		client := do.MustInvoke[*RedisClient](i)

		return store.NewRedisCache(client.Client, ttl), nil
	})
}

func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i))
	})
}

func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Registrar, error) {
		opts := do.MustInvoke[*Options](i)

		generator, err := shortener.NewAliasGenerator(opts.AliasLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewRegistrar(
			do.MustInvoke[*Storage](i),
			do.MustInvoke[ResolutionCache](i),
			generator,
			opts.PublicBaseURL(),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		return shortener.NewResolver(
			do.MustInvoke[*Storage](i),
			do.MustInvoke[ResolutionCache](i),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.StatsReader, error) {
		storage := do.MustInvoke[*Storage](i)

		return shortener.NewStatsReader(storage, storage), nil
	})
}

// AnalyticsPackage provides the click aggregator and the visit recorder used by redirects.
// With the stream transport, redirects publish visits and the aggregator runs in cmd/consumer.
func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*analytics.Aggregator, error) {
		opts := do.MustInvoke[*Options](i)

		agg := analytics.NewAggregator(
			do.MustInvoke[*Storage](i),
			opts.AggregatorConfig(),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		)

		if err := agg.Start(context.Background()); err != nil {
			return nil, err
		}

		return agg, nil
	})

	do.Provide(i, func(i *do.Injector) (handlers.VisitRecorder, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.VisitTransport {
		case TransportInline, "":
			return do.MustInvoke[*analytics.Aggregator](i), nil
		case TransportStream:
			group := do.MustInvoke[*messaging.PublisherGroup](i)

			return analytics.NewStreamRecorder(
				messaging.NewPublishFunc[analytics.VisitEvent](group.Publisher(), analytics.TopicLinkVisited),
				do.MustInvoke[*zap.Logger](i),
			), nil
		default:
			return nil, fmt.Errorf("unknown visit transport %q", opts.VisitTransport)
		}
	})
}

func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)

		publisher, err := messaging.NewRedisStreamPublisher(client.Client, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		client := do.MustInvoke[*RedisClient](i)
		agg := do.MustInvoke[*analytics.Aggregator](i)

		subscriber, err := messaging.NewRedisStreamSubscriber(client.Client, ConsumerGroupName, logger)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicLinkVisited,
			analytics.NewVisitHandler(agg),
			logger,
		))

		return group, nil
	})
}

func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.RateLimitMemoryStore, error) {
		opts := do.MustInvoke[*Options](i)

		buckets := store.NewRateLimitMemoryStore(ratelimit.PerMinute(opts.RateLimitPerMinute), opts.RateLimitBurst, bucketIdleTTL)
		buckets.Start(context.Background(), janitorEvery)

		return buckets, nil
	})

	do.Provide(i, func(i *do.Injector) (ratelimit.Limiter, error) {
		return ratelimit.NewTokenBucketLimiter(do.MustInvoke[*store.RateLimitMemoryStore](i)), nil
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		cache := do.MustInvoke[ResolutionCache](i)
		storage := do.MustInvoke[*Storage](i)

		api := humachi.New(router, huma.DefaultConfig(apiTitle, apiVersion))
		api.UseMiddleware(middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i), logger))

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Registrar](i),
			do.MustInvoke[*shortener.Resolver](i),
			do.MustInvoke[*shortener.StatsReader](i),
			do.MustInvoke[handlers.VisitRecorder](i),
			do.MustInvoke[*metrics.Metrics](i),
			logger,
		))

		health.RegisterRoutes(api, health.NewHandler(map[string]health.Checker{
			"cache": cache,
			"store": storage,
		}, logger))

		return api, nil
	})
}
