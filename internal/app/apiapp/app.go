package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/config"
	"github.com/ivankudzin/skillswap/internal/jobs/matchloop"
	"github.com/ivankudzin/skillswap/internal/repo/memory"
	pgrepo "github.com/ivankudzin/skillswap/internal/repo/postgres"
	redrepo "github.com/ivankudzin/skillswap/internal/repo/redis"
	authsvc "github.com/ivankudzin/skillswap/internal/services/auth"
	consentsvc "github.com/ivankudzin/skillswap/internal/services/consent"
	matchingsvc "github.com/ivankudzin/skillswap/internal/services/matching"
	notifysvc "github.com/ivankudzin/skillswap/internal/services/notify"
	ratesvc "github.com/ivankudzin/skillswap/internal/services/rate"
	statssvc "github.com/ivankudzin/skillswap/internal/services/stats"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler

	job        *matchloop.Job
	jobCtx     context.Context
	stopJob    context.CancelFunc
	jobDone    chan struct{}
	jobOnce    sync.Once
	jobStarted atomic.Bool
}

// storage is the driver-specific half of the wiring.
type storage struct {
	store   matchingsvc.Store
	users   matchingsvc.UserDirectory
	skills  matchingsvc.SkillCatalog
	counter statssvc.Counter
	sinks   []notifysvc.Sink
	pool    *pgxpool.Pool
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		redisClient *goredis.Client
		limiter     matchingsvc.StartLimiter
		statsCache  statssvc.Cache
		lease       matchloop.Lease
	)
	if cfg.Redis.Enabled {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redrepo.Ping(ctx, redisClient); err != nil {
			log.Warn("redis unavailable, rate limits, stats cache and tick lease will fail open", zap.Error(err))
		}
		limiter = ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), cfg.Matching.StartPerMinute, cfg.Matching.StartPerHour)
		statsCache = redrepo.NewCacheRepo(redisClient)
		lease = redrepo.NewLeaseRepo(redisClient)
		st.sinks = append(st.sinks, redrepo.NewNotificationPublisher(redisClient))
	}
	if cfg.Matching.NotificationsToLog {
		st.sinks = append(st.sinks, notifysvc.NewLogSink(log))
	}

	dispatcher := notifysvc.NewDispatcher(log, st.sinks...)
	engine := matchingsvc.NewEngine(matchingsvc.EngineDependencies{
		Store:    st.store,
		Users:    st.users,
		Skills:   st.skills,
		Notifier: dispatcher,
		Logger:   log,
	})
	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		Store:   st.store,
		Users:   st.users,
		Skills:  st.skills,
		Engine:  engine,
		Limiter: limiter,
		Logger:  log,
	})
	consentService := consentsvc.NewService(consentsvc.Dependencies{
		Store:    st.store,
		Notifier: dispatcher,
		Logger:   log,
	})
	sweeper := matchingsvc.NewSweeper(st.store, dispatcher, log)

	loc, err := cfg.Matching.Location()
	if err != nil {
		return nil, err
	}
	statsService := statssvc.NewService(st.counter, statsCache, statssvc.Config{
		Location: loc,
		CacheTTL: cfg.Matching.StatsCacheTTL,
	}, log)

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.RequestTimeout)
	RegisterRoutes(r, Dependencies{
		MatchingService: matchingService,
		ConsentService:  consentService,
		StatsService:    statsService,
		Tokens:          authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL),
		Logger:          log,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	app := &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   st.pool,
		redis:      redisClient,
		httpRouter: handler,
		jobDone:    make(chan struct{}),
	}

	if cfg.Matching.SchedulerEnabled {
		job := matchloop.New(engine, sweeper, cfg.Matching.TickInterval, cfg.Matching.EntryTTL, log)
		if lease != nil {
			job.AttachLease(lease)
		}
		app.job = job
		app.jobCtx, app.stopJob = context.WithCancel(context.Background())
	}

	return app, nil
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		seed, err := memory.LoadSeed(cfg.Storage.MemorySeed)
		if err != nil {
			return storage{}, err
		}
		store := memory.NewStore()
		if err := store.Apply(seed); err != nil {
			return storage{}, err
		}
		log.Info("using in-memory storage", zap.Int("seed_users", len(seed.Users)))
		return storage{store: store, users: store, skills: store, counter: store}, nil

	case config.StorageDriverPostgres:
		pool, err := pgrepo.NewPool(ctx, pgrepo.PoolOptions{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return storage{}, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return storage{}, err
			}
		}
		queue := pgrepo.NewQueueRepo(pool, cfg.Matching.TxMaxAttempts)
		return storage{
			store:   queue,
			users:   pgrepo.NewUserRepo(pool),
			skills:  pgrepo.NewTalentRepo(pool),
			counter: queue,
			sinks:   []notifysvc.Sink{pgrepo.NewNotificationRepo(pool)},
			pool:    pool,
		}, nil

	default:
		return storage{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// StartScheduler launches the matching loop once. It stops on Shutdown.
func (a *App) StartScheduler() {
	if a.job == nil {
		return
	}
	a.jobOnce.Do(func() {
		a.jobStarted.Store(true)
		go func() {
			defer close(a.jobDone)
			a.job.Loop(a.jobCtx)
		}()
	})
}

func (a *App) Run() error {
	a.StartScheduler()
	a.logger.Info("api server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.Bool("scheduler", a.job != nil),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.stopJob != nil {
		a.stopJob()
		if a.jobStarted.Load() {
			select {
			case <-a.jobDone:
			case <-ctx.Done():
				if shutdownErr == nil {
					shutdownErr = fmt.Errorf("wait for matching loop: %w", ctx.Err())
				}
			}
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
