package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/events"
	"github.com/anonto42/nano-feed/backend/internal/imagestore"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/repositories/memstore"
	"github.com/anonto42/nano-feed/backend/internal/router"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/config"
	"github.com/anonto42/nano-feed/backend/pkg/firebase"
	"github.com/anonto42/nano-feed/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type stores struct {
	tx            repositories.Transactor
	users         repositories.UserRepository
	posts         repositories.PostRepository
	notifications repositories.NotificationRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(cfg.AppName, cfg.Env)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

// run owns every connection it opens, so returning an error still closes them.
func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB()

	st, err := openStores(ctx, cfg, db, log)
	if err != nil {
		return fmt.Errorf("prepare stores: %w", err)
	}

	var trendingCache repositories.PageCache
	if db.Redis != nil {
		trendingCache = repositories.NewRedisPageCache(db.Redis, cfg.AppName+":trending", cfg.TrendingCacheTTL)
	}

	publisher := events.Publisher(events.Nop{})
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(events.NATSConfig{
			URL:        cfg.NATSURL,
			ClientName: cfg.AppName,
		}, log)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer np.Close()
		publisher = np
	}

	images, localImages, err := openImageStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize image store: %w", err)
	}

	resolvers := []middleware.Resolver{middleware.JWTResolver{Secret: []byte(cfg.JWTSecret)}}
	fb, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		resolvers = append(resolvers, middleware.FirebaseResolver{Verifier: fb.AuthClient, Users: st.users})
		log.Info("Firebase ID tokens accepted")
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Info("Firebase not configured, accepting JWT bearer tokens only")
	default:
		return fmt.Errorf("initialize Firebase: %w", err)
	}

	notifications := services.NewNotificationService(st.notifications, log)
	trending := services.NewTrendingService(st.posts, trendingCache, log)
	coordinator := services.NewCoordinator(services.CoordinatorDeps{
		Transactor:    st.tx,
		Users:         st.users,
		Posts:         st.posts,
		Images:        images,
		Notifications: notifications,
		Publisher:     publisher,
		Trending:      trendingCache,
		MaxAttempts:   cfg.MutationMaxAttempts,
		Logger:        log,
	})

	deps := router.Deps{
		Auth:          services.NewAuthService(st.users, cfg.JWTSecret, cfg.JWTTTL, log),
		Feed:          services.NewFeedService(st.users, st.posts, cfg.FeedNetworkRatio, log),
		Search:        services.NewSearchService(st.users, st.posts, cfg.FeedNetworkRatio, log),
		Trending:      trending,
		Profiles:      services.NewProfileService(st.users, st.posts),
		Notifications: notifications,
		Coordinator:   coordinator,
		Resolvers:     resolvers,
		Health:        db,
		ServiceName:   cfg.AppName,
		Logger:        log,
	}
	if localImages != nil {
		deps.Images, deps.ImagePrefix = localImages, localImagePrefix
	}

	e := echo.New()
	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, deps)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown failed")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics shutdown failed")
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve HTTP: %w", err)
	default:
		return nil
	}
}

// openStores selects the user/post store by driver. Notifications live in
// PostgreSQL when it is configured and in memory otherwise.
func openStores(ctx context.Context, cfg *config.Config, db *config.DB, log logrus.FieldLogger) (*stores, error) {
	st := &stores{}

	switch cfg.StoreDriver {
	case config.DriverMongo:
		mdb := db.Mongo.Database(cfg.MongoDatabase)
		users := repositories.NewMongoUserRepository(mdb)
		posts := repositories.NewMongoPostRepository(mdb)
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := posts.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		st.tx, st.users, st.posts = repositories.NewMongoTransactor(db.Mongo), users, posts
	default:
		mem := memstore.New(uint64(time.Now().UnixNano()))
		st.tx, st.users, st.posts = mem, mem, mem
		log.Warn("Using in-memory store, data will not survive a restart")
	}

	if db.Postgres != nil {
		if err := repositories.MigrateNotifications(db.Postgres); err != nil {
			return nil, err
		}
		log.Info("PostgreSQL notification migrations completed")
		st.notifications = repositories.NewPostgresNotificationRepository(db.Postgres)
	} else {
		st.notifications = memstore.NewNotifications()
	}
	return st, nil
}

// localImagePrefix is where images kept in memory are served.
const localImagePrefix = "/images"

// openImageStore returns the bucket-backed store when GCS_BUCKET is set.
// Otherwise images stay in memory and the returned *imagestore.Memory must
// be served over HTTP.
func openImageStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (imagestore.Store, *imagestore.Memory, error) {
	if cfg.GCSBucket == "" {
		log.Warn("GCS_BUCKET not set, keeping images in memory")
		mem := imagestore.NewMemory(localImagePrefix)
		return mem, mem, nil
	}
	client, err := imagestore.NewGCSClient(ctx, cfg.GCSCredentialsPath)
	if err != nil {
		return nil, nil, err
	}
	return imagestore.NewGuarded(imagestore.NewGCS(client, cfg.GCSBucket, "posts"), cfg.ImageStoreTimeout, log), nil, nil
}
