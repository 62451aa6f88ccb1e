package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authkit/modules/account"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/file"
	"github.com/dmitrymomot/authkit/pkg/httpserver"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/mongo"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/pkg/redis"
	"github.com/dmitrymomot/authkit/pkg/requestid"
	"github.com/dmitrymomot/authkit/svc/auth"
	"github.com/dmitrymomot/authkit/svc/user"
)

type appConfig struct {
	Name          string `env:"APP_NAME" envDefault:"authkit"`
	Env           string `env:"APP_ENV" envDefault:"development"`
	AvatarStorage string `env:"AVATAR_STORAGE" envDefault:"local"`
	Recorder      string `env:"CREATED_USER_RECORDER" envDefault:"mongo"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg    appConfig
		authCfg   auth.Config
		googleCfg auth.GoogleConfig
		mongoCfg  mongo.Config
		redisCfg  redis.Config
		emailCfg  email.Config
		localCfg  file.LocalConfig
		s3Cfg     file.S3Config
		httpCfg   httpserver.Config
		limitCfg  ratelimiter.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&authCfg) },
		func() error { return config.Load(&googleCfg) },
		func() error { return config.Load(&mongoCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&emailCfg) },
		func() error { return config.Load(&localCfg) },
		func() error { return config.Load(&s3Cfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&limitCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, appCfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	mongoClient, db, err := mongo.Open(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.WithoutCancel(ctx)) }()

	users := user.NewMongoStorage(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	readiness := []func(context.Context) error{mongo.Healthcheck(mongoClient)}

	var recorder user.Recorder
	switch appCfg.Recorder {
	case "redis":
		var rdb *goredis.Client
		rdb, err = redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		recorder = user.NewRedisRecorder(rdb)
		readiness = append(readiness, redis.Healthcheck(rdb))
	case "mongo", "":
		recorder = user.NewMongoRecorder(db)
	default:
		return fmt.Errorf("unknown CREATED_USER_RECORDER %q", appCfg.Recorder)
	}

	var (
		files     file.Storage
		avatarDir string
	)
	switch appCfg.AvatarStorage {
	case "s3":
		files, err = file.NewS3Storage(ctx, s3Cfg)
		if err != nil {
			return err
		}
	case "local", "":
		local, err := file.NewLocalStorage(localCfg)
		if err != nil {
			return err
		}
		files = local
		avatarDir = local.Dir()
	default:
		return fmt.Errorf("unknown AVATAR_STORAGE %q", appCfg.AvatarStorage)
	}

	var mailer email.EmailSender
	if emailCfg.PostmarkEnabled() {
		mailer, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn("postmark is not configured, emails are written to disk", slog.String("dir", emailCfg.DevDir))
		mailer = email.NewDevSender(emailCfg.DevDir, email.WithDevLogger(log))
	}

	tokens, err := jwt.New(authCfg.JWTSecret, jwt.WithIssuer(appCfg.Name))
	if err != nil {
		return err
	}

	opts := []auth.Option{auth.WithRecorder(recorder), auth.WithLogger(log)}
	if googleCfg.Enabled() {
		opts = append(opts, auth.WithGoogle(auth.NewGoogleAdapter(googleCfg, authCfg.BaseURL)))
	}
	svc := auth.NewService(authCfg, users, tokens, mailer, files, opts...)

	moduleOpts := []account.Option{account.WithLogger(log)}
	if limitCfg.Enabled {
		store := ratelimiter.NewMemoryStore()
		defer store.Close()
		limiter, err := ratelimiter.NewBucket(store, limitCfg)
		if err != nil {
			return err
		}
		moduleOpts = append(moduleOpts, account.WithRateLimit(limiter, ratelimiter.KeyByIP(limitCfg)))
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware, logger.Middleware(log), middleware.Recoverer)

	r.Get("/livez", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, readiness...))
	if avatarDir != "" {
		prefix := "/" + authCfg.AvatarDir + "/"
		r.Handle(prefix+"*", file.PublicHandler(avatarDir))
	}
	r.Mount("/api/users", account.New(svc, moduleOpts...).Routes())

	err = httpserver.New(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
