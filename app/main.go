package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/quill/internal/blogservice"
	"github.com/sushihentaime/quill/internal/commentservice"
	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mailservice"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/storage"
	"github.com/sushihentaime/quill/internal/userservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	authService    *userservice.AuthService
	userService    *userservice.UserService
	blogService    *blogservice.BlogService
	commentService *commentservice.CommentService
	mailService    *mailservice.MailService
	store          storage.Store
	broker         *common.MessageBroker
}

// newMapper builds the registry holding every response mapping of the API.
func newMapper() *mapper.Registry {
	r := mapper.NewRegistry()
	userservice.RegisterMappings(r)
	blogservice.RegisterMappings(r)
	commentservice.RegisterMappings(r)
	return r
}

func newTokenManager(cfg *Config) *userservice.TokenManager {
	return userservice.NewTokenManager(
		userservice.TokenConfig{Secret: cfg.AccessSecret, TTL: cfg.AccessTTL},
		userservice.TokenConfig{Secret: cfg.RefreshSecret, TTL: cfg.RefreshTTL},
		userservice.TokenConfig{Secret: cfg.ResetSecret, TTL: cfg.ResetTTL},
	)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewS3Store(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL)
	if err != nil {
		logger.Error("failed to configure the blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	types := userservice.NewUserTypes(db, common.NewCache(time.Hour, 2*time.Hour))
	err = types.Seed(ctx)
	if err != nil {
		logger.Error("failed to load user types", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := newMapper()
	hasher := userservice.NewPasswordHasher(cfg.BcryptCost)

	app := &application{
		config:         cfg,
		logger:         logger,
		authService:    userservice.NewAuthService(db, types, hasher, newTokenManager(cfg), broker, r, cfg.ClientURL),
		userService:    userservice.NewUserService(db, hasher, r, store, logger),
		blogService:    blogservice.NewBlogService(db, r, store, logger),
		commentService: commentservice.NewCommentService(db, r, logger),
		mailService:    mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger),
		store:          store,
		broker:         broker,
	}

	err = app.mailService.SendPasswordResetEmail()
	if err != nil {
		logger.Error("failed to start the mail consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
