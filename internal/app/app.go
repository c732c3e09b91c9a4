package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/config"
	"github.com/templui/storyloom/internal/db"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/storage"
)

type App struct {
	Cfg      *config.Config
	DB       *sqlx.DB
	Registry *capability.Registry
	Markdown *markdown.Parser

	AuthService       *service.AuthService
	UserService       *service.UserService
	EmailService      *service.EmailService
	FileService       *service.FileService
	StoryService      *service.StoryService
	TagService        *service.TagService
	SocialService     *service.SocialService
	BadgeService      *service.BadgeService
	SubmissionService *service.SubmissionService
	StudioService     *service.StudioService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	storyRepository := repository.NewStoryRepository(database)
	tagRepository := repository.NewTagRepository(database)
	likeRepository := repository.NewLikeRepository(database)
	reactionRepository := repository.NewReactionRepository(database)
	commentRepository := repository.NewCommentRepository(database)
	badgeRepository := repository.NewBadgeRepository(database)
	fileRepository := repository.NewFileRepository(database)
	txRunner := repository.NewTxRunner(database)

	// Storage is optional; without it media capabilities report unavailable
	var fileStorage storage.Storage
	s3, storageErr := storage.New(ctx, cfg)
	switch {
	case storageErr == nil:
		fileStorage = s3
	case errors.Is(storageErr, storage.ErrNotConfigured):
		slog.Info("object storage not configured")
	default:
		slog.Warn("object storage unavailable", "error", storageErr)
	}

	// Capabilities
	parser := markdown.NewParser()
	registry := capability.NewRegistry()
	registerCapabilities(ctx, cfg, registry, fileStorage, storageErr, parser)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	authService := service.NewAuthService(
		userRepository,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.IsProduction(),
	)
	userService := service.NewUserService(userRepository)
	badgeService := service.NewBadgeService(badgeRepository, storyRepository, userRepository, txRunner, emailService)
	submissionService := service.NewSubmissionService(registry, storyRepository, tagRepository, txRunner, fileService, badgeService)
	storyService := service.NewStoryService(storyRepository, tagRepository, fileService, submissionService, registry, parser)
	socialService := service.NewSocialService(storyRepository, likeRepository, reactionRepository, commentRepository, badgeService)
	tagService := service.NewTagService(tagRepository, registry)
	studioService := service.NewStudioService(registry)

	created, err := badgeService.InitializeDefaultBadges()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to seed badges: %w", err)
	}
	if created > 0 {
		slog.Info("badge catalog seeded", "created", created)
	}

	return &App{
		Cfg:               cfg,
		DB:                database,
		Registry:          registry,
		Markdown:          parser,
		AuthService:       authService,
		UserService:       userService,
		EmailService:      emailService,
		FileService:       fileService,
		StoryService:      storyService,
		TagService:        tagService,
		SocialService:     socialService,
		BadgeService:      badgeService,
		SubmissionService: submissionService,
		StudioService:     studioService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
