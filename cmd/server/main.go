package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"warroom-server/internal/config"
	apphttp "warroom-server/internal/http"
	"warroom-server/internal/repository/sheetsrepo"
	"warroom-server/internal/service"
	"warroom-server/internal/sheets"
	"warroom-server/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}
	if cfg.Sheets.Credential == "" {
		logger.Fatalf("sheets credential is missing or malformed, set GCP_KEY")
	}
	if cfg.Auth.AdminUsername == "" {
		logger.Warn("no admin override configured, admin panel is unreachable")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := sheets.New(ctx, cfg.Sheets.Credential)
	if err != nil {
		logger.Fatalf("connect to sheets: %v", err)
	}

	slowTTL := time.Duration(cfg.Cache.SlowTTLSeconds) * time.Second
	liveTTL := time.Duration(cfg.Cache.LiveTTLSeconds) * time.Second

	userRepo := sheetsrepo.NewUserRepository(client, cfg.Sheets.MembershipBook, cfg.Sheets.UsersSheet, slowTTL, logger)
	postRepo := sheetsrepo.NewPostRepository(client, cfg.Sheets.MembershipBook, cfg.Sheets.PostsSheet, slowTTL, logger)
	liveRepo := sheetsrepo.NewLiveRepository(client, cfg.Sheets.LiveBook, liveTTL, logger)

	var verifier service.CredentialVerifier = service.PlaintextVerifier{}
	if cfg.Auth.HashNewAccounts {
		verifier = service.BcryptVerifier{}
	}

	accountService := service.NewAccountService(userRepo, verifier, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	contentService := service.NewContentService(postRepo, liveRepo)

	uploader, err := buildUploader(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup image storage: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		accountService,
		contentService,
		uploader,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		cfg.Payment.URL,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildUploader(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	switch cfg.Image.Provider {
	case "imgbb":
		if cfg.Image.ImgbbKey == "" {
			logger.Warn("no imgbb key configured, posts will publish without images")
		}
		return storage.NewImgbbService(cfg.Image.ImgbbKey), nil

	case "s3":
		if cfg.Storage.Bucket == "" {
			return nil, fmt.Errorf("storage bucket is required for the s3 provider")
		}

		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Storage.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
				o.UsePathStyle = true
			}
		})
		logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
		return storage.NewS3Service(client, storage.S3Options{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
		}), nil

	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.Image.Provider)
	}
}
