package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/yukikurage/org-membership-api/internal/config"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/handlers"
	"github.com/yukikurage/org-membership-api/internal/mailer"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/services"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		sender, err := newSender(ctx, cfg, logger)
		if err != nil {
			return err
		}
		dispatcher := mailer.NewDispatcher(sender, logger.WithPrefix("mailer"), cfg.Mailer.QueueSize, cfg.Mailer.Workers)

		router, err := newRouter(cfg, logger, dispatcher)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return dispatcher.Run(ctx)
		})
		g.Go(func() error {
			logger.Info("server starting", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func newSender(ctx context.Context, cfg *config.Config, logger *log.Logger) (mailer.Sender, error) {
	switch cfg.Mailer.Driver {
	case "ses":
		sender, err := mailer.NewSESSender(ctx, cfg.AWSRegion, cfg.Mailer.From)
		if err != nil {
			return nil, fmt.Errorf("create ses sender: %w", err)
		}
		return sender, nil
	default:
		return mailer.NewLogSender(logger.WithPrefix("mailer")), nil
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		s, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret), // authentication key
		)
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		store = s
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func newRouter(cfg *config.Config, logger *log.Logger, emails services.EmailQueue) (*gin.Engine, error) {
	gin.SetMode(cfg.GinMode)

	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	db := database.GetDB()
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	authService := services.NewAuthService(userRepo)
	orgService := services.NewOrganizationService(orgRepo, logger)
	membershipService := services.NewMembershipService(services.MembershipServiceDeps{
		MembershipRepo: membershipRepo,
		OrgRepo:        orgRepo,
		UserRepo:       userRepo,
		Users:          authService,
		Emails:         emails,
		FrontendURL:    cfg.FrontendURL,
		Logger:         logger,
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger.WithPrefix("http")), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Organization API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("")
	api.Use(sessions.Sessions(constants.SessionCookieName, store))
	handlers.Routes{
		Auth:           handlers.NewAuthHandler(authService),
		Organizations:  handlers.NewOrganizationHandler(orgService),
		Memberships:    handlers.NewMembershipHandler(membershipService),
		OrgRepo:        orgRepo,
		MembershipRepo: membershipRepo,
	}.Register(api)

	return r, nil
}
