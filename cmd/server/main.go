package main // Entry point package

import (
	"context"   // shutdown deadline
	"errors"    // detect the normal server-closed error
	"log"       // fallback logging before zap is up
	"net/http"  // cookie SameSite modes
	"os"        // signal targets
	"os/signal" // graceful shutdown on SIGINT/SIGTERM
	"strings"   // API path checks
	"syscall"   // SIGTERM
	"time"      // timeouts

	_ "time/tzdata" // Asia/Colombo must resolve on minimal images

	"github.com/google/uuid"                        // request ids
	"github.com/gorilla/sessions"                   // cookie store behind flash messages
	"github.com/labstack/echo-contrib/session"      // gorilla sessions for echo
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's stock middleware
	"go.uber.org/zap"                               // structured logging

	"github.com/lankanlens/rental-marketplace/internal/auth"       // login policy
	"github.com/lankanlens/rental-marketplace/internal/config"     // Internal config loader
	"github.com/lankanlens/rental-marketplace/internal/database"   // MySQL pool
	"github.com/lankanlens/rental-marketplace/internal/handler"    // HTTP handlers
	"github.com/lankanlens/rental-marketplace/internal/logger"     // zap + rotated error log
	"github.com/lankanlens/rental-marketplace/internal/middleware" // sessions and rate limits
	"github.com/lankanlens/rental-marketplace/internal/repository" // data access
	"github.com/lankanlens/rental-marketplace/internal/router"     // Internal router setup
	"github.com/lankanlens/rental-marketplace/web"                 // embedded templates
)

func main() {
	cfg := config.Load() // Load environment config

	lg, err := logger.New(logger.Options{Dir: cfg.LogDir, Development: cfg.IsDevelopment()})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		lg.Warn("redis unreachable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	catalog := repository.NewCatalogRepo(db)
	inventory := repository.NewInventoryRepo(db)
	shops := repository.NewShopRepo(db)
	bookings := repository.NewBookingRepo(db)
	search := repository.NewSearchRepo(db)

	authn := auth.NewAuthenticator(users, auth.LoginPolicy{MaxAttempts: cfg.MaxLoginTries, Lockout: cfg.LockoutWindow})
	sess := &middleware.Sessions{
		Secret:      cfg.SessionSecret,
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.RememberMeTTL,
		Secure:      cfg.CookieSecure,
		Users:       users,
		Accounts:    users,
	}

	renderer, err := handler.NewRenderer(web.Templates, cfg.AppName, cfg.Location())
	if err != nil {
		lg.Fatal("templates failed to parse", zap.Error(err))
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			lg.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("ip", v.RemoteIP),
			)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "form:csrf_token",
		CookieName:     "ll_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/assets/")
		},
	}))
	e.Use(sess.Middleware())

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, authn, sess),
		Search:  handler.NewSearchHandler(cfg, search, categories),
		Product: handler.NewProductHandler(cfg, inventory),
		Booking: handler.NewBookingHandler(bookings),
		Vendor:  handler.NewVendorHandler(shops, inventory, catalog, categories, bookings),
		Admin: handler.NewAdminHandler(cfg, handler.AdminDeps{
			Users:      users,
			Vendors:    repository.NewVendorRepo(db),
			Shops:      shops,
			Catalog:    catalog,
			Categories: categories,
			Inventory:  inventory,
			Bookings:   bookings,
			Logs:       repository.NewAdminLogRepo(db),
			Search:     search,
		}),
		DB: db,
	}, router.Limits{
		API:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Login: middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb),
	}, cfg.AssetsDir)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
