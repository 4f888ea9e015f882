package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/flightsurety/internal/audit"
	auditdomain "github.com/smallbiznis/flightsurety/internal/audit/domain"
	"github.com/smallbiznis/flightsurety/internal/callerauth"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/governance"
	governancedomain "github.com/smallbiznis/flightsurety/internal/governance/domain"
	"github.com/smallbiznis/flightsurety/internal/ledger"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/internal/observability"
	obsmiddleware "github.com/smallbiznis/flightsurety/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/flightsurety/internal/observability/metrics"
	obstracing "github.com/smallbiznis/flightsurety/internal/observability/tracing"
	"github.com/smallbiznis/flightsurety/internal/ratelimit"
	"github.com/smallbiznis/flightsurety/internal/wallet"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	audit.Module,
	events.Module,
	wallet.Module,
	ledger.Module,
	governance.Module,
	ratelimit.Module,
	callerauth.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	store      ledgerdomain.Service
	governance governancedomain.Service
	walletSvc  walletdomain.Service
	auditSvc   auditdomain.Service
	hub        *events.Hub
	limiter    *ratelimit.CallerLimiter
	verifier   *callerauth.Verifier
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Store      ledgerdomain.Service
	Governance governancedomain.Service
	WalletSvc  walletdomain.Service
	AuditSvc   auditdomain.Service
	Hub        *events.Hub
	Verifier   *callerauth.Verifier
	Limiter    *ratelimit.CallerLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		store:      p.Store,
		governance: p.Governance,
		walletSvc:  p.WalletSvc,
		auditSvc:   p.AuditSvc,
		hub:        p.Hub,
		limiter:    p.Limiter,
		verifier:   p.Verifier,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")
	api.Use(s.CallerContext())

	mutate := []gin.HandlerFunc{s.CallerRequired(), s.CallerRateLimit()}
	with := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutate...), h)
	}

	// -------- Contract --------
	api.GET("/operational", s.GetOperatingStatus)
	api.PUT("/operational", with(s.SetOperatingStatus)...)

	// -------- Authorized callers --------
	api.GET("/callers/:address", s.IsAuthorizedCaller)
	api.POST("/callers/:address", with(s.AuthorizeCaller)...)
	api.DELETE("/callers/:address", with(s.DeauthorizeCaller)...)

	// -------- Airlines --------
	api.POST("/airlines", with(s.RegisterAirline)...)
	api.GET("/airlines/:address", s.GetAirline)
	api.POST("/airlines/:address/fund", with(s.FundAirline)...)
	api.GET("/airlines/:address/funds", s.CheckFunds)
	api.DELETE("/airlines/:address/funding", with(s.ResetAirlineFunding)...)
	api.GET("/funded-airlines", s.ListFundedAirlines)
	api.GET("/multisig", s.ListMultiSigAirlines)

	// -------- Votes --------
	api.GET("/votes/:candidate", s.ListVotes)
	api.DELETE("/votes/:candidate", with(s.ResetVotes)...)

	// -------- Insurance --------
	api.POST("/insurance", with(s.BuyInsurance)...)
	api.GET("/insurance/:beneficiary", s.GetInsurance)
	api.POST("/insurance/:beneficiary/credit", with(s.CreditInsurees)...)
	api.GET("/insurance/:beneficiary/credit", s.GetPendingCredit)
	api.POST("/payouts", with(s.Pay)...)

	// -------- Flights --------
	api.POST("/flights", with(s.RegisterFlight)...)
	api.GET("/flights/:key", s.GetFlight)
	api.PUT("/flights/:key/status", with(s.SetFlightStatus)...)
	api.GET("/flight-keys", s.DeriveFlightKey)

	// -------- Events --------
	api.GET("/events", s.ListEvents)
	api.GET("/events/stream", s.StreamEventsWS)
	api.GET("/events/live", s.StreamEventsSSE)

	// -------- Wallets --------
	api.GET("/wallets/:address", s.GetWallet)
	api.GET("/wallets/:address/transfers", s.ListWalletTransfers)
	if s.cfg.DevFaucetEnabled && !s.cfg.IsProduction() {
		api.POST("/wallets/:address/deposit", s.CallerRateLimit(), s.Deposit)
	}

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
