// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"attendance-service/internal/config"
	"attendance-service/internal/db"
	attendanceHandler "attendance-service/internal/handlers/attendance"
	authHandler "attendance-service/internal/handlers/auth"
	dashboardHandler "attendance-service/internal/handlers/dashboard"
	employeeHandler "attendance-service/internal/handlers/employee"
	wsHandler "attendance-service/internal/handlers/websocket"
	"attendance-service/internal/middleware"
	"attendance-service/internal/pkg/jwt"
	"attendance-service/internal/pkg/session"
	"attendance-service/internal/repository/postgres"
	attendanceUsecase "attendance-service/internal/service/attendance"
	authUsecase "attendance-service/internal/service/auth"
	employeeUsecase "attendance-service/internal/service/employee"
	"attendance-service/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer *http.Server
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine, logger: logger}
}

// Start wires dependencies and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	database := postgres.NewDB(pool)
	authRepo := postgres.NewAuthRepository(database)
	employeeRepo := postgres.NewEmployeeRepository(database)
	attendanceRepo := postgres.NewAttendanceRepository(database)

	// ----- WebSocket Hub -----
	hub := ws.NewHub(jwtManager.Verifier, sessionManager, s.logger)
	go hub.Run(ctx)

	// ----- Services -----
	authService := authUsecase.NewAuthService(
		authRepo,
		jwtManager,
		sessionManager,
		rateLimiter,
		hub,
		s.logger,
	)
	employeeService := employeeUsecase.NewEmployeeService(employeeRepo, s.logger)
	attendanceService := attendanceUsecase.NewAttendanceService(
		attendanceRepo,
		employeeRepo,
		hub,
		redisClient,
		s.logger,
	)

	// ----- Super Admin Seed -----
	if s.cfg.SuperAdminUsername != "" {
		if err := authService.EnsureSuperAdminExists(ctx,
			s.cfg.SuperAdminUsername,
			s.cfg.SuperAdminPassword,
			s.cfg.SuperAdminName,
		); err != nil {
			// Startup continues; a missing seed account only blocks first login
			s.logger.Error("failed to seed super admin", zap.Error(err))
		}
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, s.logger)
	employeeHandlerInst := employeeHandler.NewEmployeeHandler(employeeService, s.logger)
	attendanceHandlerInst := attendanceHandler.NewAttendanceHandler(attendanceService, s.logger)
	dashboardHandlerInst := dashboardHandler.NewDashboardHandler(attendanceService, s.logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, s.logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		AuthHandler:       authHandlerInst,
		EmployeeHandler:   employeeHandlerInst,
		AttendanceHandler: attendanceHandlerInst,
		DashboardHandler:  dashboardHandlerInst,
		WSHandler:         wsHandlerInst,
		AuthMiddleware:    authMiddleware,
	})

	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
