package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/db"
	"vigil.fyi/riskradar/internal/globaltime"
	"vigil.fyi/riskradar/internal/scanner"
	"vigil.fyi/riskradar/internal/store"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server exposes the pipeline operations over HTTP for operators and cron
// triggers. Tenancy rides in the path: every route is scoped to one
// organization.
type Server struct {
	pool    *db.Pool
	service *scanner.Service
	logger  zerolog.Logger
	opts    Options
}

func NewServer(pool *db.Pool, service *scanner.Service, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8085
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	// Scan runs block the request while feeds fetch and the model answers.
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:    pool,
		service: service,
		logger:  logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil || s.service == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)

	orgs := api.Group("/orgs/:org_id")
	orgs.POST("/scan", s.handleScan)
	orgs.POST("/analyze", s.handleAnalyze)
	orgs.POST("/reset-analysis", s.handleResetAnalysis)
	orgs.POST("/purge", s.handlePurge)
	orgs.POST("/test-alert", s.handleTestAlert)
	orgs.GET("/runs", s.handleRuns)
	orgs.GET("/settings", s.handleGetSettings)
	orgs.PUT("/settings", s.handlePutSettings)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("riskradar api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("riskradar api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.DB().PingContext(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check database ping failed")
		return internalError(c, "Database unavailable")
	}
	return success(c, map[string]any{
		"service": "riskradar",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleScan(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	summary, err := s.service.RunFullScan(c.Request().Context(), organizationID, "api")
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("scan run failed")
		return internalError(c, "Scan run failed")
	}

	return successWithStatus(c, http.StatusOK, map[string]any{
		"run_uuid":        summary.RunUUID,
		"status":          summary.Status,
		"feeds_processed": summary.FeedsProcessed,
		"items_stored":    summary.ItemsStored,
		"items_filtered":  summary.ItemsFiltered,
		"items_duplicate": summary.ItemsDuplicate,
		"events_analyzed": summary.EventsAnalyzed,
		"alerts_created":  summary.AlertsCreated,
		"source_errors":   summary.SourceErrors,
	})
}

type analyzeRequest struct {
	MaxBatch int `json:"max_batch"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}
	if req.MaxBatch < 0 {
		return failValidation(c, map[string]string{"max_batch": "must be positive"})
	}

	eventsAnalyzed, alertsCreated, err := s.service.AnalyzeBacklog(c.Request().Context(), organizationID, req.MaxBatch)
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("backlog analysis failed")
		return internalError(c, "Backlog analysis failed")
	}

	return success(c, map[string]any{
		"events_analyzed": eventsAnalyzed,
		"alerts_created":  alertsCreated,
	})
}

type resetAnalysisRequest struct {
	Category string `json:"category"`
	Since    string `json:"since"`
}

func (s *Server) handleResetAnalysis(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	var req resetAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}

	filter := store.ResetFilter{Category: req.Category}
	if since := strings.TrimSpace(req.Since); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return failValidation(c, map[string]string{"since": "must be RFC3339"})
		}
		utc := ts.UTC()
		filter.Since = &utc
	}

	resetCount, err := s.service.ResetAnalysis(c.Request().Context(), organizationID, filter)
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("reset analysis failed")
		return internalError(c, "Reset analysis failed")
	}

	return success(c, map[string]any{
		"events_reset": resetCount,
	})
}

type purgeRequest struct {
	Scope         string `json:"scope"`
	CascadeAlerts bool   `json:"cascade_alerts"`
}

func (s *Server) handlePurge(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	var req purgeRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}

	scope, err := store.ParsePurgeScope(req.Scope)
	if err != nil {
		return failValidation(c, map[string]string{"scope": err.Error()})
	}

	eventsDeleted, alertsDeleted, err := s.service.PurgeEvents(c.Request().Context(), organizationID, scope, req.CascadeAlerts)
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("purge failed")
		return internalError(c, "Purge failed")
	}

	return success(c, map[string]any{
		"events_deleted": eventsDeleted,
		"alerts_deleted": alertsDeleted,
	})
}

type testAlertRequest struct {
	RiskCode string `json:"risk_code"`
}

func (s *Server) handleTestAlert(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	var req testAlertRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}
	if strings.TrimSpace(req.RiskCode) == "" {
		return failValidation(c, map[string]string{"risk_code": "is required"})
	}

	alertID, alertUUID, err := s.service.CreateTestAlert(c.Request().Context(), organizationID, req.RiskCode)
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("test alert failed")
		return internalError(c, "Test alert failed")
	}

	return successWithStatus(c, http.StatusCreated, map[string]any{
		"alert_id":   alertID,
		"alert_uuid": alertUUID,
	})
}

func (s *Server) handleRuns(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultRunsLimit, 1, maxRunsLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	runs, err := s.service.ListRuns(c.Request().Context(), organizationID, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("list runs failed")
		return internalError(c, "Failed to load runs")
	}

	return success(c, map[string]any{
		"items": runs,
		"limit": limit,
	})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	settings, err := s.service.Settings(c.Request().Context(), organizationID)
	if err != nil {
		s.logger.Error().Err(err).Int64("organization_id", organizationID).Msg("load settings failed")
		return internalError(c, "Failed to load settings")
	}

	return success(c, map[string]any{
		"scanner_mode":   settings.ScannerMode,
		"min_confidence": settings.MinConfidence,
		"lookback_days":  settings.LookbackDays,
	})
}

type settingsRequest struct {
	ScannerMode   string  `json:"scanner_mode"`
	MinConfidence float64 `json:"min_confidence"`
	LookbackDays  int     `json:"lookback_days"`
}

func (s *Server) handlePutSettings(c echo.Context) error {
	organizationID, err := parseOrgID(c)
	if err != nil {
		return failValidation(c, map[string]string{"org_id": err.Error()})
	}

	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}

	settings := db.OrgScanSettings{
		ScannerMode:   strings.TrimSpace(strings.ToLower(req.ScannerMode)),
		MinConfidence: req.MinConfidence,
		LookbackDays:  req.LookbackDays,
	}
	if err := s.service.UpdateSettings(c.Request().Context(), organizationID, settings); err != nil {
		return failValidation(c, map[string]string{"settings": err.Error()})
	}

	return success(c, map[string]any{
		"scanner_mode":   settings.ScannerMode,
		"min_confidence": settings.MinConfidence,
		"lookback_days":  settings.LookbackDays,
	})
}

func parseOrgID(c echo.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("org_id"))
	if raw == "" {
		return 0, fmt.Errorf("is required")
	}
	organizationID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || organizationID <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return organizationID, nil
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
