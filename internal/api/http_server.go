package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bayline/internal/catalog"
	"bayline/internal/config"
	"bayline/internal/domain"
	"bayline/internal/export"
	"bayline/internal/metrics"
	"bayline/internal/models"
	"bayline/internal/schedule"
	"bayline/internal/service"
	"bayline/internal/tools"

	"github.com/rs/zerolog"
)

const maxToolBody = 64 << 10

// HTTPServer exposes the tool contract and the staff-facing projection over
// HTTP. The voice runtime's webhook and the booking form are both clients.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     domain.BookingService
	adapter *tools.Adapter
	catalog *catalog.Catalog
	bays    []models.Bay
	rules   schedule.Rules
	exports config.ExportConfig
	server  *http.Server
	auth    *HTTPAuth
	logger  *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	svc domain.BookingService,
	adapter *tools.Adapter,
	cat *catalog.Catalog,
	bays []models.Bay,
	rules schedule.Rules,
	exports config.ExportConfig,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		adapter: adapter,
		catalog: cat,
		bays:    bays,
		rules:   rules,
		exports: exports,
		auth:    NewHTTPAuth(cfg),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tools/", srv.handleTool)
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/appointments", srv.handleAppointments)
	mux.HandleFunc("/api/v1/appointments/export", srv.handleExport)
	mux.HandleFunc("/api/v1/services", srv.handleServices)
	mux.HandleFunc("/api/v1/bays", srv.handleBays)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the full middleware chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleTool forwards one tool invocation to the adapter. The response is
// always 200 with the adapter's envelope: the webhook transport treats any
// non-2xx as a transport fault it cannot explain to the caller, so even
// tool-level errors travel inside the body.
func (s *HTTPServer) handleTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/tools/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	metrics.IncHTTP("tools/" + name)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxToolBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	envelope := s.adapter.Dispatch(r.Context(), name, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(envelope)
}

// handleAvailability is the booking form's availability check. Unlike the
// tool endpoint it reports request problems with real HTTP statuses.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("availability")

	var body struct {
		Start       string `json:"start"`
		ServiceName string `json:"service_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	verdict, err := s.svc.CheckAvailability(r.Context(), body.Start, body.ServiceName)
	if err != nil {
		writeError(w, statusForServiceError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("bookings")

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appt, err := s.svc.Book(r.Context(), req)
	if err != nil {
		writeJSON(w, statusForServiceError(err), models.BookingResult{
			Status:  models.BookingFailed,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, models.BookingResult{
		Status:        models.BookingConfirmed,
		AppointmentID: appt.ID,
	})
}

func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("appointments")

	from, to, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appts, err := s.svc.ListAppointments(r.Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("list appointments")
		writeError(w, http.StatusBadGateway, "calendar store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":         from,
		"to":           to,
		"appointments": appts,
	})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("appointments/export")

	from, to, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appts, err := s.svc.ListAppointments(r.Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("list appointments for export")
		writeError(w, http.StatusBadGateway, "calendar store unavailable")
		return
	}

	bayNames := make(map[string]string, len(s.bays))
	for _, b := range s.bays {
		bayNames[b.ID] = b.Name
	}

	wb, err := export.Workbook(appts, bayNames, from, to, s.rules.Location)
	if err != nil {
		s.logger.Error().Err(err).Msg("build export workbook")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer wb.Close()

	// Keep a server-side copy for the shop's records when a directory is
	// configured.
	if s.exports.Path != "" {
		if _, err := export.Save(wb, s.exports.Path, from.In(s.rules.Location), to.In(s.rules.Location)); err != nil {
			s.logger.Warn().Err(err).Msg("archive export copy")
		}
	}

	fileName := fmt.Sprintf("appointments_%s_to_%s.xlsx",
		from.In(s.rules.Location).Format("2006-01-02"), to.In(s.rules.Location).Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := wb.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("stream export workbook")
	}
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("services")
	writeJSON(w, http.StatusOK, map[string]any{"services": s.catalog.Services()})
}

func (s *HTTPServer) handleBays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("bays")
	writeJSON(w, http.StatusOK, map[string]any{"bays": s.bays})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseRange reads from/to query parameters. Bare dates are taken at shop
// midnight; an omitted range defaults to the week ahead.
func (s *HTTPServer) parseRange(r *http.Request) (time.Time, time.Time, error) {
	loc := s.rules.Location
	now := time.Now().In(loc)

	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 7)

	var err error
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		if from, err = parseRangeBound(raw, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %v", err)
		}
		to = from.AddDate(0, 0, 7)
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		if to, err = parseRangeBound(raw, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %v", err)
		}
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must be after from")
	}
	return from, to, nil
}

func parseRangeBound(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return schedule.ParseCivil(raw, loc)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// statusForServiceError maps service sentinels onto HTTP statuses for the
// non-tool endpoints.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, service.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
