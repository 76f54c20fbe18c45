package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mcclellann/moneymap/pkg/auth"
	"github.com/mcclellann/moneymap/pkg/config"
	"github.com/mcclellann/moneymap/pkg/ledger"
	"github.com/mcclellann/moneymap/pkg/logger"
	"github.com/mcclellann/moneymap/pkg/store"
)

// Server holds the services behind the HTTP API.
type Server struct {
	ledger   *ledger.Ledger
	auth     *auth.Service
	storage  store.Storage
	cookie   config.AuthConfig
	validate *validator.Validate
}

func NewServer(s store.Storage, authService *auth.Service, authCfg config.AuthConfig, opts ...ledger.Option) *Server {
	return &Server{
		ledger:   ledger.NewLedger(s, opts...),
		auth:     authService,
		storage:  s,
		cookie:   authCfg,
		validate: validator.New(),
	}
}

// Router wires every route. Everything except registration, login and the health probe
// requires a session.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, accessLogMiddleware)

	router.HandleFunc("/healthz", s.healthHandler).Methods("GET")
	router.HandleFunc("/register", s.registerHandler).Methods("POST")
	router.HandleFunc("/login", s.loginHandler).Methods("POST")

	api := router.NewRoute().Subrouter()
	api.Use(auth.Middleware(s.auth, s.cookie.CookieName))

	api.HandleFunc("/logout", s.logoutHandler).Methods("POST")
	api.HandleFunc("/change-password", s.changePasswordHandler).Methods("POST")
	api.HandleFunc("/profile", s.profileHandler).Methods("GET")

	api.HandleFunc("/categories", s.listCategoriesHandler).Methods("GET")
	api.HandleFunc("/budgets", s.listBudgetsHandler).Methods("GET")
	api.HandleFunc("/transactions", s.listTransactionsHandler).Methods("GET")

	api.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	api.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	api.HandleFunc("/emi-calc", s.createLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	api.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	api.HandleFunc("/loans/{id}/payments", s.listPaymentsHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/pay", s.recordPaymentHandler).Methods("POST")

	return router
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug(r.Context(), "request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type okResponse struct {
	Status string     `json:"status"`
	ID     *uuid.UUID `json:"id,omitempty"`
}

func okBody(id *uuid.UUID) okResponse {
	return okResponse{Status: "ok", ID: id}
}

// writeError maps domain errors to status codes. Unexpected errors are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	msg := err.Error()

	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrIncorrectPassword):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, store.ErrNotFound.Error()
	case errors.Is(err, store.ErrUserNotFound):
		status, msg = http.StatusNotFound, store.ErrUserNotFound.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, auth.ErrUnauthenticated.Error()
	case errors.Is(err, store.ErrEmailTaken):
		status = http.StatusConflict
	default:
		logger.Error(r.Context(), "request failed", err,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		status, msg = http.StatusInternalServerError, "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// decode reads a JSON body into dst and runs its validate tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		badRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// pathID parses the {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		badRequest(w, "invalid loan id")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated caller. The auth middleware guarantees presence.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, auth.ErrUnauthenticated)
	}
	return id, ok
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		logger.Error(r.Context(), "health check failed", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
