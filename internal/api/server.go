// Package api exposes the HTTP surface of the verification service.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/config"
	"github.com/echefulouis/drug-verification-system/internal/model"
	"github.com/echefulouis/drug-verification-system/internal/repository"
)

// Verifier runs one verification request through the pipeline.
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*model.VerifyResponse, error)
}

// RecordReader serves the stored-record lookup endpoints.
type RecordReader interface {
	GetByID(ctx context.Context, verificationID string) (*model.VerificationRecord, error)
	ListByRegistrationNumber(ctx context.Context, registrationNumber string, limit int) ([]*model.VerificationRecord, error)
}

// verifyRequest is the inbound JSON payload. The image is base64, optionally
// with a data-URL prefix.
type verifyRequest struct {
	Image              string `json:"image"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
}

// Server hosts the verify endpoint and record lookups.
type Server struct {
	cfg      *config.Config
	verifier Verifier
	records  RecordReader
	logger   *zap.Logger
	server   *http.Server
	once     sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, verifier Verifier, records RecordReader, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		verifier: verifier,
		records:  records,
		logger:   logger,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", s.handleHealth)
		mux.HandleFunc("/verify", s.handleVerify)
		mux.HandleFunc("/verifications", s.handleVerifications)
		mux.HandleFunc("/verifications/", s.handleVerificationByID)
		s.server = &http.Server{
			Addr:    s.cfg.ServerAddr(),
			Handler: corsMiddleware(s.loggingMiddleware(mux)),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", zap.String("addr", s.cfg.ServerAddr()))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, model.NewInvalidInput("invalid JSON body"))
		return
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		s.respondError(w, model.NewInvalidInput("image is not valid base64"))
		return
	}

	resp, err := s.verifier.Verify(r.Context(), model.VerificationRequest{
		Image:              image,
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	number := strings.TrimSpace(r.URL.Query().Get("registrationNumber"))
	if number == "" {
		s.respondError(w, model.NewInvalidInput("registrationNumber query parameter is required"))
		return
	}
	records, err := s.records.ListByRegistrationNumber(r.Context(), number, 20)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if records == nil {
		records = []*model.VerificationRecord{}
	}
	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleVerificationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/verifications/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "verification not found", http.StatusNotFound)
			return
		}
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// decodeImage strips an optional data-URL prefix and decodes the base64
// payload. An empty input decodes to empty bytes; the pipeline rejects that.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if i := strings.IndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	if appErr, ok := model.AsError(err); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case model.ErrCodeInvalidInput:
			status = http.StatusBadRequest
		case model.ErrCodeUpstreamTransport:
			status = http.StatusBadGateway
		}
		s.respondJSON(w, status, appErr)
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
