package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bellezapp/discovery-cli/internal/discovery"
	"github.com/bellezapp/discovery-cli/internal/model"
	"github.com/bellezapp/discovery-cli/internal/outreach"
	"github.com/bellezapp/discovery-cli/pkg/identity"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("identity"); err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		templates, err := loadTemplates()
		if err != nil {
			return err
		}
		dispatcher := buildDispatcher(store)
		ident := identity.NewClient(cfg.Identity.BaseURL)

		api := &apiServer{
			store:      store,
			dispatcher: dispatcher,
			templates:  templates,
			identity:   ident,
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))

		r.Get("/health", api.handleHealth)
		r.Route("/v1", func(r chi.Router) {
			r.Get("/salons/rank", api.handleRank)
			r.Post("/salons/{id}/interest", api.handleInterest)
			r.Post("/salons/{id}/status", api.handleStatus)
			r.Post("/outreach/sweep", api.handleSweep)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			gracefulShutdown(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// shutdownTimeout bounds the drain window after a stop signal.
const shutdownTimeout = 10 * time.Second

// gracefulShutdown drains in-flight requests on a fresh context; the
// signal context is already cancelled by the time shutdown starts, so
// passing it through would close connections immediately.
func gracefulShutdown(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

type apiServer struct {
	store      discovery.Store
	dispatcher *outreach.Dispatcher
	templates  *outreach.Templates
	identity   identity.Client
}

func (a *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleRank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	params := discovery.RankParams{
		Latitude:   lat,
		Longitude:  lng,
		RadiusKM:   cfg.Ranking.DefaultRadiusKM,
		MaxResults: cfg.Ranking.DefaultMaxResults,
		Query:      q.Get("q"),
	}
	if v, err := strconv.ParseFloat(q.Get("radius_km"), 64); err == nil && v > 0 {
		params.RadiusKM = v
	}
	if v, err := strconv.Atoi(q.Get("max_results")); err == nil && v > 0 {
		params.MaxResults = v
	}

	ranked, err := discovery.Rank(r.Context(), a.store, params)
	if err != nil {
		zap.L().Error("rank query failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "ranking temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, ranked)
}

func (a *apiServer) handleInterest(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "id")

	userID, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	if _, err := a.store.GetSalon(r.Context(), salonID); err != nil {
		if eris.Is(err, discovery.ErrNotFound) {
			writeError(w, http.StatusNotFound, "salon not found")
			return
		}
		zap.L().Error("fetch salon failed", zap.String("salon_id", salonID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "temporarily unavailable")
		return
	}

	result, err := outreach.HandleInterest(r.Context(), a.store, a.dispatcher, a.templates, salonID, userID)
	if err != nil {
		zap.L().Error("record interest failed", zap.String("salon_id", salonID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := model.Status(req.Status)
	if !target.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := a.store.UpdateStatus(r.Context(), salonID, target); err != nil {
		switch {
		case eris.Is(err, discovery.ErrNotFound):
			writeError(w, http.StatusNotFound, "salon not found")
		case eris.Is(err, model.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "invalid status transition")
		default:
			zap.L().Error("update status failed", zap.String("salon_id", salonID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "temporarily unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (a *apiServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := outreach.RunSweep(r.Context(), a.store, a.dispatcher, a.templates, outreach.SweepConfig{
		Limit:       cfg.Outreach.SweepLimit,
		Concurrency: cfg.Outreach.SweepConcurrency,
	})
	if err != nil {
		zap.L().Error("sweep failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "sweep failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// authenticate resolves the bearer token to a user id, writing the error
// response itself when the credential is missing or rejected.
func (a *apiServer) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		writeError(w, http.StatusUnauthorized, "bearer token required")
		return "", false
	}

	userID, err := a.identity.Verify(r.Context(), token)
	if err != nil {
		if eris.Is(err, identity.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		} else {
			zap.L().Error("identity lookup failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "identity provider unavailable")
		}
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
