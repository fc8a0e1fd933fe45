package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API. Analysis runs asynchronously: POST /analyze
// returns 202 with the run ID, and GET /runs/{id} reports progress.
func newRouter(baseCtx context.Context, env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ContractText string `json:"contract_text"`
			UserEmail    string `json:"user_email"`
			Mode         string `json:"mode"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.ContractText == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "contract_text is required"})
			return
		}
		if body.UserEmail == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_email is required"})
			return
		}
		mode := model.Mode(body.Mode)
		if body.Mode == "" {
			mode = model.ModeCreator
		}
		if !mode.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be legal or creator"})
			return
		}

		// Run analysis asynchronously, detached from the request context.
		go func() {
			if env.Pipeline == nil {
				return
			}
			_, result, err := env.Pipeline.Run(baseCtx, body.ContractText, body.UserEmail, mode)
			if err != nil {
				zap.L().Error("async analysis failed",
					zap.String("user", body.UserEmail),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("async analysis complete",
				zap.String("run_id", result.RunID),
				zap.String("company", result.CompanyName),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"mode":   string(mode),
		})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		limit := 50
		if v := req.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		filter := store.RunFilter{
			Status:    model.RunStatus(req.URL.Query().Get("status")),
			UserEmail: req.URL.Query().Get("email"),
			Limit:     limit,
		}

		runs, err := env.Store.ListRuns(req.Context(), filter)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
