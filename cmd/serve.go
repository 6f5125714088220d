package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/attribution-cli/internal/metrics"
	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/recon"
	"github.com/sells-group/attribution-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reporting and reconciliation API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newAPIRouter(st, cfg.Recon.MaxConcurrent),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newAPIRouter(st store.Store, maxConcurrent int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.NewLimiter(rate.Limit(50), 100)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/metrics", func(w http.ResponseWriter, req *http.Request) {
		leads, err := st.ListMasterLeads(req.Context(), leadFilterFromQuery(req))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, metrics.Calculate(leads))
	})

	r.Get("/api/metrics/by-source", func(w http.ResponseWriter, req *http.Request) {
		leads, err := st.ListMasterLeads(req.Context(), leadFilterFromQuery(req))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, metrics.CalculateBySource(leads))
	})

	r.Get("/api/leads", func(w http.ResponseWriter, req *http.Request) {
		leads, err := st.ListMasterLeads(req.Context(), leadFilterFromQuery(req))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, leads)
	})

	r.Post("/api/reconcile", func(w http.ResponseWriter, req *http.Request) {
		summary, err := recon.New(st, maxConcurrent).Run(req.Context())
		if err != nil {
			zap.L().Error("api reconciliation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		zap.L().Info("api reconciliation complete",
			zap.Int("ad_leads", summary.AdLeads),
			zap.Int("saved", summary.Saved),
		)
		writeJSON(w, http.StatusOK, summary)
	})

	return r
}

func leadFilterFromQuery(req *http.Request) store.LeadFilter {
	q := req.URL.Query()
	filter := store.LeadFilter{
		Source:      model.LeadSource(q.Get("source")),
		ReconStatus: model.ReconStatus(q.Get("status")),
	}
	if from, err := parseDateFlag(q.Get("from")); err == nil {
		filter.From = from
	}
	if to, err := parseDateFlag(q.Get("to")); err == nil {
		filter.To = to
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	return filter
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
