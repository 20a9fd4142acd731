// Package server hosts the evaluation engine behind a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MTES-MCT/envergo/internal/config"
	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/health"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/hedges/plantation"
	imw "github.com/MTES-MCT/envergo/internal/middleware"
	"github.com/MTES-MCT/envergo/internal/moulinette"
	"github.com/MTES-MCT/envergo/internal/router"
)

// HedgeStore is the full read/write surface of the hedge document store.
type HedgeStore interface {
	hedges.Source
	Put(ctx context.Context, d *hedges.Data) error
}

type Deps struct {
	Engine    *moulinette.Moulinette
	Conf      moulinette.ConfigSource
	Hedges    HedgeStore
	Readiness []func() error
}

// Run sets up http and starts serving until the context is canceled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	r := chi.NewRouter()
	r.Use(imw.Recover())
	r.Use(imw.Logging(logger))
	r.Use(imw.Metrics())
	r.Use(imw.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(deps.Readiness...))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/v1/evaluate", handleEvaluate(cfg, logger, deps.Engine))
	r.Post("/v1/hedges", handleHedges(logger, deps.Hedges))
	r.Post("/v1/plantation", handlePlantation(logger, deps))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

type evaluateResponse struct {
	Evaluation *moulinette.MoulinetteResult `json:"evaluation"`
	Summary    map[string]string            `json:"summary"`
}

func handleEvaluate(cfg config.Config, logger *slog.Logger, engine *moulinette.Moulinette) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		params, kind, at, err := router.ParseEvaluateRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		ctx, cancel := context.WithTimeout(req.Context(), cfg.TimeoutFor(string(kind)))
		defer cancel()

		res, err := engine.Evaluate(ctx, params, kind, at)
		if err != nil {
			var inv *moulinette.InvalidInputError
			if errors.As(err, &inv) {
				writeError(w, http.StatusBadRequest, "invalid input", inv.FieldErrors)
				return
			}
			logger.Error("evaluate failed", "err", err)
			writeError(w, http.StatusInternalServerError, "evaluation failed", nil)
			return
		}
		writeJSON(w, http.StatusOK, evaluateResponse{Evaluation: res, Summary: res.Summary()})
	}
}

func handleHedges(logger *slog.Logger, store HedgeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		d, err := router.ParseHedgesRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		if err := store.Put(req.Context(), d); err != nil {
			logger.Error("hedge store put failed", "err", err)
			writeError(w, http.StatusInternalServerError, "could not store hedge set", nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": d.ID()})
	}
}

func handlePlantation(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		call, err := router.ParsePlantationRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		data := call.Data
		if data == nil {
			data, err = deps.Hedges.Get(req.Context(), call.HaieID)
			if errors.Is(err, hedges.ErrNotFound) {
				writeError(w, http.StatusNotFound, "unknown haie_id", nil)
				return
			}
			if err != nil {
				logger.Error("hedge store get failed", "err", err)
				writeError(w, http.StatusInternalServerError, "could not load hedge set", nil)
				return
			}
		}

		entry, err := deps.Conf.GetConfig(req.Context(), call.Department, confstore.KindHaie, call.At)
		if err != nil {
			logger.Error("config lookup failed", "err", err)
			writeError(w, http.StatusInternalServerError, "configuration unavailable", nil)
			return
		}
		if entry == nil || !entry.Activated {
			writeError(w, http.StatusConflict, "no active haie configuration for department "+call.Department, nil)
			return
		}

		result := plantation.New(replantationRules(req.Context(), deps.Conf, entry, call.At)).Evaluate(data)
		writeJSON(w, http.StatusOK, result)
	}
}

// replantationRules merges the department plantation policy with the
// replantation coefficients carried by the active ep and bcae8 criterion
// settings. The strictest coefficient wins; bcae8 implies at least 1.
func replantationRules(ctx context.Context, conf moulinette.ConfigSource, entry *confstore.ConfigEntry, at time.Time) confstore.PlantationRules {
	rules := entry.Plantation
	for _, reg := range entry.Regulations {
		var def float64
		switch reg {
		case moulinette.RegEspecesProtegees:
			def = 0
		case moulinette.RegConditionnalitePAC:
			def = 1
		default:
			continue
		}
		crits, err := conf.ListCriteria(ctx, reg, entry.Department, at)
		if err != nil || len(crits) == 0 {
			continue
		}
		if r := crits[0].Settings.Float("replantation_coefficient", def); r > rules.ReplantationCoefficient {
			rules.ReplantationCoefficient = r
		}
	}
	return rules
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, errorBody{Error: msg, Fields: fields})
}
