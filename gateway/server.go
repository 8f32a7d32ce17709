package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dsclend/crypto"
	"dsclend/native/lending"
)

// Server exposes the protocol's read surface over HTTP. Mutations go through
// the engines directly; the gateway never writes state.
type Server struct {
	engine    *lending.Engine
	liquidity *lending.LiquidityEngine
	logger    *slog.Logger

	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec

	router chi.Router
}

// NewServer builds the HTTP surface over the two engines. A nil logger falls
// back to the process default.
func NewServer(engine *lending.Engine, liquidity *lending.LiquidityEngine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed by the gateway.",
	}, []string{"route", "method", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	registry.MustRegister(requests, durations)

	s := &Server{
		engine:    engine,
		liquidity: liquidity,
		logger:    logger,
		registry:  registry,
		requests:  requests,
		durations: durations,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves the API until the context is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Run(ctx context.Context, listenAddress string) error {
	srv := &http.Server{
		Addr:              listenAddress,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	gatherers := prometheus.Gatherers{s.registry, prometheus.DefaultGatherer}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pool/{asset}", s.getPool)
		r.Get("/price/{asset}", s.getPrice)
		r.Get("/collateral/{user}/{asset}", s.getCollateral)
		r.Get("/debt/{user}/{asset}", s.getDebt)
		r.Get("/liquidity/{user}/{asset}", s.getLiquidity)
		r.Get("/health-factor/{user}/{asset}", s.getHealthFactor)
	})
	return r
}

type poolResponse struct {
	Asset              string `json:"asset"`
	Vault              string `json:"vault"`
	TotalLiquidity     uint64 `json:"totalLiquidity"`
	TotalCollectedFees uint64 `json:"totalCollectedFees"`
	ProtocolReserve    uint64 `json:"protocolReserve"`
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	pool, err := s.engine.PoolOf(asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolResponse{
		Asset:              pool.Asset,
		Vault:              pool.Vault.String(),
		TotalLiquidity:     pool.TotalLiquidity,
		TotalCollectedFees: pool.TotalCollectedFees,
		ProtocolReserve:    pool.ProtocolReserve,
	})
}

func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	price, err := s.engine.PriceOf(asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"asset": asset, "price": price})
}

func (s *Server) getCollateral(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, r)
	if !ok {
		return
	}
	asset := chi.URLParam(r, "asset")
	amount, err := s.engine.CollateralOf(user, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":            user.String(),
		"asset":           asset,
		"depositedAmount": amount,
	})
}

type debtResponse struct {
	User              string `json:"user"`
	PrimaryAsset      string `json:"primaryAsset"`
	BorrowedAmount    uint64 `json:"borrowedAmount"`
	CollateralBalance uint64 `json:"collateralBalance"`
	HealthFactor      uint64 `json:"healthFactor"`
}

func (s *Server) getDebt(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, r)
	if !ok {
		return
	}
	asset := chi.URLParam(r, "asset")
	debt, err := s.engine.DebtOf(user, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if debt == nil {
		writeJSONError(w, http.StatusNotFound, errors.New("no debt position"))
		return
	}
	writeJSON(w, http.StatusOK, debtResponse{
		User:              debt.User.String(),
		PrimaryAsset:      debt.PrimaryAsset,
		BorrowedAmount:    debt.BorrowedAmount,
		CollateralBalance: debt.CollateralBalance,
		HealthFactor:      debt.HealthFactor,
	})
}

func (s *Server) getLiquidity(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, r)
	if !ok {
		return
	}
	asset := chi.URLParam(r, "asset")
	amount, err := s.liquidity.LiquidityOf(user, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":              user.String(),
		"asset":             asset,
		"contributedAmount": amount,
	})
}

func (s *Server) getHealthFactor(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, r)
	if !ok {
		return
	}
	asset := chi.URLParam(r, "asset")
	hf, err := s.engine.HealthFactorOf(user, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user.String(),
		"asset":        asset,
		"healthFactor": hf,
	})
}

func parseUser(w http.ResponseWriter, r *http.Request) (crypto.Address, bool) {
	raw := chi.URLParam(r, "user")
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid address %q: %w", raw, err))
		return crypto.Address{}, false
	}
	return addr, true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lending.ErrAssetNotRegistered):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, lending.ErrAmountZero), errors.Is(err, lending.ErrInvalidPrice):
		writeJSONError(w, http.StatusBadRequest, err)
	default:
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		payload = []byte(`{"error":"internal error"}`)
	}
	_, _ = w.Write(payload)
}
