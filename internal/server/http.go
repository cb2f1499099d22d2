package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/table"
	"github.com/karupanerura/formula-processor/internal/types"
)

const (
	evaluatePath  = "/v1/formulas:evaluate"
	tablePath     = "/v1/table"
	functionsPath = "/v1/functions"

	defaultReloadInterval = 5 * time.Second
	maxRequestBodyBytes   = 1 << 20
)

type Config struct {
	// Loader reads the table; it is called once up front and then on every
	// reload tick.
	Loader         func() (*table.Grid, error)
	Registry       *formula.Registry
	Logger         *slog.Logger
	ReloadInterval time.Duration
}

type evaluateRequest struct {
	Formulas []string `json:"formulas"`
}

type evaluateResult struct {
	Formula string        `json:"formula"`
	Value   formula.Value `json:"value"`
	Error   any           `json:"error,omitempty"`
}

type httpHandler struct {
	grid     atomic.Value // *table.Grid, recalculated
	registry *formula.Registry
	logger   *slog.Logger
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case evaluatePath:
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.evaluate(w, r)

	case tablePath:
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.respond(w, r, http.StatusOK, h.currentGrid().Document())

	case functionsPath:
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.respond(w, r, http.StatusOK, map[string][]string{"functions": h.registry.Names()})

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read request body", slog.Any("error", err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req evaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request body", slog.Any("error", err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	results, err := formula.EvaluateAll(r.Context(), req.Formulas, h.currentGrid(), h.registry)
	if err != nil {
		h.logger.WarnContext(r.Context(), "evaluation aborted", slog.Any("error", err))
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	res := make([]evaluateResult, len(results))
	for i, result := range results {
		res[i] = evaluateResult{
			Formula: result.Source,
			Value:   result.Value,
		}
		if result.Err != nil {
			res[i].Error = exceptionOf(result.Err)
		}
	}
	h.respond(w, r, http.StatusOK, map[string][]evaluateResult{"results": res})
}

func exceptionOf(err error) any {
	var exception types.Exception
	if errors.As(err, &exception) {
		o := exception.Exception()
		if m, ok := o.(map[string]any); ok {
			m["message"] = err.Error()
		}
		return o
	}
	return map[string]any{"message": err.Error()}
}

func (h *httpHandler) currentGrid() *table.Grid {
	return h.grid.Load().(*table.Grid)
}

func (h *httpHandler) load(ctx context.Context, loader func() (*table.Grid, error)) error {
	g, err := loader()
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}

	recalculated, err := g.Recalculate(ctx, h.registry)
	if err != nil {
		return err
	}
	h.grid.Store(recalculated)
	return nil
}

// NewHTTPHandler serves formula evaluation against the table given by
// config.Loader, reloading it periodically until ctx is done.
func NewHTTPHandler(ctx context.Context, config Config) (http.Handler, error) {
	h := &httpHandler{
		registry: config.Registry,
		logger:   config.Logger,
	}
	if h.registry == nil {
		h.registry = formula.DefaultRegistry
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if err := h.load(ctx, config.Loader); err != nil {
		return nil, err
	}

	interval := config.ReloadInterval
	if interval <= 0 {
		interval = defaultReloadInterval
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := h.load(ctx, config.Loader); err != nil {
					h.logger.ErrorContext(ctx, "failed to reload table", slog.Any("error", err))
				}
			}
		}
	}()
	return h, nil
}

func (h *httpHandler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := resJSON(w, status, v); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", slog.Any("error", err))
	}
}

func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
