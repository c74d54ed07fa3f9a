package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/theme"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

var errInvalidBody = errors.New("invalid request body")

// Handler serves the calculator session endpoints.
type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// sessionOp performs one operation on a session.
type sessionOp func(ctx context.Context, sess *Session, r *http.Request) (View, error)

// ---------------------------------------------------------------------------
// Handlers: single keys
// ---------------------------------------------------------------------------

// Digit handles POST /calculator/sessions/{id}/digit
func (h *Handler) Digit(w http.ResponseWriter, r *http.Request) {
	h.handleSessionOp(w, r, "digit", func(ctx context.Context, sess *Session, r *http.Request) (View, error) {
		var req DigitRequest
		if err := decodeBody(r, &req); err != nil {
			return View{}, err
		}
		if len(req.Digit) != 1 {
			return View{}, fmt.Errorf("%w: %q", ErrUnknownKey, req.Digit)
		}
		return sess.Digit(ctx, req.Digit[0])
	})
}

// Operator handles POST /calculator/sessions/{id}/operator
func (h *Handler) Operator(w http.ResponseWriter, r *http.Request) {
	h.handleSessionOp(w, r, "operator", func(ctx context.Context, sess *Session, r *http.Request) (View, error) {
		var req OperatorRequest
		if err := decodeBody(r, &req); err != nil {
			return View{}, err
		}
		op, err := calculator.ParseOperator(req.Operator)
		if err != nil {
			return View{}, err
		}
		return sess.Operator(ctx, op)
	})
}

// Equals handles POST /calculator/sessions/{id}/equals
func (h *Handler) Equals(w http.ResponseWriter, r *http.Request) {
	h.handleSessionOp(w, r, "equals", func(ctx context.Context, sess *Session, _ *http.Request) (View, error) {
		return sess.Equals(ctx)
	})
}

// Clear handles POST /calculator/sessions/{id}/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.handleSessionOp(w, r, "clear", func(ctx context.Context, sess *Session, _ *http.Request) (View, error) {
		return sess.Clear(ctx)
	})
}

// ToggleSign handles POST /calculator/sessions/{id}/toggle-sign
func (h *Handler) ToggleSign(w http.ResponseWriter, r *http.Request) {
	h.handleSessionOp(w, r, "toggle_sign", func(ctx context.Context, sess *Session, _ *http.Request) (View, error) {
		return sess.ToggleSign(ctx)
	})
}

// Theme handles PUT /calculator/sessions/{id}/theme
func (h *Handler) Theme(w http.ResponseWriter, r *http.Request) {
	h.handleSessionOp(w, r, "theme", func(ctx context.Context, sess *Session, r *http.Request) (View, error) {
		var req ThemeRequest
		if err := decodeBody(r, &req); err != nil {
			return View{}, err
		}
		if req.Theme == "toggle" {
			return sess.ToggleTheme(ctx)
		}
		t, err := theme.ParseTheme(req.Theme)
		if err != nil {
			return View{}, err
		}
		return sess.SetTheme(ctx, t)
	})
}

// Get handles GET /calculator/sessions/{id}. Reads are not keypresses and
// stay out of the keypress metrics.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	sessionID := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.get",
		trace.WithAttributes(
			attribute.String("calculator.session", sessionID),
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		),
	)
	defer span.End()

	sess, err := h.registry.Get(ctx, sessionID)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "get", "could not open session", err, statusFor(err), w)
		return
	}

	view := sess.View()
	span.SetStatus(codes.Ok, "")
	logger.Debug("calculator session read",
		zap.String("session_id", sess.ID()),
		zap.String("display", view.Display),
	)

	handlers.WriteJSON(w, http.StatusOK, view)
}

// Create handles POST /calculator/sessions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.create",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	sess, err := h.registry.Create(ctx)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "create", "could not create session", err, http.StatusInternalServerError, w)
		return
	}

	span.SetAttributes(attribute.String("calculator.session", sess.ID()))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", sess.ID()),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusCreated, sess.View())
}

// handleSessionOp is the shared implementation of all single-key endpoints:
// child span, session lookup, timed operation, metrics, trace-correlated
// log and JSON response.
func (h *Handler) handleSessionOp(w http.ResponseWriter, r *http.Request, opName string, op sessionOp) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	sessionID := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("calculator.session", sessionID),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	sess, err := h.registry.Get(ctx, sessionID)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "could not open session", err, statusFor(err), w)
		return
	}

	start := time.Now()
	view, err := op(ctx, sess, r)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, statusFor(err), w)
		return
	}

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	keypressCounter.Add(ctx, 1, attrs)
	keypressHistogram.Record(ctx, elapsed, attrs)
	if opName == "equals" || opName == "operator" {
		recordResult(ctx, view, attrs)
	}

	span.AddEvent("keypress.complete", trace.WithAttributes(
		attribute.String("equation", view.Equation),
		attribute.String("display", view.Display),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator key pressed",
		zap.String("operation", opName),
		zap.String("session_id", sess.ID()),
		zap.String("equation", view.Equation),
		zap.String("display", view.Display),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, view)
}

// ---------------------------------------------------------------------------
// Handler: key sequences, one child span per key
// ---------------------------------------------------------------------------

// Keys handles POST /calculator/sessions/{id}/keys. It presses a sequence of
// keys on one session, creating a child span for every key.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	sessionID := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.keys",
		trace.WithAttributes(
			attribute.String("calculator.session", sessionID),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req KeysRequest
	if err := decodeBody(r, &req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	keys, err := ParseKeys(req.Keys)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", err.Error(), err, http.StatusBadRequest, w)
		return
	}
	if len(keys) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "no keys provided", errors.New("keys is empty"), http.StatusBadRequest, w)
		return
	}

	sess, err := h.registry.Get(ctx, sessionID)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "could not open session", err, statusFor(err), w)
		return
	}

	span.SetAttributes(attribute.Int("keys.count", len(keys)))

	view := sess.View()
	steps := make([]KeyResult, 0, len(keys))

	for i, k := range keys {
		// --- Child span per key ---
		stepCtx, stepSpan := tracer.Start(ctx, fmt.Sprintf("calculator.keys.%d.%s", i, k),
			trace.WithAttributes(
				attribute.Int("keys.index", i),
				attribute.String("keys.key", k.String()),
				attribute.String("keys.display_before", view.Display),
			),
		)

		stepStart := time.Now()
		view, err = sess.Press(stepCtx, k)
		stepElapsed := float64(time.Since(stepStart).Microseconds()) / 1000.0

		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
			stepSpan.End()

			observability.RecordError(ctx, span, logger, errorCounter, k.String(), fmt.Sprintf("key %d failed", i), err, statusFor(err), w)
			return
		}

		attrs := metric.WithAttributes(attribute.String("operation", k.String()))
		keypressCounter.Add(ctx, 1, attrs)
		keypressHistogram.Record(ctx, stepElapsed, attrs)
		if k.Kind == KeyEquals || k.Kind == KeyOperator {
			recordResult(ctx, view, attrs)
		}

		stepSpan.SetAttributes(attribute.String("keys.display_after", view.Display))
		stepSpan.SetStatus(codes.Ok, "")
		stepSpan.End()

		logger.Debug("key pressed",
			zap.Int("index", i),
			zap.String("key", k.String()),
			zap.String("display", view.Display),
			zap.Float64("duration_ms", stepElapsed),
		)

		steps = append(steps, KeyResult{
			Key:      k.String(),
			Equation: view.Equation,
			Display:  view.Display,
		})
	}

	span.AddEvent("keys.complete", trace.WithAttributes(
		attribute.String("display", view.Display),
		attribute.Int("total_keys", len(keys)),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator keys pressed",
		zap.String("session_id", sess.ID()),
		zap.Int("keys", len(keys)),
		zap.String("display", view.Display),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, KeysResponse{View: view, Steps: steps})
}

// recordResult publishes the numeric value behind the display when finite.
func recordResult(ctx context.Context, view View, attrs metric.RecordOption) {
	v, err := strconv.ParseFloat(calculator.ToNumeric(view.Display), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	resultGauge.Record(ctx, v, attrs)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, ErrUnknownKey),
		errors.Is(err, ErrInvalidSession),
		errors.Is(err, calculator.ErrUnknownOperator),
		errors.Is(err, theme.ErrUnknownTheme):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
