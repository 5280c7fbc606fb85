package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/listinglens/listinglens/internal/audit"
	"github.com/listinglens/listinglens/internal/diag"
	"github.com/listinglens/listinglens/internal/listing"
	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/telemetry"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, typ, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Message: message, Type: typ, Field: field},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed", "")
		return
	}

	org, ok := s.organization(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or unknown api key", "")
		return
	}

	var md listing.Metadata
	if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed metadata JSON: "+err.Error(), "")
		return
	}

	ctx, span := s.tel.Tracer().Start(r.Context(), "audit.evaluate")
	defer span.End()

	start := time.Now()
	res, err := s.engine.Evaluate(ctx, md, org.ID)
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		var verr *listing.ValidationError
		if errors.As(err, &verr) {
			s.tel.RecordAudit("validation_error", md.Platform, org.ID, latency, 0)
			writeError(w, http.StatusBadRequest, "validation_error", verr.Error(), verr.Field)
			return
		}
		s.log.Error("audit evaluation failed", "appId", md.AppID, "err", err.Error())
		s.tel.RecordAudit("error", md.Platform, org.ID, latency, 0)
		writeError(w, http.StatusInternalServerError, "internal_error", "evaluation failed", "")
		return
	}

	span.SetAttributes(auditSpanAttributes(res, org.ID, md)...)
	s.tel.RecordAudit("ok", md.Platform, org.ID, latency, len(res.TopRecommendations))
	s.emitter.Emit(r.Context(), diag.FromResult(res, org.ID, md.Platform, md.Locale, latency))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.log.Warn("failed to write audit response", "err", err.Error())
	}
}

// auditSpanAttributes builds the trace attributes for a completed evaluation.
// Everything goes through the clipping filter so listing text and credentials
// can never ride along on a span.
func auditSpanAttributes(res *audit.Result, orgID string, md listing.Metadata) []attribute.KeyValue {
	return telemetry.SafeAttributes(map[string]interface{}{
		"listinglens.org_id":          orgID,
		"listinglens.platform":        md.Platform,
		"listinglens.locale":          md.Locale,
		"listinglens.risk_level":      res.RiskLevel,
		"listinglens.overall_score":   res.OverallScore,
		"listinglens.recommendations": len(res.TopRecommendations),
	})
}

// handleRuleSet exposes the merged configuration for a context, including
// the inheritance chain and leak warnings. Diagnostics only; no effect on
// scoring.
func (s *Server) handleRuleSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed", "")
		return
	}

	org, ok := s.organization(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or unknown api key", "")
		return
	}

	q := r.URL.Query()
	rctx := ruleset.Context{
		AppID:    q.Get("app"),
		Category: q.Get("category"),
		Locale:   q.Get("locale"),
		OrgID:    org.ID,
	}

	rs, err := s.provider.Resolve(r.Context(), rctx)
	if err != nil {
		s.log.Error("ruleset resolution failed", "appId", rctx.AppID, "err", err.Error())
		writeError(w, http.StatusInternalServerError, "internal_error", "ruleset resolution failed", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rs); err != nil {
		s.log.Warn("failed to write ruleset response", "err", err.Error())
	}
}
