package public

import (
	"context"
	"github.com/andesco/odata-valet/internal/api_service/metrics"
	"github.com/andesco/odata-valet/internal/api_service/odata"
	"github.com/andesco/odata-valet/internal/api_service/service"
	"github.com/andesco/odata-valet/web"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const feedContentType = "application/atom+xml;type=feed"

var notFoundExamples = []string{
	"/ExchangeRates?currencies=USD&years=5",
	"/ExchangeRates?currencies=USD,EUR&months=6",
	"/ExchangeRates?currencies=USD&weeks=4",
	"/ExchangeRates?currencies=USD&start=2025-01-01&end=2025-12-31",
	"/$metadata?currencies=USD,EUR",
}

// Root serves the OData service document to Atom clients and the URL builder page to everyone else.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	if !wantsServiceDocument(r.Header.Get("Accept")) {
		page, err := web.IndexHTML()
		if err != nil {
			respondError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(page); err != nil {
			slog.Error("Failed to write response", "error", err)
		}
		return
	}

	doc, err := odata.ServiceDocument(s.baseURL(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondXML(w, http.StatusOK, "application/xml", odata.ServiceVersion, doc)
}

func (s *Server) Metadata(w http.ResponseWriter, r *http.Request) {
	codes, err := service.ParseCodes(r.URL.Query().Get("currencies"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	doc, err := odata.Metadata(codes)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondXML(w, http.StatusOK, "application/xml", "", doc)
}

// ExchangeRates answers with the pivoted feed, or an empty feed and 404 when the range has no data.
func (s *Server) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	records, err := s.service.ExchangeRates(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}

	metrics.FeedEntries.Observe(float64(len(records)))

	doc, err := odata.Feed(s.baseURL(r), odata.Columns(q.Codes), records, s.service.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if len(records) == 0 {
		status = http.StatusNotFound
	}

	respondXML(w, status, feedContentType, odata.FeedVersion, doc)
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	code := http.StatusOK

	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp["redis"] = "ok"
		if err := s.pinger.Ping(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			resp["status"] = "degraded"
			resp["redis"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	RespondWithJSON(w, code, resp)
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusNotFound, ErrorResponse{
		Error:    "Not Found",
		Code:     codeNotFound,
		Message:  "Valid endpoints: / (service document), /$metadata, /ExchangeRates?currencies=USD&years=5",
		Examples: notFoundExamples,
	})
}

func wantsServiceDocument(accept string) bool {
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.Contains(accept, "application/atom+xml") ||
		strings.Contains(accept, "application/atomsvc+xml")
}
