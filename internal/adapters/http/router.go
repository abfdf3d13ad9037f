// Package httpadapter exposes the case API over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reportaway/reportaway/internal/core/domain"
	"github.com/reportaway/reportaway/internal/core/ports"
	"github.com/reportaway/reportaway/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cases    ports.CaseService
	uploader ports.TicketUploader
	chat     ports.CaseChat
	metrics  *metrics.HTTPServerMetrics
	limiter  *rateLimiter
}

type RouterOptions struct {
	Metrics            *metrics.HTTPServerMetrics
	RateLimitPerSecond float64
	RateLimitBurst     int
}

func NewRouter(cases ports.CaseService, uploader ports.TicketUploader, chat ports.CaseChat, options RouterOptions) *Router {
	return &Router{
		cases:    cases,
		uploader: uploader,
		chat:     chat,
		metrics:  options.Metrics,
		limiter:  newRateLimiter(options.RateLimitPerSecond, options.RateLimitBurst),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/cases", rt.casesCollection)
	mux.HandleFunc("/v1/cases/", rt.caseSubtree)

	var handler http.Handler = mux
	handler = rt.limiter.middleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) casesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.createCase(w, r)
	case http.MethodGet:
		rt.listCases(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// caseSubtree dispatches /v1/cases/{id} and its nested resources.
func (rt *Router) caseSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/cases/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "case id is required"})
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			rt.getCase(w, r, id)
		case http.MethodDelete:
			rt.deleteCase(w, r, id)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}
	case "tickets":
		rt.requireMethod(w, r, http.MethodPost, func() { rt.uploadTicket(w, r, id) })
	case "analysis":
		rt.requireMethod(w, r, http.MethodPost, func() { rt.requestAnalysis(w, r, id) })
	case "facts":
		rt.requireMethod(w, r, http.MethodPut, func() { rt.replaceFacts(w, r, id) })
	case "chat":
		rt.requireMethod(w, r, http.MethodPost, func() { rt.sendChat(w, r, id) })
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) requireMethod(w http.ResponseWriter, r *http.Request, method string, next func()) {
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	next()
}

func (rt *Router) createCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	c, err := rt.cases.Create(r.Context(), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (rt *Router) listCases(w http.ResponseWriter, r *http.Request) {
	cases, err := rt.cases.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cases == nil {
		cases = []domain.Case{}
	}
	writeJSON(w, http.StatusOK, cases)
}

func (rt *Router) getCase(w http.ResponseWriter, r *http.Request, id string) {
	c, err := rt.cases.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (rt *Router) deleteCase(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.cases.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) uploadTicket(w http.ResponseWriter, r *http.Request, id string) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	ticket, err := rt.uploader.Upload(
		r.Context(),
		id,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUploadSize(serviceName, fileHeader.Size)
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (rt *Router) requestAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.cases.RequestAnalysis(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAnalysisQueued(serviceName)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (rt *Router) replaceFacts(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Facts map[string]string `json:"facts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.cases.ReplaceFacts(r.Context(), id, req.Facts); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (rt *Router) sendChat(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	reply, err := rt.chat.Send(r.Context(), id, req.Content)
	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(serviceName, err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		logServerError(r, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
