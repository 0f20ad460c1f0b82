package graphql

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes ограничивает размер тела POST-запроса.
const maxBodyBytes = 1 << 20

// Handler обслуживает GraphQL по HTTP.
type Handler struct {
	schema *Schema
	logger *log.Entry
}

func NewHandler(schema *Schema, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "graphql-http")
	}
	return &Handler{schema: schema, logger: logger}
}

// RegisterRoutes подключает GET и POST /graphql.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/graphql", h.serveGet)
	r.Post("/graphql", h.servePost)
}

func (h *Handler) serveGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if raw := q.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			respondError(w, http.StatusBadRequest, "Variables are invalid JSON.")
			return
		}
	}
	h.execute(w, r, req)
}

func (h *Handler) servePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req Request
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/graphql":
		req.Query = string(body)
	default:
		if err := json.Unmarshal(body, &req); err != nil {
			h.logger.WithError(err).Debug("invalid graphql request body")
			respondError(w, http.StatusBadRequest, "POST body sent invalid JSON.")
			return
		}
	}
	if req.Query == "" {
		req.Query = r.URL.Query().Get("query")
	}
	h.execute(w, r, req)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, req Request) {
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "Must provide query string.")
		return
	}
	result := h.schema.Execute(r.Context(), req)
	respond(w, http.StatusOK, result)
}

type errorBody struct {
	Errors []errorMessage `json:"errors"`
}

type errorMessage struct {
	Message string `json:"message"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, errorBody{Errors: []errorMessage{{Message: message}}})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
