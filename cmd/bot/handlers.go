package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/analysis"
	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/discovery"
	"github.com/prodsense/social-sensing-bot/internal/ingestion"
	"github.com/prodsense/social-sensing-bot/internal/models"
	"github.com/prodsense/social-sensing-bot/internal/store"
	"github.com/prodsense/social-sensing-bot/internal/vector"
)

type apiServer struct {
	config    *config.Config
	discovery *discovery.Service
	ingestion *ingestion.Service
	analysis  *analysis.Service
	store     store.Store
	vector    *vector.WeaviateClient
}

type productRequest struct {
	Products   []string `json:"products"`
	Sources    []string `json:"sources"`
	Subreddits []string `json:"subreddits"`
}

type ingestResponse struct {
	Status   string   `json:"status"`
	Products []string `json:"products"`
	Ingested int      `json:"ingested"`
	Failed   int      `json:"failed"`
}

type commentsResponse struct {
	Comments []models.Comment `json:"comments"`
	Count    int              `json:"count"`
}

type questionRequest struct {
	Question string `json:"question"`
	Limit    int    `json:"limit"`
}

func (a *apiServer) discoverHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	products := cleanProducts(req.Products)
	if len(products) == 0 {
		writeError(w, http.StatusBadRequest, "at least one product required")
		return
	}

	result, err := a.discovery.Discover(r.Context(), products)
	if err != nil {
		logrus.Errorf("Discovery failed: %v", err)
		writeError(w, http.StatusBadGateway, "discovery failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ingestHandler accepts {"products": [...]} (or the legacy "sources" key) and
// optional explicit "subreddits". An omitted, invalid or empty body falls
// back to the configured default products.
func (a *apiServer) ingestHandler(w http.ResponseWriter, r *http.Request) {
	products := a.config.DefaultProducts
	var subreddits []string

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		requested := req.Products
		if len(requested) == 0 {
			requested = req.Sources
		}
		if cleaned := cleanProducts(requested); len(cleaned) > 0 {
			products = cleaned
		}
		subreddits = cleanProducts(req.Subreddits)
	}

	logrus.Infof("/ingest resolved products: %v", products)
	summary := a.ingestion.RunOnce(r.Context(), products, subreddits)

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:   "completed",
		Products: products,
		Ingested: summary.Ingested,
		Failed:   summary.Failed,
	})
}

func (a *apiServer) commentsHandler(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product_name")
	limit := queryInt(r, "limit", 100)

	comments, err := a.store.GetComments(r.Context(), product, limit)
	if err != nil {
		logrus.Errorf("Failed to get comments: %v", err)
		writeError(w, http.StatusBadGateway, "failed to get comments")
		return
	}
	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments, Count: len(comments)})
}

func (a *apiServer) recentCommentsHandler(w http.ResponseWriter, r *http.Request) {
	comments, err := a.store.GetRecentComments(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		logrus.Errorf("Failed to get recent comments: %v", err)
		writeError(w, http.StatusBadGateway, "failed to get comments")
		return
	}
	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments, Count: len(comments)})
}

func (a *apiServer) commentsByBrandHandler(w http.ResponseWriter, r *http.Request) {
	brand := mux.Vars(r)["brand"]
	comments, err := a.store.GetCommentsByBrand(r.Context(), brand, queryInt(r, "limit", 100))
	if err != nil {
		logrus.Errorf("Failed to get comments for brand '%s': %v", brand, err)
		writeError(w, http.StatusBadGateway, "failed to get comments")
		return
	}
	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments, Count: len(comments)})
}

func (a *apiServer) analyseHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", a.config.AnalysisLimit)
	unanalyzedOnly := r.URL.Query().Get("unanalyzed_only") == "true"

	summary := a.analysis.Analyze(r.Context(), limit, unanalyzedOnly)
	writeJSON(w, http.StatusOK, summary)
}

func (a *apiServer) qaAskHandler(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.Limit < 1 {
		req.Limit = 5
	}

	writeJSON(w, http.StatusOK, a.vector.AnswerQuestion(r.Context(), req.Question, req.Limit))
}

func (a *apiServer) qaSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	items := a.vector.SearchComments(
		r.Context(),
		query,
		queryInt(r, "limit", 10),
		r.URL.Query().Get("brand_name"),
		r.URL.Query().Get("product_name"),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":    query,
		"comments": items,
		"count":    len(items),
	})
}

// qaSyncHandler mirrors recently stored comments into the vector store.
func (a *apiServer) qaSyncHandler(w http.ResponseWriter, r *http.Request) {
	comments, err := a.store.GetRecentComments(r.Context(), queryInt(r, "limit", 1000))
	if err != nil {
		logrus.Errorf("Failed to read comments for sync: %v", err)
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}
	if len(comments) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "no_data", "synced_count": 0, "total_count": 0})
		return
	}

	synced := a.vector.AddCommentsBatch(r.Context(), comments)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"synced_count": synced,
		"total_count":  len(comments),
	})
}

func (a *apiServer) qaStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.vector.GetStats(r.Context()))
}

func cleanProducts(products []string) []string {
	var out []string
	for _, p := range products {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
