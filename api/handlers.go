package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/ingestion"
	"github.com/poiesic/deckdex/search"
)

// Query limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	DefaultChatLimit   = 10
	MaxChatLimit       = 20
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
}

func (s *Server) ingest(c *gin.Context) {
	var payload ingestion.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload: "+err.Error())
		return
	}

	result, err := s.services.Ingester.IngestBatch(c.Request.Context(), &payload)
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordIngest(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"deckId":         result.DeckID,
		"externalFileId": result.ExternalFileID,
	})
}

func (s *Server) deckByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "deck id must be a positive integer")
		return
	}

	deck, err := s.services.Decks.GetDeck(c.Request.Context(), core.ID(id))
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	s.writeDeck(c, deck)
}

func (s *Server) deckByExternalID(c *gin.Context) {
	deck, err := s.services.Decks.GetDeckByExternalID(c.Request.Context(), c.Param("externalFileId"))
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	s.writeDeck(c, deck)
}

func (s *Server) writeDeck(c *gin.Context, deck *core.Deck) {
	ctx := c.Request.Context()
	topics, err := s.services.Decks.GetTopics(ctx, deck.ID)
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	slides, err := s.services.Decks.GetSlides(ctx, deck.ID)
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, newDeckDetail(deck, topics, slides))
}

func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "query parameter q is required")
		return
	}

	limit := DefaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSearchLimit {
			badRequest(c, "limit must be an integer between 1 and "+strconv.Itoa(MaxSearchLimit))
			return
		}
		limit = n
	}

	var monitor search.SearchMonitor
	if s.metrics != nil {
		monitor = degradedCounter{ctx: c.Request.Context(), metrics: s.metrics}
	}
	results, err := s.services.Searcher.SearchWithMonitor(c.Request.Context(), query, limit, monitor)
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": orEmpty(results)})
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}

	limit := DefaultChatLimit
	if req.Limit != nil {
		limit = min(max(*req.Limit, 1), MaxChatLimit)
	}

	answer, err := s.services.Answerer.Answer(c.Request.Context(), req.Message, limit)
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if len(req.Slides) == 0 {
		badRequest(c, "slides are required")
		return
	}

	ctx := c.Request.Context()
	metadata, err := s.services.Analyzer.DeckMetadata(ctx, req.Slides)
	if err != nil {
		abort(c, s.logger, err)
		return
	}
	topics, err := s.services.Analyzer.SegmentTopics(ctx, req.Slides)
	if err != nil {
		abort(c, s.logger, err)
		return
	}

	labels := s.services.Analyzer.LabelSlides(ctx, req.Slides)
	views := make([]slideLabelView, len(labels))
	for i, res := range labels {
		views[i] = slideLabelView{Number: res.Number, Label: res.Label}
		if res.Err != nil {
			views[i].Error = res.Err.Error()
		}
	}

	c.JSON(http.StatusOK, analyzeResponse{
		Metadata: metadata,
		Topics:   orEmpty(topics),
		Slides:   views,
	})
}
