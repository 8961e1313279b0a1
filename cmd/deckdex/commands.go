package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/api"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/ingestion"
	"github.com/poiesic/deckdex/reembed"
	"github.com/poiesic/deckdex/search"
	"github.com/poiesic/deckdex/telemetry"
	"github.com/urfave/cli/v2"
)

func serveCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	cfg := lib.Config()
	port := cfg.Server.Port
	if p := c.String("port"); p != "" {
		port = p
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
		Insecure:    cfg.Telemetry.Insecure,
	}, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.GinMode)
	services, err := lib.Services()
	if err != nil {
		return err
	}
	server, err := api.NewServer(services,
		api.WithLogger(slog.Default()),
		api.WithCORSOrigins(cfg.Server.CORSOrigins...),
		api.WithMetrics(metrics),
		api.WithServiceName(cfg.Telemetry.ServiceName),
		api.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)
	if err != nil {
		return err
	}

	return server.Run(ctx, ":"+port)
}

func analyzeCommand(c *cli.Context) error {
	var slides []analysis.SlideText
	if err := readJSONFile(c.String("slides"), &slides); err != nil {
		return err
	}
	if len(slides) == 0 {
		return fmt.Errorf("no slides in %s", c.String("slides"))
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	analyzer, err := lib.Analyzer()
	if err != nil {
		return err
	}

	ctx := c.Context
	metadata, err := analyzer.DeckMetadata(ctx, slides)
	if err != nil {
		return fmt.Errorf("deck metadata: %w", err)
	}
	topics, err := analyzer.SegmentTopics(ctx, slides)
	if err != nil {
		return fmt.Errorf("topic segmentation: %w", err)
	}

	doc := ingestion.Analysis{
		DeckInput: ingestion.DeckInput{
			ExternalFileID: c.String("external-id"),
			SourceURL:      c.String("source-url"),
			Metadata:       *metadata,
		},
		Topics: topics,
	}
	for _, res := range analyzer.LabelSlides(ctx, slides) {
		if res.Err != nil {
			slog.Warn("slide not labeled", "slide", res.Number, "error", res.Err)
			continue
		}
		doc.Slides = append(doc.Slides, ingestion.SlideInput{Number: res.Number, SlideLabel: *res.Label})
	}

	return writeJSON(c.App.Writer, doc)
}

func ingestCommand(c *cli.Context) error {
	var payload ingestion.Payload
	if err := readJSONFile(c.String("payload"), &payload); err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	engine, err := lib.Engine()
	if err != nil {
		return err
	}

	result, err := engine.IngestBatch(c.Context, &payload)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return writeJSON(c.App.Writer, result)
}

func appendCommand(c *cli.Context) error {
	var doc ingestion.Analysis
	if err := readJSONFile(c.String("analysis"), &doc); err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	engine, err := lib.Engine()
	if err != nil {
		return err
	}

	result, err := engine.IngestAnalysis(c.Context, &doc)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return writeJSON(c.App.Writer, result)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}
	limit := c.Int("limit")
	if limit < 1 || limit > api.MaxSearchLimit {
		return fmt.Errorf("limit must be between 1 and %d", api.MaxSearchLimit)
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	searcher, err := lib.Searcher()
	if err != nil {
		return err
	}

	results, err := searcher.SearchWithMonitor(c.Context, query, limit, &logMonitor{logger: slog.Default()})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(w, "%d: [%s] %s: %s [%0.3f]\n", i, hit.Type, hit.DeckTitle, describeHit(hit), hit.Score)
	}
	return nil
}

func describeHit(hit *core.SearchResult) string {
	if hit.Type == core.ResultTypeSlide {
		return fmt.Sprintf("slide %d %q", hit.SlideNumber, hit.Summary)
	}
	return strconv.Quote(hit.Summary)
}

func askCommand(c *cli.Context) error {
	message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if message == "" {
		return fmt.Errorf("a message is required")
	}
	limit := c.Int("limit")
	if limit < 1 || limit > api.MaxChatLimit {
		return fmt.Errorf("limit must be between 1 and %d", api.MaxChatLimit)
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	answerer, err := lib.Answerer()
	if err != nil {
		return err
	}

	answer, err := answerer.Answer(c.Context, message, limit)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, answer.Answer)
	if len(answer.References) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "References:")
		for _, ref := range answer.References {
			if ref.SlideID != 0 {
				fmt.Fprintf(w, "  - %s, slide %d\n", ref.DeckTitle, ref.SlideNumber)
			} else {
				fmt.Fprintf(w, "  - %s, topic %q\n", ref.DeckTitle, ref.TopicTitle)
			}
		}
	}
	return nil
}

func showCommand(c *cli.Context) error {
	id := c.Uint64("id")
	externalID := c.String("external-id")
	if (id == 0) == (externalID == "") {
		return fmt.Errorf("exactly one of --id or --external-id is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	repo, err := lib.Repository()
	if err != nil {
		return err
	}

	ctx := c.Context
	var deck *core.Deck
	if id != 0 {
		deck, err = repo.GetDeck(ctx, core.ID(id))
	} else {
		deck, err = repo.GetDeckByExternalID(ctx, externalID)
	}
	if err != nil {
		return err
	}
	topics, err := repo.GetTopics(ctx, deck.ID)
	if err != nil {
		return err
	}
	slides, err := repo.GetSlides(ctx, deck.ID)
	if err != nil {
		return err
	}

	printDeck(c.App.Writer, deck, topics, slides)
	return nil
}

func printDeck(w io.Writer, deck *core.Deck, topics []*core.Topic, slides []*core.Slide) {
	fmt.Fprintf(w, "Deck %d: %s (%s)\n", deck.ID, deck.Title, deck.ExternalFileID)
	if deck.Summary != "" {
		fmt.Fprintln(w, deck.Summary)
	}
	if len(deck.Themes) > 0 {
		fmt.Fprintf(w, "Themes: %s\n", strings.Join(deck.Themes, ", "))
	}

	fmt.Fprintf(w, "\nTopics (%d):\n", len(topics))
	for _, t := range topics {
		fmt.Fprintf(w, "  %d: %s [%s] slides %v%s\n", t.ID, t.Title, t.StoryContext, t.SlideNumbers, unsearchable(t.Embedding))
	}

	fmt.Fprintf(w, "\nSlides (%d):\n", len(slides))
	for _, s := range slides {
		fmt.Fprintf(w, "  #%d [%s] %s%s\n", s.Number, s.Type, s.Caption, unsearchable(s.Embedding))
	}
}

func unsearchable(embedding []float32) string {
	if embedding == nil {
		return " (no embedding)"
	}
	return ""
}

func statsCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()
	repo, err := lib.Repository()
	if err != nil {
		return err
	}

	counts, err := repo.Counts(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Decks: %d\nTopics: %d\nSlides: %d\n", counts.Decks, counts.Topics, counts.Slides)
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		MissingOnly:    c.Bool("missing-only"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	progress := c.App.ErrWriter
	reembedder, err := lib.NewReembedder(reembedConfig, progress)
	if err != nil {
		return err
	}

	cfg := lib.Config()
	fmt.Fprintf(progress, "Storage: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Driver)
	fmt.Fprintf(progress, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(progress, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(progress)

	result, err := reembedder.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return writeJSON(c.App.Writer, result)
}

// logMonitor reports search stages through the logger.
type logMonitor struct {
	logger *slog.Logger
}

var _ search.SearchMonitor = (*logMonitor)(nil)

func (m *logMonitor) Start(query string, limit int) {
	m.logger.Debug("search started", "query", query, "limit", limit)
}

func (m *logMonitor) Degraded(err error) {
	m.logger.Warn("semantic search unavailable, showing text matches only", "error", err)
}

func (m *logMonitor) AfterLexicalSearch(hits []*core.SearchResult) {
	m.logger.Debug("lexical pass", "hits", len(hits))
}

func (m *logMonitor) AfterSemanticSearch(hits []*core.SearchResult) {
	m.logger.Debug("semantic pass", "hits", len(hits))
}

func (m *logMonitor) Finish(results []*core.SearchResult) {
	m.logger.Debug("search finished", "results", len(results))
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
