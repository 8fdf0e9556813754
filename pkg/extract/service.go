// Package extract runs schema-driven extraction over a loaded document:
// cache lookup, relevance reduction, prompt assembly and model invocation.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/xhad/excerpt/internal/models"
	"github.com/xhad/excerpt/internal/types"
	"github.com/xhad/excerpt/pkg/cache"
	"github.com/xhad/excerpt/pkg/logger"
	"github.com/xhad/excerpt/pkg/relevance"
	"github.com/xhad/excerpt/pkg/schema"
)

const (
	DefaultMinDocumentLength = 1000

	// StrategyNone marks documents short enough to be sent whole.
	StrategyNone = "none"

	cacheKeyPrefix = 16
)

var ErrEmptySchema = errors.New("extraction schema has no fields")

type ServiceConfig struct {
	// MinDocumentLength is the length, in characters, above which the
	// document is reduced before it reaches the model.
	MinDocumentLength int
	CacheTTL          time.Duration
	Ranker            relevance.Ranker
	Extractor         types.Extractor
	// Optional collaborators
	Cache        *cache.Cache[models.ExtractionResult]
	TokenCounter types.TokenCounter
}

type Service struct {
	config ServiceConfig
}

func NewWithConfig(config ServiceConfig) (*Service, error) {
	if config.Ranker == nil {
		return nil, errors.New("a relevance ranker is required")
	}
	if config.Extractor == nil {
		return nil, errors.New("an extractor is required")
	}
	if config.MinDocumentLength <= 0 {
		config.MinDocumentLength = DefaultMinDocumentLength
	}
	return &Service{config: config}, nil
}

// Extract fills req.Schema from req.Document. Results are cached by document,
// schema and label; a cached result is returned with Cache.Hit set.
func (s *Service) Extract(ctx context.Context, req models.ExtractionRequest) (models.ExtractionResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := logger.FromContext(ctx).With("request_id", requestID, "label", req.Label)
	ctx = logger.ContextWithLogger(ctx, log)

	node, err := schema.Parse(req.Schema)
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("failed to parse extraction schema: %w", err)
	}
	fields := schema.CountFields(node)
	if fields == 0 {
		return models.ExtractionResult{}, ErrEmptySchema
	}

	schemaJSON, err := node.MarshalJSON()
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("failed to encode extraction schema: %w", err)
	}

	content := req.Document.Content
	key := cache.Key(content, string(schemaJSON), req.Label)

	if s.config.Cache != nil {
		if cached, storedAt, ok := s.config.Cache.Lookup(key); ok {
			cached.Cache = models.CacheInfo{Hit: true, Key: key[:cacheKeyPrefix], CachedAt: &storedAt}
			cached.Performance = performance(start, requestID)
			log.Info("Cache hit", "key", key[:cacheKeyPrefix])
			return cached, nil
		}
	}

	log.Info("Starting extraction", "chars", utf8.RuneCountInString(content), "schema_fields", fields)

	skeleton := schema.Skeleton(node)
	reduced, reduction := s.reduce(ctx, content, skeleton)
	s.countTokens(ctx, content, reduced, &reduction)

	raw, err := s.config.Extractor.Extract(ctx, types.ExtractionPrompt{
		Label:    req.Label,
		Schema:   node.Indent(),
		Skeleton: skeleton.Indent(),
		Content:  reduced,
	})
	if err != nil {
		log.Error("Extraction failed", "error", err)
		return models.ExtractionResult{}, fmt.Errorf("failed to extract data: %w", err)
	}

	result := models.ExtractionResult{
		Data:        json.RawMessage(raw),
		Cache:       models.CacheInfo{Key: key[:cacheKeyPrefix]},
		Performance: performance(start, requestID),
		Document:    models.DocumentInfo{Type: req.Label, SchemaFields: fields},
		Reduction:   reduction,
	}

	if s.config.Cache != nil {
		s.config.Cache.Set(key, result, s.config.CacheTTL)
	}

	log.Info("Extraction completed",
		"seconds", fmt.Sprintf("%.2f", result.Performance.ExecutionTime),
		"response_chars", len(raw))
	return result, nil
}

// Reduce returns the text that would be sent to the model for document and
// the extraction schema in schemaData, without calling the model.
func (s *Service) Reduce(ctx context.Context, document string, schemaData []byte) (string, models.ReductionInfo, error) {
	node, err := schema.Parse(schemaData)
	if err != nil {
		return "", models.ReductionInfo{}, fmt.Errorf("failed to parse extraction schema: %w", err)
	}
	reduced, info := s.reduce(ctx, document, schema.Skeleton(node))
	s.countTokens(ctx, document, reduced, &info)
	return reduced, info, nil
}

func (s *Service) reduce(ctx context.Context, content string, skeleton *schema.Node) (string, models.ReductionInfo) {
	chars := utf8.RuneCountInString(content)
	info := models.ReductionInfo{
		Strategy:      StrategyNone,
		Status:        string(relevance.StatusOK),
		OriginalChars: chars,
		ReducedChars:  chars,
	}
	if chars <= s.config.MinDocumentLength {
		return content, info
	}

	log := logger.FromContext(ctx)
	log.Debug("Starting relevance reduction", "strategy", s.config.Ranker.Name())

	outcome := s.config.Ranker.Rank(ctx, content, skeleton)
	reduced := outcome.Text()

	info.Strategy = outcome.Stats.Strategy
	info.Status = string(outcome.Status)
	info.Reason = outcome.Reason
	info.Excerpts = len(outcome.Chunks)
	info.ReducedChars = utf8.RuneCountInString(reduced)

	log.Info("Relevance reduction completed",
		"original_chars", info.OriginalChars,
		"reduced_chars", info.ReducedChars,
		"excerpts", info.Excerpts)
	return reduced, info
}

func (s *Service) countTokens(ctx context.Context, original, reduced string, info *models.ReductionInfo) {
	if s.config.TokenCounter == nil {
		return
	}
	var err error
	if info.OriginalTokens, err = s.config.TokenCounter.CountTokens(ctx, original); err != nil {
		logger.FromContext(ctx).Warn("Failed to count tokens", "error", err)
		info.OriginalTokens = 0
		return
	}
	if original == reduced {
		info.ReducedTokens = info.OriginalTokens
		return
	}
	if info.ReducedTokens, err = s.config.TokenCounter.CountTokens(ctx, reduced); err != nil {
		logger.FromContext(ctx).Warn("Failed to count tokens", "error", err)
		info.OriginalTokens, info.ReducedTokens = 0, 0
	}
}

func performance(start time.Time, requestID string) models.Performance {
	return models.Performance{
		ExecutionTime: time.Since(start).Seconds(),
		RequestID:     requestID,
		Timestamp:     start,
	}
}
