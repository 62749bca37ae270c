package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercurios-ai/inventory-insights/internal/config"
	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

const (
	forecastSummaryKeyPrefix = "forecast:summary"
	forecastScanBatchSize    = 100
)

type ForecastCache interface {
	GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, bool, error)
	SetSummary(ctx context.Context, runDate string, summary *domain.InsightsSummary) error
	GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, bool, error)
	SetRecommendations(ctx context.Context, filter domain.ForecastFilter, recs []domain.Recommendation, total int) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

type cachedRecommendations struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	Total           int                     `json:"total"`
}

func (c *redisForecastCache) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, bool, error) {
	key := buildSummaryKey(runDate)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.InsightsSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode forecast summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisForecastCache) SetSummary(ctx context.Context, runDate string, summary *domain.InsightsSummary) error {
	key := buildSummaryKey(runDate)
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode forecast summary cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, bool, error) {
	key := buildRecommendationsKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get failed: %w", err)
	}

	var cached cachedRecommendations
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, 0, false, fmt.Errorf("decode recommendations cache: %w", err)
	}

	return cached.Recommendations, cached.Total, true, nil
}

func (c *redisForecastCache) SetRecommendations(ctx context.Context, filter domain.ForecastFilter, recs []domain.Recommendation, total int) error {
	key := buildRecommendationsKey(filter)
	payload, err := json.Marshal(cachedRecommendations{Recommendations: recs, Total: total})
	if err != nil {
		return fmt.Errorf("encode recommendations cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, "forecast:", forecastScanBatchSize)
}

func (n *noopForecastCache) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetSummary(ctx context.Context, runDate string, summary *domain.InsightsSummary) error {
	return nil
}

func (n *noopForecastCache) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, bool, error) {
	return nil, 0, false, nil
}

func (n *noopForecastCache) SetRecommendations(ctx context.Context, filter domain.ForecastFilter, recs []domain.Recommendation, total int) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildSummaryKey(runDate string) string {
	if runDate == "" {
		runDate = "latest"
	}
	return fmt.Sprintf("%s:%s", forecastSummaryKeyPrefix, runDate)
}

func buildRecommendationsKey(filter domain.ForecastFilter) string {
	return fmt.Sprintf("forecast:recommendations:%s", forecastFilterHash(filter))
}

func forecastFilterHash(filter domain.ForecastFilter) string {
	parts := []string{}

	if filter.RunDate != "" {
		parts = append(parts, "run_date="+strings.TrimSpace(filter.RunDate))
	}
	if filter.Action != "" {
		parts = append(parts, "action="+strings.ToLower(strings.TrimSpace(filter.Action)))
	}
	if filter.RecommendationType != "" {
		parts = append(parts, "recommendation_type="+strings.ToLower(strings.TrimSpace(filter.RecommendationType)))
	}
	if filter.Confidence != "" {
		parts = append(parts, "confidence="+strings.ToLower(strings.TrimSpace(filter.Confidence)))
	}

	if len(filter.ArticleIDs) > 0 {
		parts = append(parts, "article_ids="+joinStrings(filter.ArticleIDs))
	}
	if len(filter.Brands) > 0 {
		parts = append(parts, "brands="+joinStrings(filter.Brands))
	}
	if len(filter.Categories) > 0 {
		parts = append(parts, "categories="+joinStrings(filter.Categories))
	}

	if filter.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", filter.Page))
	}
	if filter.PageSize > 0 {
		parts = append(parts, fmt.Sprintf("page_size=%d", filter.PageSize))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(strings.ToLower(c[i]))
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
