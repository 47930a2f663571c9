// Package search runs item searches against the eBay Browse API and reshapes
// the reply into models.SearchResult.
package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"deal-scout/pkg/logger"
	"deal-scout/pkg/models"
	"deal-scout/pkg/upstream"
)

const marketplaceHeader = "X-EBAY-C-MARKETPLACE-ID"

// TokenSource yields a bearer token valid for the next upstream call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ResultCache stores normalized pages. A nil ResultCache disables caching.
type ResultCache interface {
	Get(marketplace, query string, limit int) (*models.CachedPage, bool)
	Set(marketplace, query string, limit int, page *models.CachedPage)
}

type Request struct {
	Query string
	// Limit <= 0 selects the service default.
	Limit          int
	ReferencePrice string
}

type Service struct {
	tokens        TokenSource
	http          *upstream.Client
	searchURL     string
	marketplaceID string
	defaultLimit  int
	cache         ResultCache
}

type Config struct {
	SearchURL     string
	MarketplaceID string
	DefaultLimit  int
}

func NewService(cfg Config, tokens TokenSource, client *upstream.Client, cache ResultCache) *Service {
	return &Service{
		tokens:        tokens,
		http:          client,
		searchURL:     cfg.SearchURL,
		marketplaceID: cfg.MarketplaceID,
		defaultLimit:  cfg.DefaultLimit,
		cache:         cache,
	}
}

// Search validates the request, fetches one page from upstream (or the
// result cache) and computes price statistics for it.
func (s *Service) Search(ctx context.Context, req Request) (*models.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &models.Error{
			Kind:    models.KindValidation,
			Message: "Missing query parameter 'q'",
			Err:     models.ErrMissingQuery,
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	page, err := s.page(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return &models.SearchResult{
		Items:    page.Items,
		Stats:    ComputeStats(page.Items, req.ReferencePrice),
		RawTotal: page.RawTotal,
	}, nil
}

func (s *Service) page(ctx context.Context, query string, limit int) (*models.CachedPage, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(s.marketplaceID, query, limit); ok {
			logger.Dedup("Cache hit for %q (limit %d)", query, limit)
			return cached, nil
		}
	}

	page, err := s.fetch(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(s.marketplaceID, query, limit, page)
	}
	return page, nil
}

func (s *Service) fetch(ctx context.Context, query string, limit int) (*models.CachedPage, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)
	hdr.Set("Content-Type", "application/json")
	hdr.Set(marketplaceHeader, s.marketplaceID)

	log := zerolog.Ctx(ctx)
	log.Info().Str("query", query).Int("limit", limit).Msg("Fetching eBay items")

	resp, err := s.http.Do(http.MethodGet, s.searchURL+"?"+params.Encode(), nil, hdr)
	if err != nil {
		log.Error().Err(err).Msg("eBay search request failed")
		return nil, &models.Error{
			Kind:    models.KindUpstreamSearch,
			Message: "eBay API error",
			Details: models.RawDetails([]byte(err.Error())),
			Err:     err,
		}
	}

	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		log.Error().Int("status", resp.StatusCode).RawJSON("body", models.RawDetails(resp.Body)).Msg("eBay API error")
		return nil, &models.Error{
			Kind:    models.KindUpstreamSearch,
			Message: "eBay API error",
			Details: models.RawDetails(resp.Body),
		}
	}

	body := gjson.ParseBytes(resp.Body)
	return &models.CachedPage{
		Items:     NormalizeAll(body.Get("itemSummaries")),
		RawTotal:  int(body.Get("total").Int()),
		FetchedAt: time.Now(),
	}, nil
}
