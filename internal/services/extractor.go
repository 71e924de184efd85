// internal/services/extractor.go
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/travelbot/internal/cache"
	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/Ayash-Bera/travelbot/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ErrCriteriaNotUnderstood means the model reply could not be read as a
// filter object. The filters returned alongside it are always empty.
var ErrCriteriaNotUnderstood = errors.New("could not understand flight search criteria")

const criteriaPrompt = `Extract the following fields from the flight search request if available:
- from
- to
- departure_date (YYYY-MM-DD, or just YYYY-MM if no exact day is given)
- return_date (optional)
- alliance (e.g., Star Alliance, SkyTeam, OneWorld)
- avoid_overnight (true/false)
- max_price (USD)

Return the result as a JSON object with keys: from, to, departure_date, return_date, alliance, avoid_overnight, max_price.
Use null for anything the request does not mention.

Input: %s`

var (
	openingFencePattern = regexp.MustCompile("(?i)^```(?:json)?[ \t]*\r?\n?")
	closingFencePattern = regexp.MustCompile("\r?\n?```$")
)

// CriteriaExtractor turns a free-text flight request into SearchFilters by
// asking the chat model for a JSON object.
type CriteriaExtractor struct {
	model  llm.ChatModel
	cache  ResultCache
	logger *logrus.Logger
}

func NewCriteriaExtractor(model llm.ChatModel, cache ResultCache, logger *logrus.Logger) *CriteriaExtractor {
	return &CriteriaExtractor{
		model:  model,
		cache:  cache,
		logger: logger,
	}
}

// Extract returns the filters found in query. Model failures are returned as
// errors; an unreadable reply yields empty filters and ErrCriteriaNotUnderstood.
func (e *CriteriaExtractor) Extract(ctx context.Context, query string) (models.SearchFilters, error) {
	cacheKey := fmt.Sprintf(cache.CriteriaKey, utils.NormalizedKey(query))

	if e.cache != nil {
		var cached models.SearchFilters
		found, err := e.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			e.logger.WithError(err).Warn("Failed to read cached criteria")
		} else if found {
			e.logger.WithField("query", query).Debug("Criteria served from cache")
			return cached, nil
		}
	}

	output, err := e.model.Complete(ctx, "", llm.UserMessage(fmt.Sprintf(criteriaPrompt, query)))
	if err != nil {
		return models.SearchFilters{}, fmt.Errorf("criteria extraction failed: %w", err)
	}

	filters, err := ParseCriteria(output)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"query":  query,
			"output": output,
		}).Warn("Failed to parse criteria")
		return models.SearchFilters{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"query":   query,
		"filters": filters,
	}).Debug("Criteria extracted")

	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, filters); err != nil {
			e.logger.WithError(err).Warn("Failed to cache criteria")
		}
	}

	return filters, nil
}

// ParseCriteria reads a model reply, optionally wrapped in a ``` or ```json
// fence, into SearchFilters. Field values are coerced leniently: null, empty
// and "none" mean absent; prices may be numbers or strings like "$1,200".
func ParseCriteria(output string) (models.SearchFilters, error) {
	cleaned := StripCodeFence(output)

	if !gjson.Valid(cleaned) {
		return models.SearchFilters{}, fmt.Errorf("%w: reply is not valid JSON", ErrCriteriaNotUnderstood)
	}
	root := gjson.Parse(cleaned)
	if !root.IsObject() {
		return models.SearchFilters{}, fmt.Errorf("%w: reply is not a JSON object", ErrCriteriaNotUnderstood)
	}

	return models.SearchFilters{
		From:           stringField(root.Get("from")),
		To:             stringField(root.Get("to")),
		DepartureDate:  stringField(root.Get("departure_date")),
		ReturnDate:     stringField(root.Get("return_date")),
		Alliance:       stringField(root.Get("alliance")),
		AvoidOvernight: boolField(root.Get("avoid_overnight")),
		MaxPrice:       priceField(root.Get("max_price")),
	}, nil
}

// StripCodeFence removes one surrounding markdown code fence, if present.
func StripCodeFence(output string) string {
	cleaned := strings.TrimSpace(output)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = openingFencePattern.ReplaceAllString(cleaned, "")
	cleaned = closingFencePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func stringField(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		value := strings.TrimSpace(r.String())
		switch strings.ToLower(value) {
		case "null", "none", "n/a", "any":
			return ""
		}
		return value
	default:
		return ""
	}
}

func boolField(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Float() != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(r.Str)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

// priceField returns nil for absent, unparseable or non-positive prices.
func priceField(r gjson.Result) *float64 {
	var price float64
	switch r.Type {
	case gjson.Number:
		price = r.Float()
	case gjson.String:
		cleaned := strings.NewReplacer("$", "", ",", "", "USD", "", "usd", "").Replace(r.Str)
		parsed, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
		if err != nil {
			return nil
		}
		price = parsed
	default:
		return nil
	}

	if price <= 0 {
		return nil
	}
	return &price
}
