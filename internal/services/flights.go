// internal/services/flights.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	NoMatchesMessage     = "No matching flights found."
	NotUnderstoodMessage = "Sorry, I couldn't understand the flight search criteria. Please rephrase with an origin, destination, date or budget."
)

// CriteriaSource produces search filters for a free-text query.
type CriteriaSource interface {
	Extract(ctx context.Context, query string) (models.SearchFilters, error)
}

// FlightSearch answers flight queries against the in-memory dataset.
type FlightSearch struct {
	flights   []models.FlightRecord
	extractor CriteriaSource
	logger    *logrus.Logger
}

func NewFlightSearch(flights []models.FlightRecord, extractor CriteriaSource, logger *logrus.Logger) *FlightSearch {
	return &FlightSearch{
		flights:   flights,
		extractor: extractor,
		logger:    logger,
	}
}

// Search extracts filters from query and returns the matching flights, one
// per line, or NoMatchesMessage.
func (s *FlightSearch) Search(ctx context.Context, query string) (string, error) {
	filters, err := s.extractor.Extract(ctx, query)
	if errors.Is(err, ErrCriteriaNotUnderstood) {
		return NotUnderstoodMessage, nil
	}
	if err != nil {
		return "", err
	}

	results := FilterFlights(s.flights, filters)

	s.logger.WithFields(logrus.Fields{
		"query":   query,
		"filters": filters,
		"matches": len(results),
		"total":   len(s.flights),
	}).Info("Flight search completed")

	return FormatFlights(results), nil
}

// FilterFlights keeps the records that pass every active filter, in dataset
// order.
func FilterFlights(flights []models.FlightRecord, filters models.SearchFilters) []models.FlightRecord {
	results := make([]models.FlightRecord, 0, len(flights))
	for _, flight := range flights {
		if Matches(flight, filters) {
			results = append(results, flight)
		}
	}
	return results
}

// Matches applies the filters to one record.
func Matches(flight models.FlightRecord, filters models.SearchFilters) bool {
	if filters.From != "" && !containsFold(flight.From, filters.From) {
		return false
	}
	if filters.To != "" && !containsFold(flight.To, filters.To) {
		return false
	}
	if filters.DepartureDate != "" && !strings.HasPrefix(flight.DepartureDate, monthPrefix(filters.DepartureDate)) {
		return false
	}
	if filters.Alliance != "" && !strings.EqualFold(filters.Alliance, flight.Alliance) {
		return false
	}
	if filters.AvoidOvernight && hasOvernightLayover(flight) {
		return false
	}
	if filters.MaxPrice != nil && flight.PriceUSD > *filters.MaxPrice {
		return false
	}
	return true
}

// FormatFlights renders one line per flight, or NoMatchesMessage.
func FormatFlights(flights []models.FlightRecord) string {
	if len(flights) == 0 {
		return NoMatchesMessage
	}

	lines := make([]string, len(flights))
	for i, flight := range flights {
		lines[i] = FormatFlight(flight)
	}
	return strings.Join(lines, "\n")
}

// FormatFlight renders "Airline | From → To | Date | $Price".
func FormatFlight(flight models.FlightRecord) string {
	return fmt.Sprintf("%s | %s → %s | %s | $%s",
		flight.Airline,
		flight.From,
		flight.To,
		flight.DepartureDate,
		strconv.FormatFloat(flight.PriceUSD, 'f', -1, 64),
	)
}

func containsFold(value, substr string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}

// monthPrefix keeps the first seven characters (YYYY-MM) of a date filter.
func monthPrefix(date string) string {
	runes := []rune(date)
	if len(runes) > 7 {
		return string(runes[:7])
	}
	return date
}

func hasOvernightLayover(flight models.FlightRecord) bool {
	for _, layover := range flight.Layovers {
		if containsFold(layover, "overnight") {
			return true
		}
	}
	return false
}
