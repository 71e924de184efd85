// internal/dataset/loader.go
package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Ayash-Bera/travelbot/internal/models"
)

// Load reads the flight dataset at path. The file must hold a JSON array of
// flight records; anything else aborts startup.
func Load(path string) ([]models.FlightRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flight dataset: %w", err)
	}

	return Parse(data)
}

// Parse decodes a JSON array of flight records.
func Parse(data []byte) ([]models.FlightRecord, error) {
	var flights []models.FlightRecord
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, fmt.Errorf("failed to parse flight dataset: %w", err)
	}
	if flights == nil {
		return nil, fmt.Errorf("failed to parse flight dataset: expected a JSON array")
	}

	for i := range flights {
		if flights[i].Layovers == nil {
			flights[i].Layovers = []string{}
		}
	}

	return flights, nil
}
