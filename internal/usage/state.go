package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"StockSense/internal/model"
)

// LoadState reads the usage state from a JSON file. Returns a zero state if the
// file doesn't exist or no path is configured.
func LoadState(filePath string) (*model.UsageState, error) {
	if filePath == "" {
		return &model.UsageState{Days: map[string]int{}}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.UsageState{Days: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("read usage state: %w", err)
	}
	var state model.UsageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode usage state: %w", err)
	}
	if state.Days == nil {
		state.Days = map[string]int{}
	}
	return &state, nil
}

// SaveState writes the usage state to a JSON file. An empty path keeps state in memory only.
func SaveState(filePath string, state *model.UsageState) error {
	state.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
