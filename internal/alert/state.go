package alert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// State remembers the newest Buy bar already alerted per symbol, so a
// restart or a repeated run does not alert twice for the same bar.
type State struct {
	LastBuy   map[string]time.Time `json:"last_buy"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// LoadState reads the alert state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{LastBuy: map[string]time.Time{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.LastBuy == nil {
		state.LastBuy = map[string]time.Time{}
	}
	return &state, nil
}

// SaveState writes the alert state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
