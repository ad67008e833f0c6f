package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bft-labs/fishdiary/internal/domain"
)

// EncodeSpots serializes a spot list into the stored blob format.
// A nil list encodes as [].
func EncodeSpots(spots []domain.Spot) (string, error) {
	if spots == nil {
		spots = []domain.Spot{}
	}
	data, err := json.Marshal(spots)
	if err != nil {
		return "", fmt.Errorf("encode spots: %w", err)
	}
	return string(data), nil
}

// DecodeSpots parses a stored blob. The blob must be a JSON array of spot
// records with distinct ids. The returned list is never nil.
func DecodeSpots(text string) ([]domain.Spot, error) {
	data := bytes.TrimSpace([]byte(text))
	if len(data) == 0 || data[0] != '[' {
		return nil, errors.New("stored value is not a JSON array")
	}

	var spots []domain.Spot
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(spots))
	for _, s := range spots {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate spot id %d", s.ID)
		}
		seen[s.ID] = struct{}{}
	}

	if spots == nil {
		spots = []domain.Spot{}
	}
	return spots, nil
}
