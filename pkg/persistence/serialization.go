package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

// ErrPersistenceClosed is returned by every operation after Close.
var ErrPersistenceClosed = errors.New("persistence layer is closed")

// MarshalDistribution serializes a Distribution to JSON bytes.
// Record fields are written in their canonical string form.
func MarshalDistribution(d *types.Distribution) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot marshal nil Distribution")
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Distribution to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalDistribution deserializes a Distribution from JSON bytes.
func UnmarshalDistribution(data []byte) (*types.Distribution, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var d types.Distribution
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Distribution: %w", err)
	}

	return &d, nil
}

// CopyDistribution returns a deep copy of d by round-tripping it through JSON.
func CopyDistribution(d *types.Distribution) (*types.Distribution, error) {
	data, err := MarshalDistribution(d)
	if err != nil {
		return nil, err
	}
	return UnmarshalDistribution(data)
}

// SortSummaries orders summaries by creation time, then by root.
func SortSummaries(summaries []*types.DistributionSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt != summaries[j].CreatedAt {
			return summaries[i].CreatedAt < summaries[j].CreatedAt
		}
		return summaries[i].Root.Hex() < summaries[j].Root.Hex()
	})
}
