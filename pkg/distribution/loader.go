package distribution

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// LoadRecordsFile reads beneficiary records from path. The format is chosen
// by extension: ".json" holds an array of typed records, ".csv" holds
// address,amount rows with an optional header.
func LoadRecordsFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadRecordsJSON(f)
	case ".csv":
		return ReadRecordsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported records file extension %q (expected .json or .csv)", filepath.Ext(path))
	}
}

// ReadRecordsJSON decodes an array of records, each an array of
// {"type","value"} fields.
func ReadRecordsJSON(r io.Reader) ([]types.Record, error) {
	var records []types.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records JSON: %w", err)
	}
	return records, nil
}

// ReadRecordsCSV decodes address,amount rows into beneficiary records. A first
// row whose address column is not a hex address is treated as a header.
func ReadRecordsCSV(r io.Reader) ([]types.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var records []types.Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		addr, amount := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if line == 1 && !common.IsHexAddress(addr) {
			continue
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("line %d: invalid address %q", line, addr)
		}
		value, ok := util.ParseInteger(amount)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", line, amount, util.ErrInvalidFieldValue)
		}
		if _, err := util.EncodeUint256(value); err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", line, amount, err)
		}
		records = append(records, types.NewBeneficiary(common.HexToAddress(addr), value))
	}
	return records, nil
}
