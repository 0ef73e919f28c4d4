package invoice

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed batch.schema.json
var batchSchema []byte

// ErrInvalidBatch is returned when serialized records do not have the interchange shape
var ErrInvalidBatch = errors.New("invalid invoice batch")

var compileBatchSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("batch.schema.json", bytes.NewReader(batchSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("batch.schema.json")
})

// DecodeBatch checks data against the batch schema and decodes it.
// A single JSON object is accepted as a batch of one.
func DecodeBatch(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidBatch)
	}
	if data[0] == '{' {
		data = append(append([]byte("["), data...), ']')
	}

	schema, err := compileBatchSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	return records, nil
}
