package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

// recordSchema describes one serialized record.
var recordSchema = map[string]any{
	"$schema":              "http://json-schema.org/draft-07/schema#",
	"type":                 "object",
	"additionalProperties": false,
	"required":             constants.OutputKeys,
	"properties": map[string]any{
		"document_id":       map[string]any{"type": "string", "format": "uuid"},
		"document_type":     map[string]any{"type": "string", "enum": constants.DocumentTypesAsStrings()},
		"vendor_name":       nullable("string"),
		"client_name":       nullable("string"),
		"invoice_number":    nullable("string"),
		"contract_number":   nullable("string"),
		"issue_date":        map[string]any{"type": []string{"string", "null"}, "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"due_date":          map[string]any{"type": []string{"string", "null"}, "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"total_amount":      nullable("number"),
		"tax_amount":        nullable("number"),
		"currency":          map[string]any{"type": []string{"string", "null"}, "pattern": `^[A-Z]{3}$`},
		"payment_terms":     nullable("string"),
		"reference_number":  nullable("string"),
		"raw_text_snapshot": map[string]any{"type": "string"},
		"source_file_name":  map[string]any{"type": "string"},
		"processed_timestamp": map[string]any{
			"type": "string",
		},
		"validation_status": map[string]any{
			"type": "string",
			"enum": []string{string(constants.StatusPassed), string(constants.StatusPartial), string(constants.StatusFailed)},
		},
		"validation_score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"missing_fields": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"is_duplicate":          map[string]any{"type": "boolean"},
		"canonical_document_id": nullable("string"),
	},
}

// RecordSchema compiles the output record schema.
func RecordSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(recordSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateRecord checks one serialized record against schema.
func ValidateRecord(schema *jsonschema.Schema, rec entity.OutputRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record %s does not match schema: %w", rec.DocumentID, err)
	}
	return nil
}
