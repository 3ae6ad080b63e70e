package todos

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/tada/internal/model"
)

// ErrMalformedPayload is returned by Decode when the stored value is not a
// JSON array.
var ErrMalformedPayload = errors.New("malformed todos payload")

const todoSchemaURL = "tada://schema/todo.json"

// Shape of a single stored record. completed may be missing on records
// written by hand; it then defaults to false.
const todoSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title"],
  "properties": {
    "id":        {"type": "string", "minLength": 1},
    "title":     {"type": "string", "pattern": "\\S"},
    "completed": {"type": "boolean"}
  }
}`

var recordSchema = jsonschema.MustCompileString(todoSchemaURL, todoSchema)

// Dropped describes a stored record that failed validation on load.
type Dropped struct {
	Index  int
	Reason string
}

// Encode serializes items as a JSON array in store order. A nil list is
// written as [].
func Encode(items []model.Todo) (string, error) {
	if items == nil {
		items = []model.Todo{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored list. The payload as a whole must be a JSON array,
// otherwise ErrMalformedPayload is returned. Records that do not match the
// record schema, or repeat an earlier id, are skipped and reported in
// dropped. Titles are trimmed.
func Decode(raw string) (items []model.Todo, dropped []Dropped, err error) {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if records == nil {
		// the literal null
		return nil, nil, fmt.Errorf("%w: not an array", ErrMalformedPayload)
	}

	items = make([]model.Todo, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		var doc any
		if err := json.Unmarshal(rec, &doc); err != nil {
			dropped = append(dropped, Dropped{Index: i, Reason: err.Error()})
			continue
		}
		if err := recordSchema.Validate(doc); err != nil {
			dropped = append(dropped, Dropped{Index: i, Reason: schemaReason(err)})
			continue
		}
		var t model.Todo
		if err := json.Unmarshal(rec, &t); err != nil {
			dropped = append(dropped, Dropped{Index: i, Reason: err.Error()})
			continue
		}
		// the schema pattern misses unicode spaces that TrimSpace strips
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			dropped = append(dropped, Dropped{Index: i, Reason: "blank title"})
			continue
		}
		if seen[t.ID] {
			dropped = append(dropped, Dropped{Index: i, Reason: "duplicate id " + t.ID})
			continue
		}
		seen[t.ID] = true
		items = append(items, t)
	}
	return items, dropped, nil
}

func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
