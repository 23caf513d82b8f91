// Package catalog holds the fallback intent table and the fuzzy matcher that
// searches it when no command keyword matched.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"biashara-bot/internal/common/validation"
	"biashara-bot/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultCutoff is the minimum similarity for a phrase to count as a hit.
const DefaultCutoff = 0.6

var ErrCatalogInvalid = errors.New("CATALOG_INVALID")

//go:embed default_intents.json
var defaultCatalog []byte

const catalogSchema = `{
  "type": "object",
  "required": ["intents"],
  "properties": {
    "intents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["patterns", "response"],
        "properties": {
          "patterns": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "response": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var schema = validation.MustCompile(catalogSchema)

type document struct {
	Intents []models.IntentRule `json:"intents" yaml:"intents"`
}

// Catalog is an ordered, read-only list of intent rules. Build it once at
// start-up and share it; nothing mutates it afterwards.
type Catalog struct {
	rules []models.IntentRule
}

// New copies rules into a Catalog, keeping their order.
func New(rules []models.IntentRule) *Catalog {
	c := &Catalog{rules: make([]models.IntentRule, len(rules))}
	for i, r := range rules {
		c.rules[i] = models.IntentRule{
			ResponseText:   r.ResponseText,
			ExamplePhrases: append([]string(nil), r.ExamplePhrases...),
		}
	}
	return c
}

// Default returns the catalog bundled with the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog, ".json")
	if err != nil {
		panic(fmt.Sprintf("bundled intent catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file, or returns the bundled one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates a catalog document. ext selects YAML for
// ".yaml"/".yml" and JSON otherwise.
func Parse(data []byte, ext string) (*Catalog, error) {
	var (
		doc    document
		result *validation.ValidationResult
		err    error
	)

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrCatalogInvalid, err)
		}
		result, err = schema.ValidateValue(generic)
		if err == nil && result.Valid {
			err = yaml.Unmarshal(data, &doc)
		}
	default:
		result, err = schema.ValidateBytes(data)
		if err == nil && result.Valid {
			err = json.Unmarshal(data, &doc)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrCatalogInvalid, result.Summary())
	}
	return New(doc.Intents), nil
}

// Rules returns a copy of the rules in catalog order.
func (c *Catalog) Rules() []models.IntentRule {
	return New(c.rules).rules
}

func (c *Catalog) Len() int {
	return len(c.rules)
}
