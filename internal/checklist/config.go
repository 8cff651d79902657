package checklist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// templateSchema constrains template override files. Answer values are
// not enumerated here because the permitted set depends on answerType;
// LoadTemplateFile checks that relationship after decoding.
const templateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "question", "section"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "question": {"type": "string", "minLength": 1},
          "section": {"enum": ["ce", "sow", "pa"]},
          "answerType": {"enum": ["yesno", "subsuper"]},
          "conditional": {
            "type": "object",
            "required": ["clients"],
            "properties": {
              "clients": {
                "type": "array",
                "minItems": 1,
                "items": {"type": "string", "minLength": 1}
              },
              "show": {"type": "boolean"}
            }
          }
        }
      }
    },
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["triggerItemId", "triggerAnswer", "targetItemId", "targetAnswer"],
        "properties": {
          "triggerItemId": {"type": "string", "minLength": 1},
          "triggerAnswer": {"enum": ["any", "yes", "no", "sub", "super", "apex"]},
          "targetItemId": {"type": "string", "minLength": 1},
          "targetAnswer": {"enum": ["yes", "no", "sub", "super", "apex"]},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

// TemplateConfig is an optional override for the built-in template and
// rule set, loaded from a JSON file at startup.
type TemplateConfig struct {
	Items []Item            `json:"items"`
	Rules []ConditionalRule `json:"rules"`
}

// LoadTemplateFile reads and validates a template override. The file
// is validated against the embedded schema before decoding, so a
// malformed override fails startup with a pointer to the offending
// field instead of surfacing as odd runtime behavior.
func LoadTemplateFile(path string) (*TemplateConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("template path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(data)
}

// ParseTemplate validates and decodes a template override document.
func ParseTemplate(data []byte) (*TemplateConfig, error) {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(templateSchema))
	if err != nil {
		return nil, fmt.Errorf("parse template schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("template.schema.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("register template schema: %w", err)
	}
	schema, err := compiler.Compile("template.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile template schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	var cfg TemplateConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, item := range cfg.Items {
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("invalid template: duplicate item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Answer != AnswerNone {
			return nil, fmt.Errorf("invalid template: item %q must start unanswered", item.ID)
		}
	}
	for _, rule := range cfg.Rules {
		if _, ok := seen[rule.TargetItemID]; !ok {
			return nil, fmt.Errorf("invalid template: rule targets unknown item %q", rule.TargetItemID)
		}
		if _, ok := seen[rule.TriggerItemID]; !ok {
			return nil, fmt.Errorf("invalid template: rule triggered by unknown item %q", rule.TriggerItemID)
		}
	}
	return &cfg, nil
}
