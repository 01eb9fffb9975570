package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// eventTypeKey marks the CloudEvent type a payload schema describes
const eventTypeKey = "x-event-type"

// EventValidator validates CloudEvent payloads against AsyncAPI component schemas
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

type document struct {
	AsyncAPI   string `yaml:"asyncapi"`
	Components struct {
		Schemas map[string]map[string]interface{} `yaml:"schemas"`
	} `yaml:"components"`
}

type envelope struct {
	SpecVersion string          `json:"specversion"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	ID          string          `json:"id"`
	Data        json.RawMessage `json:"data"`
}

// contractURL is the resource the whole components section is registered under,
// so local refs between component schemas resolve.
const contractURL = "asyncapi://contract.json"

// NewEventValidatorFromBytes compiles every component schema tagged with x-event-type
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var doc document
	if err := yaml.Unmarshal(specBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI document: %w", err)
	}

	// Round trip through JSON so the compiler sees JSON value types
	contractJSON, err := json.Marshal(map[string]interface{}{
		"components": map[string]interface{}{"schemas": doc.Components.Schemas},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode component schemas: %w", err)
	}
	contract, err := jsonschema.UnmarshalJSON(bytes.NewReader(contractJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode component schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(contractURL, contract); err != nil {
		return nil, fmt.Errorf("failed to add component schemas: %w", err)
	}

	schemas := make(map[string]*jsonschema.Schema)
	for name, raw := range doc.Components.Schemas {
		eventType, _ := raw[eventTypeKey].(string)
		if eventType == "" {
			continue
		}
		compiled, err := compiler.Compile(contractURL + "#/components/schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", eventType, err)
		}
		schemas[eventType] = compiled
	}

	return &EventValidator{schemas: schemas}, nil
}

// ValidateEventJSON validates an encoded CloudEvent envelope and its data payload
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event envelope
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	if event.SpecVersion == "" || event.ID == "" || event.Source == "" {
		return fmt.Errorf("CloudEvent envelope is incomplete")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("event data is required")
	}

	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(event.Data))
	if err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// SupportedEventTypes lists event types with a registered schema
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for t := range v.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// HasSchema reports whether eventType has a schema
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}
