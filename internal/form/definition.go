package form

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Rule names a registered filterer or validator together with its
// constructor-argument spec: nil for none, a list for positional arguments,
// or a single scalar wrapped as one argument.
type Rule struct {
	Name string
	Args any
}

// Rules is an ordered list of rules. In YAML it may be written as a mapping
// (identifier: args), whose entry order is preserved, or as a sequence of
// single-entry mappings.
type Rules []Rule

// UnmarshalYAML decodes either form while keeping declaration order.
func (r *Rules) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		rules, err := rulesFromMapping(node)
		if err != nil {
			return err
		}
		*r = rules
		return nil
	case yaml.SequenceNode:
		var rules Rules
		for _, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				return fmt.Errorf("form: rule entries must be mappings, got %v", item.Kind)
			}
			sub, err := rulesFromMapping(item)
			if err != nil {
				return err
			}
			rules = append(rules, sub...)
		}
		*r = rules
		return nil
	default:
		return fmt.Errorf("form: rules must be a mapping or sequence")
	}
}

func rulesFromMapping(node *yaml.Node) (Rules, error) {
	var rules Rules
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return nil, err
		}
		var args any
		if err := node.Content[i+1].Decode(&args); err != nil {
			return nil, err
		}
		rules = append(rules, Rule{Name: name, Args: args})
	}
	return rules, nil
}

// Definition declares one form field: the render-facing shape plus the
// filter and validator wiring the builder turns into a Processor.
type Definition struct {
	Name              string            `yaml:"name"`
	Label             string            `yaml:"label"`
	Type              string            `yaml:"type"`
	Value             any               `yaml:"value"`
	Required          bool              `yaml:"required"`
	Help              string            `yaml:"help"`
	Options           []Option          `yaml:"options"`
	Attributes        map[string]string `yaml:"attributes"`
	WrapperAttributes map[string]string `yaml:"wrapper_attributes"`
	Filters           Rules             `yaml:"filters"`
	Validators        Rules             `yaml:"validators"`
}

// Definitions is an ordered field-definition list. Its YAML form is a mapping
// of field key to definition: the key becomes the field name unless the
// definition sets one explicitly, and entries that are not mappings are
// skipped rather than treated as errors.
type Definitions []Definition

// UnmarshalYAML decodes the mapping form, preserving declaration order.
func (d *Definitions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("form: field definitions must be a mapping")
	}

	var defs Definitions
	for i := 0; i+1 < len(node.Content); i += 2 {
		value := node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			continue
		}
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		var def Definition
		if err := value.Decode(&def); err != nil {
			return err
		}
		if def.Name == "" {
			def.Name = key
		}
		defs = append(defs, def)
	}
	*d = defs
	return nil
}
