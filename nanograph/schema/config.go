package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanograph/internal/validation"
	"github.com/arthur-debert/nanograph/types"
)

// Field kinds accepted in configuration
const (
	KindAttr          = validation.KindAttr
	KindBelongsToMany = validation.KindBelongsToMany
)

// Config declares a set of models, typically loaded from YAML or through viper
type Config struct {
	Models []ModelConfig `yaml:"models" mapstructure:"models"`
}

// ModelConfig declares one model
type ModelConfig struct {
	Entity     string        `yaml:"entity" mapstructure:"entity"`
	PrimaryKey string        `yaml:"primary_key" mapstructure:"primary_key"`
	Fields     []FieldConfig `yaml:"fields" mapstructure:"fields"`
}

// FieldConfig declares one field. Relation keys are only read for relation
// kinds.
type FieldConfig struct {
	Name    string      `yaml:"name" mapstructure:"name"`
	Type    string      `yaml:"type" mapstructure:"type"`
	Default interface{} `yaml:"default" mapstructure:"default"`
	Mutator string      `yaml:"mutator" mapstructure:"mutator"`

	Related         string `yaml:"related" mapstructure:"related"`
	Pivot           string `yaml:"pivot" mapstructure:"pivot"`
	ForeignPivotKey string `yaml:"foreign_pivot_key" mapstructure:"foreign_pivot_key"`
	RelatedPivotKey string `yaml:"related_pivot_key" mapstructure:"related_pivot_key"`
	ParentKey       string `yaml:"parent_key" mapstructure:"parent_key"`
	RelatedKey      string `yaml:"related_key" mapstructure:"related_key"`

	// NullDefault is set when the default is an explicit null, which
	// decodes to a nil Default
	NullDefault bool `yaml:"-" mapstructure:"-"`
}

// UnmarshalYAML records whether default was given as null
func (fc *FieldConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain FieldConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*fc = FieldConfig(p)
	fc.NullDefault = fc.Default == nil && hasNullKey(node, "default")
	return nil
}

func hasNullKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1].ShortTag() == "!!null"
		}
	}
	return false
}

// ConfigDecodeHook lets viper (mapstructure) decoding keep explicit null
// defaults, which plain mapstructure decoding cannot tell from absent ones
func ConfigDecodeHook() mapstructure.DecodeHookFuncType {
	fieldType := reflect.TypeOf(FieldConfig{})
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != fieldType {
			return data, nil
		}
		raw, ok := data.(map[string]interface{})
		if !ok {
			return data, nil
		}
		if value, present := raw["default"]; !present || value != nil {
			return data, nil
		}

		var fc FieldConfig
		if err := mapstructure.Decode(raw, &fc); err != nil {
			return nil, err
		}
		fc.NullDefault = true
		return fc, nil
	}
}

// BuiltinMutators are the mutators configuration can refer to by name
var BuiltinMutators = map[string]Mutator{
	"upper": stringMutator(strings.ToUpper),
	"lower": stringMutator(strings.ToLower),
	"trim":  stringMutator(strings.TrimSpace),
}

func stringMutator(fn func(string) string) Mutator {
	return func(v types.Value) (types.Value, error) {
		s, ok := v.Str()
		if !ok {
			return v, nil
		}
		return types.String(fn(s)), nil
	}
}

// FromConfig validates cfg and returns a booted registry holding its models
func FromConfig(cfg Config) (*Registry, error) {
	if err := validation.Validate(specs(cfg), types.SortedKeys(BuiltinMutators)); err != nil {
		return nil, err
	}

	models := make([]*Model, 0, len(cfg.Models))
	for _, mc := range cfg.Models {
		m, err := modelFromConfig(mc)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	registry := NewRegistry()
	if err := registry.Register(models...); err != nil {
		return nil, err
	}
	if err := registry.Boot(); err != nil {
		return nil, err
	}
	return registry, nil
}

func modelFromConfig(mc ModelConfig) (*Model, error) {
	type attrDef struct {
		value types.Value
		opts  []AttrOption
	}

	attrs := make(map[string]attrDef)
	for _, fc := range mc.Fields {
		if fc.Type != KindAttr {
			continue
		}
		def := attrDef{value: types.Missing()}
		if fc.NullDefault {
			def.value = types.Null()
		} else if fc.Default != nil {
			v, err := types.From(fc.Default)
			if err != nil {
				return nil, fmt.Errorf("model %s field %s default: %w", mc.Entity, fc.Name, err)
			}
			def.value = v
		}
		if fc.Mutator != "" {
			def.opts = append(def.opts, Mutate(BuiltinMutators[fc.Mutator]))
		}
		attrs[fc.Name] = def
	}

	fieldConfigs := mc.Fields
	define := func(d *Definer) Fields {
		fields := make(Fields, len(fieldConfigs))
		for _, fc := range fieldConfigs {
			switch fc.Type {
			case KindAttr:
				def := attrs[fc.Name]
				fields[fc.Name] = d.Attr(def.value, def.opts...)
			case KindBelongsToMany:
				fields[fc.Name] = d.BelongsToMany(
					Named(fc.Related), Named(fc.Pivot),
					fc.ForeignPivotKey, fc.RelatedPivotKey, fc.ParentKey, fc.RelatedKey,
				)
			}
		}
		return fields
	}

	var opts []ModelOption
	if mc.PrimaryKey != "" {
		opts = append(opts, WithPrimaryKey(mc.PrimaryKey))
	}
	return NewModel(mc.Entity, define, opts...), nil
}

func specs(cfg Config) []validation.ModelSpec {
	out := make([]validation.ModelSpec, 0, len(cfg.Models))
	for _, mc := range cfg.Models {
		spec := validation.ModelSpec{Entity: mc.Entity, PrimaryKey: mc.PrimaryKey}
		for _, fc := range mc.Fields {
			field := validation.FieldSpec{Name: fc.Name, Kind: fc.Type, Default: fc.Default, Mutator: fc.Mutator}
			if fc.Type == KindBelongsToMany {
				field.Related = fc.Related
				field.Pivot = fc.Pivot
				field.Keys = map[string]string{
					"foreign_pivot_key": fc.ForeignPivotKey,
					"related_pivot_key": fc.RelatedPivotKey,
					"parent_key":        fc.ParentKey,
					"related_key":       fc.RelatedKey,
				}
			}
			spec.Fields = append(spec.Fields, field)
		}
		out = append(out, spec)
	}
	return out
}
