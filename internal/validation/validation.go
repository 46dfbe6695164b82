package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Field kinds understood by the validator
const (
	KindAttr          = "attr"
	KindBelongsToMany = "belongs_to_many"
)

// ModelSpec is the validator's view of one configured model
type ModelSpec struct {
	Entity     string
	PrimaryKey string
	Fields     []FieldSpec
}

// FieldSpec is the validator's view of one configured field. Related, Pivot
// and Keys are only set for relation kinds.
type FieldSpec struct {
	Name    string
	Kind    string
	Default interface{}
	Mutator string

	Related string
	Pivot   string
	Keys    map[string]string
}

// Validate checks a model set for consistency. All problems are reported
// together.
func Validate(models []ModelSpec, mutators []string) error {
	if len(models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}

	knownMutators := make(map[string]bool, len(mutators))
	for _, name := range mutators {
		knownMutators[name] = true
	}

	// Check for duplicate entities first, relations are checked against this set
	entities := make(map[string]bool)
	var errs []error
	for _, m := range models {
		if err := ValidateEntityName(m.Entity); err != nil {
			errs = append(errs, err)
			continue
		}
		if entities[m.Entity] {
			errs = append(errs, fmt.Errorf("duplicate model entity: %s", m.Entity))
		}
		entities[m.Entity] = true
	}

	for _, m := range models {
		if m.PrimaryKey != "" {
			if err := ValidateFieldName(m.PrimaryKey); err != nil {
				errs = append(errs, fmt.Errorf("model %s: primary key: %w", m.Entity, err))
			}
		}

		seen := make(map[string]bool)
		for _, f := range m.Fields {
			if err := ValidateFieldName(f.Name); err != nil {
				errs = append(errs, fmt.Errorf("model %s: %w", m.Entity, err))
				continue
			}
			if seen[f.Name] {
				errs = append(errs, fmt.Errorf("model %s: duplicate field name: %s", m.Entity, f.Name))
			}
			seen[f.Name] = true

			if err := validateField(f, entities, knownMutators); err != nil {
				errs = append(errs, fmt.Errorf("model %s: %w", m.Entity, err))
			}
		}
	}

	return errors.Join(errs...)
}

// validateField checks one field against its kind
func validateField(f FieldSpec, entities, mutators map[string]bool) error {
	switch f.Kind {
	case KindAttr:
		if f.Mutator != "" && !mutators[f.Mutator] {
			return fmt.Errorf("field %s: unknown mutator '%s'", f.Name, f.Mutator)
		}
		return ValidateDefault(f.Default, f.Name)

	case KindBelongsToMany:
		if f.Related == "" || f.Pivot == "" {
			return fmt.Errorf("field %s: belongs_to_many requires related and pivot", f.Name)
		}
		if !entities[f.Related] {
			return fmt.Errorf("field %s: related model '%s' is not configured", f.Name, f.Related)
		}
		if !entities[f.Pivot] {
			return fmt.Errorf("field %s: pivot model '%s' is not configured", f.Name, f.Pivot)
		}
		for _, name := range sortedKeys(f.Keys) {
			if f.Keys[name] == "" {
				return fmt.Errorf("field %s: %s cannot be empty", f.Name, name)
			}
		}
		return nil

	default:
		return fmt.Errorf("field %s: invalid field type '%s'", f.Name, f.Kind)
	}
}

// ValidateEntityName checks that name can be used as a partition name
func ValidateEntityName(name string) error {
	if name == "" {
		return fmt.Errorf("entity name cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("entity name '%s' has surrounding whitespace", name)
	}
	if strings.ContainsAny(name, ". ") {
		return fmt.Errorf("entity name '%s' cannot contain dots or spaces", name)
	}
	return nil
}

// ValidateFieldName checks that name can be used as a record field. Dots are
// rejected because they separate relation names in eager-load paths.
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if strings.Contains(name, ".") {
		return fmt.Errorf("field name '%s' cannot contain dots", name)
	}
	if IsReservedFieldName(name) {
		return fmt.Errorf("'%s' is a reserved field name", name)
	}
	return nil
}

// IsReservedFieldName checks if a field name is reserved by the system
func IsReservedFieldName(name string) bool {
	reserved := []string{
		// Used by the where clause parser
		"and", "like", "not", "is", "null",
	}

	name = strings.ToLower(name)
	for _, reservedName := range reserved {
		if name == reservedName {
			return true
		}
	}

	return false
}

// ValidateDefault ensures a configured default is a simple type (string,
// number, bool) or a list of them
func ValidateDefault(value interface{}, fieldName string) error {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i).Interface()
			if item != nil && reflect.ValueOf(item).Kind() == reflect.Slice {
				return fmt.Errorf("field '%s' default cannot nest lists", fieldName)
			}
			if err := ValidateDefault(item, fieldName); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		return fmt.Errorf("field '%s' default cannot be a map, got %T", fieldName, value)
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return ValidateDefault(v.Elem().Interface(), fieldName)
	default:
		return fmt.Errorf("field '%s' default must be a simple type (string, number, or bool), got %T", fieldName, value)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
