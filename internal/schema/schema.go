// Package schema builds JSON-Schema descriptions from typed Go argument
// structs and coerces raw, possibly string-valued, incoming argument
// maps into those typed structs. It is the Go realization of the
// reference implementation's runtime type-introspection: instead of
// reading a callback's annotations at call time, a plugin declares its
// argument type once and this package reflects over it.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// Handler is the function shape every tool, resource, and prompt
// callback implements: typed arguments in, an arbitrary result out.
type Handler[TArgs any] func(ctx context.Context, args TArgs) (any, error)

// Adapter wraps a Handler[TArgs] with a cached JSON-Schema and a
// coercion step, satisfying manifest.Invoker.
type Adapter[TArgs any] struct {
	fn          Handler[TArgs]
	schema      *jsonschema.Schema
	fieldDescs  map[string]string
}

// fieldDescriptions collects each struct field's `desc:"..."` tag, which
// New copies onto the generated schema, standing in for the reference implementation's
// docstring-derived parameter descriptions (Go has no equivalent
// runtime-visible doc comment).
func fieldDescriptions[TArgs any]() map[string]string {
	descs := make(map[string]string)
	var zero TArgs
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return descs
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonFieldName(field)
		if desc, ok := field.Tag.Lookup("desc"); ok {
			descs[name] = desc
		}
	}
	return descs
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}

// New builds an Adapter around fn, reflecting TArgs into a JSON-Schema
// and merging any `desc` struct tags into the property descriptions.
func New[TArgs any](fn Handler[TArgs]) (*Adapter[TArgs], error) {
	sch, err := jsonschema.For[TArgs]()
	if err != nil {
		return nil, fmt.Errorf("schema: reflect argument schema: %w", err)
	}
	descs := fieldDescriptions[TArgs]()
	for name, desc := range descs {
		if prop, ok := sch.Properties[name]; ok {
			prop.Description = desc
		}
	}
	if err := rejectVariadic[TArgs](); err != nil {
		return nil, err
	}
	return &Adapter[TArgs]{fn: fn, schema: sch, fieldDescs: descs}, nil
}

// rejectVariadic enforces "signatures with variadic positional/keyword
// parameters are rejected at registration" by refusing any field tagged
// `variadic:"true"`, the marker for a catch-all *args/**kwargs-style
// field. Untagged slice or map fields are accepted.
func rejectVariadic[TArgs any]() error {
	var zero TArgs
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("variadic") == "true" {
			return fmt.Errorf("schema: field %s: variadic parameters are not supported", field.Name)
		}
	}
	return nil
}

// Schema returns the reflected JSON-Schema.
func (a *Adapter[TArgs]) Schema() *jsonschema.Schema { return a.schema }

// Invoke coerces raw into TArgs per the four-step coercion rule, then
// calls the wrapped handler.
func (a *Adapter[TArgs]) Invoke(ctx context.Context, raw map[string]any) (any, error) {
	var args TArgs
	if err := Coerce(raw, &args); err != nil {
		return nil, err
	}
	return a.fn(ctx, args)
}

// Coerce fills dst (a pointer to a struct) from raw, a map of
// JSON-decoded or string-valued incoming arguments, following the
// four-step rule:
//  1. untyped destination field: pass the value through as-is. String
//     destination field: a string value passes through as-is, any other
//     value is InvalidParams.
//  2. incoming value already non-string (already typed by the
//     transport's JSON decode): pass through.
//  3. incoming string value: parse it as JSON against the field type;
//     on failure, fall back to a direct scalar conversion.
//  4. if every attempt fails, return InvalidParams naming the field and
//     the observed value.
func Coerce(raw map[string]any, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("schema: Coerce destination must be a pointer to struct")
	}
	structVal := v.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonFieldName(field)
		incoming, present := raw[name]
		if !present {
			continue
		}
		fieldVal := structVal.Field(i)
		if err := coerceField(name, incoming, fieldVal); err != nil {
			return err
		}
	}
	return nil
}

func coerceField(name string, incoming any, fieldVal reflect.Value) error {
	kind := fieldVal.Kind()

	// Step 1: string or untyped (interface{}) destination passes through;
	// a string destination accepts only a string value.
	if kind == reflect.String {
		s, ok := incoming.(string)
		if !ok {
			return mcperr.New(mcperr.InvalidParams, "argument %q: expected string, observed %v", name, incoming)
		}
		fieldVal.SetString(s)
		return nil
	}
	if kind == reflect.Interface {
		fieldVal.Set(reflect.ValueOf(incoming))
		return nil
	}

	s, isString := incoming.(string)

	// Step 2: incoming value is not a string, it is already typed.
	if !isString {
		return assignTyped(name, incoming, fieldVal)
	}

	// Step 3: parse the string as JSON against the field type.
	target := reflect.New(fieldVal.Type())
	if err := json.Unmarshal([]byte(s), target.Interface()); err == nil {
		fieldVal.Set(target.Elem())
		return nil
	}

	// Fallback: validate the raw string directly against scalar kinds.
	if err := assignFromString(s, fieldVal); err == nil {
		return nil
	}

	// Step 4: every attempt failed.
	return mcperr.New(mcperr.InvalidParams, "argument %q: cannot coerce value %q to %s", name, s, fieldVal.Type())
}

func assignTyped(name string, incoming any, fieldVal reflect.Value) error {
	encoded, err := json.Marshal(incoming)
	if err != nil {
		return mcperr.New(mcperr.InvalidParams, "argument %q: observed value %v is not representable: %v", name, incoming, err)
	}
	target := reflect.New(fieldVal.Type())
	if err := json.Unmarshal(encoded, target.Interface()); err != nil {
		return mcperr.New(mcperr.InvalidParams, "argument %q: observed value %v does not match expected type %s", name, incoming, fieldVal.Type())
	}
	fieldVal.Set(target.Elem())
	return nil
}

func assignFromString(s string, fieldVal reflect.Value) error {
	switch fieldVal.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fieldVal.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		fieldVal.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		fieldVal.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fieldVal.SetFloat(f)
	default:
		return fmt.Errorf("schema: no direct conversion for kind %s", fieldVal.Kind())
	}
	return nil
}
