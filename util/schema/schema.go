// Package schema provides utilities for generating tool input schemas from Go
// structs and for decoding tool arguments back into them.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/localrivet/wikichat/model"
)

// goTypeToSchemaType maps Go kinds to JSON schema types.
func goTypeToSchemaType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// FromStruct generates a model.InputSchema from struct tags. The `json` tag
// names the property, the `description` tag documents it, and the `enum` tag
// (comma separated) constrains it. By convention, non-pointer fields are
// required and pointer fields are optional.
func FromStruct(v interface{}) model.InputSchema {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	props := map[string]model.Property{}
	var required []string
	seen := make(map[string]bool)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.ToLower(field.Name)
		if jsonTag != "" {
			name = strings.Split(jsonTag, ",")[0]
		}

		isPtr := field.Type.Kind() == reflect.Ptr
		if !isPtr && !seen[name] {
			required = append(required, name)
			seen[name] = true
		}

		fieldType := field.Type
		if isPtr {
			fieldType = fieldType.Elem()
		}

		var enumValues []interface{}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			for _, v := range strings.Split(enumTag, ",") {
				enumValues = append(enumValues, strings.TrimSpace(v))
			}
		}

		props[name] = model.Property{
			Type:        goTypeToSchemaType(fieldType.Kind()),
			Description: field.Tag.Get("description"),
			Enum:        enumValues,
		}
	}

	schema := model.InputSchema{
		Type:       "object",
		Properties: props,
	}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

// DecodeArgs decodes a tool argument map into a strongly-typed struct T using
// the same `json` tags FromStruct reads. Decoding is weakly typed: numbers
// arriving as strings, booleans as numbers, and similar model quirks coerce
// instead of failing. A nil map decodes into the zero value.
func DecodeArgs[T any](arguments map[string]interface{}) (*T, error) {
	var args T
	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("schema: creating argument decoder: %w", err)
	}
	if err := decoder.Decode(arguments); err != nil {
		return nil, fmt.Errorf("schema: decoding arguments: %w", err)
	}
	return &args, nil
}
