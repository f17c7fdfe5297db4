package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FieldType is the JSON shape a submitted field is expected to have.
type FieldType string

const (
	FieldTypeText   FieldType = "TEXT"
	FieldTypeNumber FieldType = "NUMBER"
	FieldTypeList   FieldType = "LIST"
)

// PayloadValidator checks decoded JSON objects against field definitions.
type PayloadValidator struct{}

// NewPayloadValidator creates a new payload validator
func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{}
}

// FieldDefinition represents a field definition for validation
type FieldDefinition struct {
	Type     FieldType
	Required bool
	// AllowEmpty accepts "" for a NUMBER field.
	AllowEmpty bool
	// Items describes the objects held by a LIST field.
	Items map[string]FieldDefinition
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// Error joins the collected errors so a result can travel as an error value.
func (r ValidationResult) Error() string {
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(messages, "; ")
}

// ValidateProperties validates payload properties against field definitions.
// Unknown properties are reported as warnings.
func (pv *PayloadValidator) ValidateProperties(properties map[string]any, fieldDefinitions map[string]FieldDefinition) ValidationResult {
	result := ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}
	pv.validateObject("", properties, fieldDefinitions, &result)
	return result
}

func (pv *PayloadValidator) validateObject(prefix string, properties map[string]any, fieldDefinitions map[string]FieldDefinition, result *ValidationResult) {
	// stable error order keeps responses reproducible
	names := make([]string, 0, len(fieldDefinitions))
	for name := range fieldDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, fieldName := range names {
		fieldDef := fieldDefinitions[fieldName]
		path := prefix + fieldName
		value, exists := properties[fieldName]

		if fieldDef.Required && (!exists || value == nil) {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("required field '%s' is missing", path),
			})
			continue
		}

		// Skip validation for missing optional fields
		if !exists || value == nil {
			continue
		}

		if err := pv.validateFieldType(path, value, fieldDef); err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   path,
				Message: err.Error(),
				Value:   value,
			})
			continue
		}

		if fieldDef.Type == FieldTypeList && fieldDef.Items != nil {
			for i, item := range value.([]any) {
				itemPrefix := fmt.Sprintf("%s[%d].", path, i)
				object, ok := item.(map[string]any)
				if !ok {
					result.IsValid = false
					result.Errors = append(result.Errors, ValidationError{
						Field:   strings.TrimSuffix(itemPrefix, "."),
						Message: fmt.Sprintf("list item must be an object, got %T", item),
						Value:   item,
					})
					continue
				}
				pv.validateObject(itemPrefix, object, fieldDef.Items, result)
			}
		}
	}

	unknown := make([]string, 0)
	for propertyName := range properties {
		if _, exists := fieldDefinitions[propertyName]; !exists {
			unknown = append(unknown, propertyName)
		}
	}
	sort.Strings(unknown)
	for _, propertyName := range unknown {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   prefix + propertyName,
			Message: fmt.Sprintf("property '%s' is not a known field and will be ignored", prefix+propertyName),
		})
	}
}

// validateFieldType validates the type of a field value
func (pv *PayloadValidator) validateFieldType(fieldName string, value any, fieldDef FieldDefinition) error {
	switch fieldDef.Type {
	case FieldTypeText:
		if !pv.isScalarText(value) {
			return fmt.Errorf("field '%s' must be a string, got %T", fieldName, value)
		}
	case FieldTypeNumber:
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" && fieldDef.AllowEmpty {
			return nil
		}
		if !pv.isNumber(value) {
			return fmt.Errorf("field '%s' must be a number, got %T %v", fieldName, value, value)
		}
	case FieldTypeList:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("field '%s' must be a list, got %T", fieldName, value)
		}
	default:
		return fmt.Errorf("unknown field type: %s", fieldDef.Type)
	}

	return nil
}

// Helper methods for type checking
func (pv *PayloadValidator) isNumber(value any) bool {
	switch v := value.(type) {
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	case json.Number:
		_, err := v.Float64()
		return err == nil
	case int, int32, int64:
		return true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0)
	default:
		return false
	}
}

func (pv *PayloadValidator) isScalarText(value any) bool {
	switch value.(type) {
	case string, float64, json.Number, int, int64:
		return true
	default:
		return false
	}
}
