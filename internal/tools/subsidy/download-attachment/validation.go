package downloadattachment

import (
	"jgrants-mcp/internal/common/validation"
)

// GetInputSchema leaves category unconstrained so that an unknown name is
// answered with the category message rather than a schema error.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"subsidy_id", "category", "index"},
		Properties: map[string]validation.Property{
			"subsidy_id": {
				Type:        "string",
				Description: "jGrants subsidy id",
			},
			"category": {
				Type:        "string",
				Description: "Attachment category",
			},
			"index": {
				Type:        "integer",
				Description: "Zero-based attachment position",
			},
		},
		AdditionalProperties: true,
	}
}
