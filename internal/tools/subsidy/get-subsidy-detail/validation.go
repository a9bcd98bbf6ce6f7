package getsubsidydetail

import "jgrants-mcp/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"subsidy_id"},
		Properties: map[string]validation.Property{
			"subsidy_id": {
				Type:        "string",
				Description: "jGrants subsidy id (not the title)",
			},
		},
		AdditionalProperties: true,
	}
}
