package listsubsidies

import "jgrants-mcp/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"keyword": {
				Type:        "string",
				Description: "Search keyword; defaults to 補助金 when omitted",
			},
		},
		AdditionalProperties: true,
	}
}
