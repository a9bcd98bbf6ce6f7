// pkg/registry/registry.go
package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// New builds a registry stamped with the current time.
func New(version string, entries ...ToolEntry) *ToolRegistry {
	return &ToolRegistry{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Tools:       append([]ToolEntry{}, entries...),
	}
}

func LoadRegistry(path string) (*ToolRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ToolRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// EntryFromTool describes an MCP tool definition. The input schema is copied
// in its wire form.
func EntryFromTool(tool mcp.Tool, displayName, category string, errorCodes []string) (ToolEntry, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return ToolEntry{}, fmt.Errorf("failed to marshal input schema for %s: %w", tool.Name, err)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return ToolEntry{}, fmt.Errorf("failed to decode input schema for %s: %w", tool.Name, err)
	}

	return ToolEntry{
		Name:        tool.Name,
		DisplayName: displayName,
		Description: tool.Description,
		Category:    category,
		Version:     "1.0.0",
		InputSchema: schema,
		ErrorCodes:  append([]string{}, errorCodes...),
		Tags:        []string{},
	}, nil
}

// Find returns the entry registered under name.
func (r *ToolRegistry) Find(name string) (*ToolEntry, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Tools {
		if r.Tools[i].Name == name {
			return &r.Tools[i], true
		}
	}
	return nil, false
}

// Description returns the catalog description for name, or "" when the
// registry has none.
func (r *ToolRegistry) Description(name string) string {
	if entry, ok := r.Find(name); ok {
		return entry.Description
	}
	return ""
}

func (r *ToolRegistry) Validate() error {
	if len(r.Tools) == 0 {
		return fmt.Errorf("registry contains no tools")
	}

	names := make(map[string]bool)
	for _, tool := range r.Tools {
		if tool.Name == "" {
			return fmt.Errorf("tool missing required field: Name")
		}
		if names[tool.Name] {
			return fmt.Errorf("duplicate tool name: %s", tool.Name)
		}
		names[tool.Name] = true

		if tool.DisplayName == "" {
			return fmt.Errorf("tool %s missing required field: DisplayName", tool.Name)
		}
		if tool.Category == "" {
			return fmt.Errorf("tool %s missing required field: Category", tool.Name)
		}
	}
	return nil
}

// Write encodes the registry as indented JSON.
func (r *ToolRegistry) Write(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// Save writes the registry to path, creating the directory if needed.
func (r *ToolRegistry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	defer f.Close()

	return r.Write(f)
}
