package llm

// Tool is a caller-supplied function the model may request to invoke.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters"`
}

// NewTool creates a tool definition. A nil schema is sent as an empty object schema.
func NewTool(name, description string, parameters *Schema) Tool {
	if parameters == nil {
		parameters = Object("")
	}
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
}
