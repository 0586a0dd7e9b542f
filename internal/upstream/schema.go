package upstream

// Schema describes one parameter in a function declaration, a restricted
// JSON-schema shape the engine understands.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// FunctionDeclaration advertises one callable tool in the session setup.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Object is shorthand for an object schema with the given properties.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: "OBJECT", Properties: props, Required: required}
}

// Str is shorthand for a described string schema.
func Str(desc string) *Schema {
	return &Schema{Type: "STRING", Description: desc}
}

// Num is shorthand for a described number schema.
func Num(desc string) *Schema {
	return &Schema{Type: "NUMBER", Description: desc}
}
