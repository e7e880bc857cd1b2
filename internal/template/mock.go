package template

// MockValue returns the deterministic preview value for a registered
// variable, so previews render even when the request omits data. Unknown
// names return ok=false and the placeholder stays literal.
func MockValue(name string) (any, bool) {
	switch name {
	case "user":
		return map[string]any{
			"name":  "John Doe",
			"email": "john.doe@example.com",
			"id":    1,
		}, true
	case "verificationUrl":
		return "https://app.example.com/verify-email?id=1&expires=1893456000&signature=mock", true
	case "otpCode":
		return "123456", true
	case "shared_document_id":
		return "123", true
	case "document_pdf_id":
		return "456", true
	case "employee_id":
		return "789", true
	case "type":
		return "reminder", true
	}
	return nil, false
}

// WithMocks fills missing registered variables with their mock values.
func WithMocks(vars map[string]any, registered []string) map[string]any {
	out := make(map[string]any, len(vars)+len(registered))
	for k, v := range vars {
		out[k] = v
	}
	for _, name := range registered {
		if _, present := out[name]; present {
			continue
		}
		if v, ok := MockValue(name); ok {
			out[name] = v
		}
	}
	return out
}
