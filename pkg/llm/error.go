// Package llm provides the wire representations of chat completion requests
// and responses exchanged with an OpenAI-compatible provider.
package llm

import (
	"encoding/json"
	"strconv"
)

// ErrorResponse is the body returned by the chatcbt HTTP API on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is the error object a provider embeds in a response body.
type APIError struct {
	Message string `json:"message"`
	Code    Code   `json:"code,omitempty"`
}

// Code is a provider error code. Providers send it either as a JSON string
// or as a number (OpenRouter uses the HTTP status). Any other shape leaves
// the code empty so the error message still decodes.
type Code string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Code) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Code(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Code(n.String())
		return nil
	}

	*c = ""
	return nil
}

// Int returns the code as an integer, or 0 when it is not numeric.
func (c Code) Int() int {
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return 0
	}
	return n
}
