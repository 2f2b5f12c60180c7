package ports

import "github.com/layer-3/warden/core"

// Tokenizer converts between access tokens and their bearer strings
type Tokenizer interface {
	// Encode returns the bearer string for token
	Encode(token core.AccessToken) (string, error)

	// Decode authenticates a bearer string and returns the token id it carries
	Decode(value string) (string, error)
}
