package types

import (
	"encoding/json"
	"fmt"

	"github.com/gasless-nft/relay/mechanisms/evm"
)

// ExtractSigner reads the "from" field of a request body without decoding the rest.
// Used to tag log lines and errors before the body has been validated.
func ExtractSigner(body []byte) string {
	var partial struct {
		From string `json:"from"`
	}
	if err := json.Unmarshal(body, &partial); err != nil {
		return ""
	}
	return partial.From
}

// DecodeForwardRequest validates body against the schema and decodes it
func DecodeForwardRequest(body []byte) (*evm.ForwardRequestData, error) {
	if err := ValidateForwardRequest(body); err != nil {
		return nil, err
	}
	var req evm.ForwardRequestData
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to decode forward request: %w", err)
	}
	return &req, nil
}
