package gasless

// VerifyResponse is the result of a successful verification
type VerifyResponse struct {
	IsValid bool    `json:"isValid"`
	Signer  string  `json:"signer"`
	Network Network `json:"network"`
}

// ExecuteResponse is the result of a forwarded request that was mined successfully
type ExecuteResponse struct {
	Success     bool    `json:"success"`
	Transaction string  `json:"transaction"`
	Network     Network `json:"network"`
	Signer      string  `json:"signer"`
	BlockNumber uint64  `json:"blockNumber"`
}

// SupportedResponse describes the network, wallet and targets a relay sponsors
type SupportedResponse struct {
	Network        Network  `json:"network"`
	Relayer        string   `json:"relayer"`
	Forwarder      string   `json:"forwarder"`
	AllowedTargets []string `json:"allowedTargets"`
	MaxGas         string   `json:"maxGas"`
}

// OwnedNFT is a single ERC-721 token held by a wallet, as reported by an NFT index
type OwnedNFT struct {
	Contract    string `json:"contract"`
	TokenID     string `json:"tokenId"`
	TokenType   string `json:"tokenType,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Balance     string `json:"balance,omitempty"`
}
