package gasless

// Version constants
const (
	// Version is the relay SDK version
	Version = "1.0.0"

	// TransferPath is the relay route the wallet client posts signed requests to
	TransferPath = "/api/transfer"

	// VerifyPath is the dry-run route that verifies without executing
	VerifyPath = "/api/verify"

	// SupportedPath describes what the relay will sponsor
	SupportedPath = "/api/supported"
)

// Network is a CAIP-2 chain identifier such as "eip155:11155111"
type Network string

// String returns the network identifier
func (n Network) String() string {
	return string(n)
}
