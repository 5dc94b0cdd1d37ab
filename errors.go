package gasless

import "fmt"

// VerifyError is returned when a forward request fails verification.
// Reason is a stable snake_case code callers can switch on.
type VerifyError struct {
	Reason  string
	Signer  string
	Network Network
	Err     error
}

// NewVerifyError creates a VerifyError
func NewVerifyError(reason string, signer string, network Network, err error) *VerifyError {
	return &VerifyError{
		Reason:  reason,
		Signer:  signer,
		Network: network,
		Err:     err,
	}
}

func (e *VerifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("verification failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("verification failed: %s", e.Reason)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// ExecuteError is returned when a verified request could not be executed on-chain.
// Transaction is set once a transaction has been broadcast.
type ExecuteError struct {
	Reason      string
	Signer      string
	Network     Network
	Transaction string
	Err         error
}

// NewExecuteError creates an ExecuteError
func NewExecuteError(reason string, signer string, network Network, transaction string, err error) *ExecuteError {
	return &ExecuteError{
		Reason:      reason,
		Signer:      signer,
		Network:     network,
		Transaction: transaction,
		Err:         err,
	}
}

func (e *ExecuteError) Error() string {
	msg := "execution failed: " + e.Reason
	if e.Transaction != "" {
		msg += " (tx " + e.Transaction + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecuteError) Unwrap() error {
	return e.Err
}
