package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errListenRequired     = errors.New("listen address is required")
	errListenInvalid      = errors.New("listen address must be host:port or :port")
	errPathRequired       = errors.New("path is required")
	errSSHUserRequired    = errors.New("SSH user is required")
	errConcurrencyInvalid = errors.New("concurrency must be a whole number of at least 1")
	errStepTimeoutInvalid = errors.New("step timeout must be a positive duration such as 15m")
	errPrivateKeyRequired = errors.New("private key path is required for key authentication")
	errUnknownAuthMethod  = errors.New("unknown SSH authentication method")
)
