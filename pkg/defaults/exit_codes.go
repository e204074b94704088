package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Clean exit
	ExitLoadError     = 1 // Data files missing, unparseable, or inconsistent
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitInternalError = 3 // Unexpected internal error
)
