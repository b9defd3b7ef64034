package errors

// Error codes for this module's front end.
//
// Error code ranges:
// E0100-E0199: Scanner errors
// E0200-E0299: Parser errors

const (
	// E0100: Scanner errors - unrecognized characters, malformed literals
	ErrorScanFailure = "E0100"

	// E0200: Parser errors - unexpected tokens, malformed statements
	ErrorSyntaxError = "E0200"
)
