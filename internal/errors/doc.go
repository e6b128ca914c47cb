// Package errors provides coded, actionable errors for the cellclient CLI.
//
// Library packages return plain Go errors. The CLI wraps them at its
// boundary in an *Error carrying a code, a category, an explanation and a
// hint, and prints them with Format.
//
// # Error Categories
//
//   - transport: server URLs, dialing, the debug listener
//   - protocol: frame decoding, action names
//   - config: cellclient.json loading and validation
//   - recording: recording files and archive uploads
//   - cli: flags and arguments
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail("No cellclient.json in /home/me")
//
//	errors.Fprint(os.Stderr, err)
//	// Output:
//	// ERROR E101: Config file not found
//	//
//	//   No cellclient.json in /home/me
//	//
//	//   Hint: Run 'cellclient config init' to write one with default values
package errors
