// Package diag centralizes the "print a diagnostic naming a file and
// terminate" behavior this repository's core uses for programmer-contract
// violations and file-format corruption: both are, by design, unrecoverable
// at this layer (see the core's error handling policy) and the caller is
// never expected to resume after one.
package diag

import (
	"fmt"
	"os"
)

// exit is swapped out in tests so Fatalf's termination path is exercised
// without killing the test binary.
var exit = os.Exit

// Fatalf prints a diagnostic naming file and terminates the process. It
// never returns.
func Fatalf(file, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", file, fmt.Sprintf(format, args...))
	exit(1)
}

// fatalSentinel is the panic value ExpectFatal's exit hook uses to unwind
// the stack the way a real os.Exit would terminate the process, without
// killing the test binary.
type fatalSentinel struct {
	code int
}

// ExpectFatal runs fn with Fatalf's exit hook overridden to panic instead
// of calling os.Exit, recovers that panic, and reports whether a Fatalf
// call fired during fn and with what code. It is exported so tests in
// other packages under this module can exercise a diag.Fatalf call site
// reached through their own code without killing the test binary.
func ExpectFatal(fn func()) (fired bool, code int) {
	orig := exit
	exit = func(c int) { panic(fatalSentinel{code: c}) }
	defer func() { exit = orig }()

	defer func() {
		if r := recover(); r != nil {
			sentinel, ok := r.(fatalSentinel)
			if !ok {
				panic(r)
			}
			fired = true
			code = sentinel.code
		}
	}()

	fn()
	return
}
