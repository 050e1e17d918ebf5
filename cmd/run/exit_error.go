// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitError carries a subprocess exit status through cobra/fang so main can
// exit with the composed script's own code instead of a generic 1.
type ExitError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
