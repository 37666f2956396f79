// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/chococar-site/versionfetch/pkg/types"
)

// ExitError carries the process exit code out of a RunE handler. Execute
// turns it into os.Exit after fang has printed the error.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// usageError wraps err with exit code 1.
func usageError(err error) *ExitError {
	return &ExitError{Code: types.ExitUsage, Err: err}
}

// ioError wraps err with exit code 2.
func ioError(err error) *ExitError {
	return &ExitError{Code: types.ExitIO, Err: err}
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %s", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
