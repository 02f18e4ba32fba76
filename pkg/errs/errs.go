// Package errs defines the sentinel error categories used throughout
// cepgen-go: configuration, kinematics and integration errors are fatal
// to the run; an abort is a cooperative stop that keeps completed work;
// evaluation warnings are local to a single point.
package errs

import "errors"

var (
	// ErrConfiguration marks an unknown module name, a type mismatch, an
	// invalid limit, or a missing required parameter key. Raised at
	// load/build time; fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrKinematics marks limits that make the phase space empty, or an
	// invariant violation in particle kinematics. Raised from
	// PrepareKinematics; fatal.
	ErrKinematics = errors.New("kinematics error")

	// ErrIntegration marks a non-success code from the integration
	// primitive, or a chi-squared failure to converge. Fatal for
	// Integrate().
	ErrIntegration = errors.New("integration error")

	// ErrAborted marks a cooperative stop triggered by the run-wide abort
	// flag. Not itself fatal: work already completed is preserved.
	ErrAborted = errors.New("run aborted")
)
