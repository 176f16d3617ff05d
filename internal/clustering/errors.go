package clustering

import "errors"

var (
	// ErrNoData is returned when there is nothing to cluster.
	ErrNoData = errors.New("clustering: no data")

	// ErrDimensionMismatch is returned when feature vectors differ in length.
	ErrDimensionMismatch = errors.New("clustering: feature vectors differ in length")

	// ErrInvalidBandwidth is returned when the kernel bandwidth is not positive.
	ErrInvalidBandwidth = errors.New("clustering: bandwidth must be positive")

	// ErrInvalidQuantile is returned when the bandwidth quantile is outside (0, 1].
	ErrInvalidQuantile = errors.New("clustering: quantile must be in (0, 1]")

	// ErrNoConvergence is returned when no seed has any point within the
	// bandwidth.
	ErrNoConvergence = errors.New("clustering: no seed converged")

	// ErrNoRun is returned by Summary before the first clustering run.
	ErrNoRun = errors.New("clustering: no run recorded")

	// ErrNotClustered is returned by ClusterOf for events without a label.
	ErrNotClustered = errors.New("clustering: event not clustered")
)
