package entigo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/entigo/match"
	"github.com/hupe1980/entigo/schema"
)

var (
	// ErrConfiguration marks construction-time failures. Every invalid
	// schema binding, rule parameter or matcher setup surfaces through
	// this sentinel; the underlying typed error remains reachable via
	// errors.As.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMissingSchema is returned when a pipeline is created without a schema.
	ErrMissingSchema = errors.New("schema must not be nil")

	// ErrNoMatchers is returned when a pipeline is created without any matcher.
	ErrNoMatchers = errors.New("at least one matcher required")
)

// ErrMatcherFailed indicates a matcher aborted a run with a non-recoverable
// error (for example an index backend that could not be reached).
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrMatcherFailed struct {
	Matcher string
	cause   error
}

func (e *ErrMatcherFailed) Error() string {
	return fmt.Sprintf("matcher %q failed: %v", e.Matcher, e.cause)
}

func (e *ErrMatcherFailed) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Construction-time unification: typed schema/matcher errors become
	// configuration errors at the facade boundary.
	var unknownTag *schema.ErrUnknownTag
	if errors.As(err, &unknownTag) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var invalidTag *schema.ErrInvalidTag
	if errors.As(err, &invalidTag) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var notBound *schema.ErrTagNotBound
	if errors.As(err, &notBound) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var emptyColumn *schema.ErrEmptyColumn
	if errors.As(err, &emptyColumn) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var unbound *match.ErrUnboundTag
	if errors.As(err, &unbound) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var threshold *match.ErrInvalidThreshold
	if errors.As(err, &threshold) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var confidence *match.ErrInvalidConfidence
	if errors.As(err, &confidence) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var maxEdits *match.ErrInvalidMaxEdits
	if errors.As(err, &maxEdits) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var neighbours *match.ErrInvalidNeighbourCount
	if errors.As(err, &neighbours) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	switch {
	case errors.Is(err, match.ErrMissingSchema),
		errors.Is(err, match.ErrMissingModel),
		errors.Is(err, match.ErrMissingIndexFactory),
		errors.Is(err, match.ErrNoRules),
		errors.Is(err, match.ErrNoTags):
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return err
}
