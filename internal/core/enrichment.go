package core

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// EnrichmentPolicy decides what a failed per-line lookup (product, tax,
// account) does to the operation that needed it.
type EnrichmentPolicy string

const (
	// EnrichDegrade keeps going with defaults and logs the failure.
	EnrichDegrade EnrichmentPolicy = "degrade"
	// EnrichStrict aborts the operation on the first failure.
	EnrichStrict EnrichmentPolicy = "strict"
)

// ParseEnrichmentPolicy maps a config value to a policy. Unknown values
// fall back to degrade.
func ParseEnrichmentPolicy(s string) EnrichmentPolicy {
	if EnrichmentPolicy(s) == EnrichStrict {
		return EnrichStrict
	}
	return EnrichDegrade
}

// LineEnrichment is the outcome of enriching one line. Err is nil on success.
type LineEnrichment struct {
	Index int
	What  string
	Err   error
}

// Failed returns only the failed outcomes.
func Failed(results []LineEnrichment) []LineEnrichment {
	var out []LineEnrichment
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Decide applies the policy once to all line outcomes of an operation.
// Under strict it returns an ErrDependencyFailure error listing every
// failed line; under degrade it logs them and returns nil together with
// human readable warnings.
func (p EnrichmentPolicy) Decide(op string, results []LineEnrichment, log zerolog.Logger) ([]string, error) {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil, nil
	}

	if p == EnrichStrict {
		errs := make([]error, 0, len(failed))
		for _, f := range failed {
			errs = append(errs, fmt.Errorf("line %d: %s: %w", f.Index+1, f.What, f.Err))
		}
		return nil, dependencyFailure(op, "line enrichment failed", errors.Join(errs...))
	}

	warnings := make([]string, 0, len(failed))
	for _, f := range failed {
		log.Warn().Str("op", op).Int("line", f.Index+1).Str("lookup", f.What).Err(f.Err).
			Msg("line enrichment failed, using defaults")
		warnings = append(warnings, fmt.Sprintf("line %d: %s unavailable, defaults used", f.Index+1, f.What))
	}
	return warnings, nil
}
