package diagnose

import (
	"context"
	"fmt"

	"prefabls/internal/detect"
	"prefabls/internal/diag"
)

// MissingKeyAnalyzer reports call sites whose key is not in the catalog. A
// missing config has no safe fallback and is an error; a missing flag
// evaluates to false and is a warning.
type MissingKeyAnalyzer struct {
	Keys KeySet
}

func (MissingKeyAnalyzer) Name() string { return "missing-key" }

func (a MissingKeyAnalyzer) Analyze(ctx context.Context, req Request) ([]diag.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	missing := FilterForMissingKeys(req.Locations, a.Keys)
	out := make([]diag.Diagnostic, 0, len(missing))
	for _, l := range missing {
		out = append(out, MissingKeyDiagnostic(l))
	}
	return out, nil
}

// MissingKeyDiagnostic builds the diagnostic for one unknown key. It spans
// the key literal.
func MissingKeyDiagnostic(l detect.MethodLocation) diag.Diagnostic {
	if l.Type == detect.MethodIsEnabled {
		return diag.NewWarning(diag.MissingFlagKey, l.KeySpan, l.KeyRange,
			fmt.Sprintf("Feature flag %q is not defined (evaluates to false)", l.Key)).
			WithData(diag.Payload{Key: l.Key, Kind: diag.KeyFeatureFlag, Method: l.Type.String()})
	}
	return diag.NewError(diag.MissingConfigKey, l.KeySpan, l.KeyRange,
		fmt.Sprintf("Config key %q is not defined", l.Key)).
		WithData(diag.Payload{Key: l.Key, Kind: diag.KeyConfig, Method: l.Type.String()})
}
