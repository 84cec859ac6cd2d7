package diag

import "prefabls/internal/source"

func New(sev Severity, code Code, span source.Span, rng source.Range, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Span:     span,
		Range:    rng,
		Message:  msg,
	}
}

func NewError(code Code, span source.Span, rng source.Range, msg string) Diagnostic {
	return New(SevError, code, span, rng, msg)
}

func NewWarning(code Code, span source.Span, rng source.Range, msg string) Diagnostic {
	return New(SevWarning, code, span, rng, msg)
}

func (d Diagnostic) WithData(p Payload) Diagnostic {
	d.Data = p
	return d
}
