package resolve

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"prefabls/internal/catalog"
)

// Outcome classifies a coercion.
type Outcome uint8

const (
	// OK means Value holds the typed value.
	OK Outcome = iota
	// Retryable means the input was malformed; ask again.
	Retryable
	// Unretryable means no input can succeed.
	Unretryable
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Retryable:
		return "retryable"
	case Unretryable:
		return "unretryable"
	default:
		return "unknown"
	}
}

var (
	ErrNoType        = errors.New("cannot determine the value type of this config")
	ErrInvalidBool   = errors.New("expected true or false")
	ErrInvalidInt    = errors.New("not a valid integer")
	ErrIntTooLarge   = errors.New("integer is too large")
	ErrInvalidDouble = errors.New("not a valid number")
	ErrInvalidLevel  = errors.New("not a valid log level")
)

// CoerceResult is the tagged result of Coerce. Err is set unless Outcome is
// OK.
type CoerceResult struct {
	Outcome Outcome
	Value   *catalog.ConfigValue
	Err     error
}

var (
	intPattern    = regexp.MustCompile(`^-?\d+$`)
	doublePattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// maxSafeInt is the exclusive magnitude limit for integers.
const maxSafeInt = 1 << 53

var logLevels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func ok(v *catalog.ConfigValue) CoerceResult { return CoerceResult{Outcome: OK, Value: v} }

func retry(err error) CoerceResult { return CoerceResult{Outcome: Retryable, Err: err} }

// Coerce converts user input into a value of the target type. It never
// panics.
func Coerce(target catalog.ValueType, input string) CoerceResult {
	switch target {
	case catalog.ValueTypeBool:
		switch {
		case strings.EqualFold(input, "true"):
			b := true
			return ok(&catalog.ConfigValue{Bool: &b})
		case strings.EqualFold(input, "false"):
			b := false
			return ok(&catalog.ConfigValue{Bool: &b})
		}
		return retry(ErrInvalidBool)

	case catalog.ValueTypeInt:
		if !intPattern.MatchString(input) {
			return retry(ErrInvalidInt)
		}
		n, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return retry(ErrIntTooLarge)
			}
			return retry(ErrInvalidInt)
		}
		if n >= maxSafeInt || n <= -maxSafeInt {
			return retry(ErrIntTooLarge)
		}
		return ok(&catalog.ConfigValue{Int: &n})

	case catalog.ValueTypeDouble:
		if !doublePattern.MatchString(input) {
			return retry(ErrInvalidDouble)
		}
		f, err := strconv.ParseFloat(input, 64)
		if err != nil || math.IsInf(f, 0) {
			return retry(ErrInvalidDouble)
		}
		return ok(&catalog.ConfigValue{Double: &f})

	case catalog.ValueTypeString:
		s := input
		return ok(&catalog.ConfigValue{String: &s})

	case catalog.ValueTypeStringList:
		parts := strings.Split(input, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return ok(&catalog.ConfigValue{StringList: &catalog.StringList{Values: parts}})

	case catalog.ValueTypeLogLevel:
		for _, lvl := range logLevels {
			if strings.EqualFold(strings.TrimSpace(input), lvl) {
				return ok(&catalog.ConfigValue{LogLevel: &lvl})
			}
		}
		return retry(ErrInvalidLevel)

	default:
		return CoerceResult{Outcome: Unretryable, Err: ErrNoType}
	}
}

// TargetTypeFor infers the coercion target from the current value: the
// Default row first, then the first populated value in any other row. An
// entry with no value anywhere yields ValueTypeUnknown, even when a value
// type is declared.
func TargetTypeFor(entry *catalog.ConfigEntry) catalog.ValueType {
	if entry == nil {
		return catalog.ValueTypeUnknown
	}
	if row, ok := entry.DefaultRow(); ok {
		if t := rowType(row); t != catalog.ValueTypeUnknown {
			return t
		}
	}
	for i := range entry.Rows {
		if t := rowType(&entry.Rows[i]); t != catalog.ValueTypeUnknown {
			return t
		}
	}
	return catalog.ValueTypeUnknown
}

func rowType(row *catalog.Row) catalog.ValueType {
	for _, v := range row.Values {
		if t := typeOf(v.Value); t != catalog.ValueTypeUnknown {
			return t
		}
	}
	return catalog.ValueTypeUnknown
}

func typeOf(v *catalog.ConfigValue) catalog.ValueType {
	switch v.Kind() {
	case catalog.KindString, catalog.KindProvided:
		return catalog.ValueTypeString
	case catalog.KindStringList:
		return catalog.ValueTypeStringList
	case catalog.KindInt:
		return catalog.ValueTypeInt
	case catalog.KindBool:
		return catalog.ValueTypeBool
	case catalog.KindDouble:
		return catalog.ValueTypeDouble
	case catalog.KindLogLevel:
		return catalog.ValueTypeLogLevel
	case catalog.KindWeighted:
		for _, wv := range v.WeightedValues.Values {
			if t := typeOf(&wv.Value); t != catalog.ValueTypeUnknown {
				return t
			}
		}
	}
	return catalog.ValueTypeUnknown
}

// RetryPrompt prefixes the failure to the original prompt.
func RetryPrompt(prompt string, err error) string {
	if err == nil {
		return prompt
	}
	return fmt.Sprintf("%s. %s", capitalize(err.Error()), prompt)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
