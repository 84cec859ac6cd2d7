package catalog

import "fmt"

// ConfigType separates plain configs from feature flags.
type ConfigType string

const (
	ConfigTypeConfig      ConfigType = "config"
	ConfigTypeFeatureFlag ConfigType = "feature_flag"
)

// ValueType is the declared type of a config's values.
type ValueType string

const (
	ValueTypeUnknown    ValueType = ""
	ValueTypeString     ValueType = "string"
	ValueTypeStringList ValueType = "string_list"
	ValueTypeInt        ValueType = "int"
	ValueTypeBool       ValueType = "bool"
	ValueTypeDouble     ValueType = "double"
	ValueTypeLogLevel   ValueType = "log_level"
)

// ValueKind names the populated variant of a ConfigValue.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindString
	KindStringList
	KindInt
	KindBool
	KindDouble
	KindLogLevel
	KindWeighted
	KindProvided
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringList:
		return "stringList"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindDouble:
		return "double"
	case KindLogLevel:
		return "logLevel"
	case KindWeighted:
		return "weightedValues"
	case KindProvided:
		return "provided"
	default:
		return "none"
	}
}

func (k ValueKind) GoString() string {
	return fmt.Sprintf("ValueKind(%s)", k.String())
}

// Environment is a deployment environment tracked by the catalog.
type Environment struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// StringList wraps a list value so that an empty list is still populated.
type StringList struct {
	Values []string `yaml:"values"`
}

// WeightedValue is one variant of a percentage rollout.
type WeightedValue struct {
	Weight int         `yaml:"weight"`
	Value  ConfigValue `yaml:"value"`
}

// WeightedValues is a percentage rollout. Weights are expected to sum to 100.
type WeightedValues struct {
	Values []WeightedValue `yaml:"values"`
}

// Provided is a value read at runtime from the environment.
type Provided struct {
	Source string `yaml:"source"` // e.g. ENV_VAR
	Lookup string `yaml:"lookup"` // variable name
}

// ConfigValue holds exactly one populated variant.
type ConfigValue struct {
	String         *string         `yaml:"string,omitempty"`
	StringList     *StringList     `yaml:"stringList,omitempty"`
	Int            *int64          `yaml:"int,omitempty"`
	Bool           *bool           `yaml:"bool,omitempty"`
	Double         *float64        `yaml:"double,omitempty"`
	LogLevel       *string         `yaml:"logLevel,omitempty"`
	WeightedValues *WeightedValues `yaml:"weightedValues,omitempty"`
	Provided       *Provided       `yaml:"provided,omitempty"`
}

// Kind returns the first populated variant.
func (v *ConfigValue) Kind() ValueKind {
	switch {
	case v == nil:
		return KindNone
	case v.Provided != nil:
		return KindProvided
	case v.WeightedValues != nil:
		return KindWeighted
	case v.String != nil:
		return KindString
	case v.StringList != nil:
		return KindStringList
	case v.Int != nil:
		return KindInt
	case v.Bool != nil:
		return KindBool
	case v.Double != nil:
		return KindDouble
	case v.LogLevel != nil:
		return KindLogLevel
	default:
		return KindNone
	}
}

// Criterion is one targeting condition.
type Criterion struct {
	PropertyName string       `yaml:"propertyName"`
	Operator     string       `yaml:"operator"`
	ValueToMatch *ConfigValue `yaml:"valueToMatch,omitempty"`
}

// Value is a possibly targeted value within a row.
type Value struct {
	Criteria []Criterion  `yaml:"criteria,omitempty"`
	Value    *ConfigValue `yaml:"value,omitempty"`
}

// Row holds the values of one environment. A row without EnvironmentID is
// the Default row.
type Row struct {
	EnvironmentID string  `yaml:"environmentId,omitempty"`
	Values        []Value `yaml:"values"`
}

// IsDefault reports whether the row applies to every environment without its
// own row.
func (r *Row) IsDefault() bool {
	return r.EnvironmentID == ""
}

// HasRules reports whether the row is ruled: more than one value, or a single
// value gated by criteria.
func (r *Row) HasRules() bool {
	return len(r.Values) > 1 || len(r.Values) == 1 && len(r.Values[0].Criteria) > 0
}

// ConfigEntry is the catalog metadata of one config or feature flag.
type ConfigEntry struct {
	Key       string     `yaml:"key"`
	Type      ConfigType `yaml:"type"`
	ValueType ValueType  `yaml:"valueType,omitempty"`
	Rows      []Row      `yaml:"rows"`
}

// IsFlag reports whether the entry is a feature flag.
func (e *ConfigEntry) IsFlag() bool {
	return e != nil && e.Type == ConfigTypeFeatureFlag
}

// DefaultRow returns the row without an environment id.
func (e *ConfigEntry) DefaultRow() (*Row, bool) {
	if e == nil {
		return nil, false
	}
	for i := range e.Rows {
		if e.Rows[i].IsDefault() {
			return &e.Rows[i], true
		}
	}
	return nil, false
}
