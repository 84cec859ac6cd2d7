package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"prefabls/internal/catalog"
	"prefabls/internal/diag"
	"prefabls/internal/resolve"
	"prefabls/internal/trace"
)

const (
	commandCreateConfig = "prefab.createConfig"
	commandEditConfig   = "prefab.editConfig"
)

// createConfigArgs is the argument of prefab.createConfig. Value is the raw
// user input; it is coerced to ValueType. Provided creates a config read
// from that environment variable instead.
type createConfigArgs struct {
	Key       string  `json:"key"`
	Kind      string  `json:"kind"`
	ValueType string  `json:"valueType,omitempty"`
	Value     *string `json:"value,omitempty"`
	Provided  string  `json:"provided,omitempty"`
}

type createConfigResult struct {
	Key string `json:"key"`
}

// editConfigArgs is the argument of prefab.editConfig. Environment is an id
// or a name; empty or "Default" selects the Default row. Value is coerced to
// the type of the value the config already holds.
type editConfigArgs struct {
	Key         string  `json:"key"`
	Environment string  `json:"environment,omitempty"`
	Value       *string `json:"value,omitempty"`
}

type editConfigResult struct {
	Key         string `json:"key"`
	Environment string `json:"environment"`
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	if len(params.Arguments) != 1 {
		return s.sendError(msg.ID, codeInvalidParams, "expected one argument")
	}
	var (
		result any
		err    error
	)
	switch params.Command {
	case commandCreateConfig:
		result, err = s.runCreateConfig(params.Arguments[0])
	case commandEditConfig:
		result, err = s.runEditConfig(params.Arguments[0])
	default:
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown command %q", params.Command))
	}
	if err != nil {
		var retry *retryError
		if errors.As(err, &retry) {
			return s.sendError(msg.ID, codeInvalidParams, retry.prompt)
		}
		trace.Error(s.tracer, trace.ScopeServer, params.Command, err)
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) runCreateConfig(raw json.RawMessage) (any, error) {
	var args createConfigArgs
	if err := json.Unmarshal(raw, &args); err != nil || args.Key == "" {
		return nil, &retryError{prompt: "invalid arguments"}
	}
	entry, err := newEntry(args)
	if err != nil {
		return nil, err
	}
	if err := s.createConfig(entry); err != nil {
		return nil, err
	}
	return createConfigResult{Key: entry.Key}, nil
}

func (s *Server) runEditConfig(raw json.RawMessage) (any, error) {
	var args editConfigArgs
	if err := json.Unmarshal(raw, &args); err != nil || args.Key == "" {
		return nil, &retryError{prompt: "invalid arguments"}
	}
	entry, ok := s.catalog.Raw(args.Key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrNotFound, args.Key)
	}
	envID, envName, ok := s.lookupEnvironment(args.Environment)
	if !ok {
		return nil, &retryError{prompt: fmt.Sprintf("Unknown environment %q", args.Environment)}
	}

	target := resolve.TargetTypeFor(entry)
	prompt := fmt.Sprintf("Enter the new %s value for %s in %s", target, args.Key, envName)
	if args.Value == nil {
		return nil, &retryError{prompt: prompt}
	}
	res := resolve.Coerce(target, *args.Value)
	switch res.Outcome {
	case resolve.OK:
	case resolve.Retryable:
		return nil, &retryError{prompt: resolve.RetryPrompt(prompt, res.Err)}
	default:
		return nil, fmt.Errorf("%s: %w", args.Key, res.Err)
	}

	src := s.currentSource()
	if src == nil {
		return nil, errors.New("no catalog file configured")
	}
	if err := catalog.SetValue(src.Path, args.Key, envID, res.Value); err != nil {
		return nil, err
	}
	if _, err := src.Load(s.baseCtx); err != nil {
		return nil, err
	}
	return editConfigResult{Key: args.Key, Environment: envName}, nil
}

// lookupEnvironment resolves an environment by id or case-insensitive name.
// The empty string and "Default" select the Default row, whose id is empty.
func (s *Server) lookupEnvironment(env string) (id, name string, ok bool) {
	env = strings.TrimSpace(env)
	if env == "" || strings.EqualFold(env, "Default") {
		return "", "Default", true
	}
	for _, e := range s.catalog.Environments() {
		if e.ID == env || strings.EqualFold(e.Name, env) {
			return e.ID, e.Name, true
		}
	}
	return "", "", false
}

// retryError carries the prompt to show when the input can be corrected.
type retryError struct {
	prompt string
}

func (e *retryError) Error() string { return e.prompt }

func newEntry(args createConfigArgs) (*catalog.ConfigEntry, error) {
	typ := catalog.ConfigTypeConfig
	if args.Kind == string(diag.KeyFeatureFlag) {
		typ = catalog.ConfigTypeFeatureFlag
	}
	if args.Provided != "" {
		value := &catalog.ConfigValue{Provided: &catalog.Provided{Source: "ENV_VAR", Lookup: args.Provided}}
		return catalog.NewEntry(args.Key, typ, catalog.ValueTypeString, value), nil
	}

	valueType := catalog.ValueType(args.ValueType)
	if valueType == "" {
		valueType = catalog.ValueTypeString
		if typ == catalog.ConfigTypeFeatureFlag {
			valueType = catalog.ValueTypeBool
		}
	}
	input := ""
	switch {
	case args.Value != nil:
		input = *args.Value
	case typ == catalog.ConfigTypeFeatureFlag:
		input = "false"
	default:
		return nil, &retryError{prompt: fmt.Sprintf("Enter a value for %s", args.Key)}
	}
	res := resolve.Coerce(valueType, input)
	switch res.Outcome {
	case resolve.OK:
		return catalog.NewEntry(args.Key, typ, valueType, res.Value), nil
	case resolve.Retryable:
		return nil, &retryError{prompt: resolve.RetryPrompt(fmt.Sprintf("Enter a %s value for %s", valueType, args.Key), res.Err)}
	default:
		return nil, res.Err
	}
}

// createConfig appends entry to the catalog file and reloads it, which
// re-runs diagnostics for every open document.
func (s *Server) createConfig(entry *catalog.ConfigEntry) error {
	src := s.currentSource()
	if src == nil {
		return errors.New("no catalog file configured")
	}
	if err := catalog.AppendEntry(src.Path, entry); err != nil {
		return err
	}
	if _, err := src.Load(s.baseCtx); err != nil {
		return err
	}
	return nil
}
