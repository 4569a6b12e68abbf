package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/slang-tools/slangref/detect"
)

// convertArgs are the arguments of the convert commands:
// [uri, detection, key, value]. Key and value are optional for the custom
// key command.
type convertArgs struct {
	URI       string
	Detection detect.Detection
	Key       string
	Value     string
}

func decodeConvertArgs(args []any) (convertArgs, error) {
	if len(args) < 4 {
		return convertArgs{}, fmt.Errorf("convert: want 4 arguments, got %d", len(args))
	}
	a, err := decodeCommon(args)
	if err != nil {
		return a, err
	}
	if err := decodeArg(args[2], &a.Key); err != nil {
		return a, fmt.Errorf("convert: key: %w", err)
	}
	if err := decodeArg(args[3], &a.Value); err != nil {
		return a, fmt.Errorf("convert: value: %w", err)
	}
	if a.Key == "" {
		return a, fmt.Errorf("convert: empty key")
	}
	return a, nil
}

func decodeCustomKeyArgs(args []any) (convertArgs, error) {
	if len(args) < 2 {
		return convertArgs{}, fmt.Errorf("convert with custom key: want at least 2 arguments, got %d", len(args))
	}
	a, err := decodeCommon(args)
	if err != nil {
		return a, err
	}
	if len(args) > 2 && args[2] != nil {
		if err := decodeArg(args[2], &a.Key); err != nil {
			return a, fmt.Errorf("convert with custom key: key: %w", err)
		}
	}
	a.Value = a.Detection.Value
	return a, nil
}

func decodeCommon(args []any) (convertArgs, error) {
	var a convertArgs
	if err := decodeArg(args[0], &a.URI); err != nil {
		return a, fmt.Errorf("document URI: %w", err)
	}
	if err := decodeArg(args[1], &a.Detection); err != nil {
		return a, fmt.Errorf("detection: %w", err)
	}
	if a.Detection.End <= a.Detection.Start {
		return a, fmt.Errorf("detection: empty span %d..%d", a.Detection.Start, a.Detection.End)
	}
	return a, nil
}

// decodeArg converts a generically decoded JSON value into v.
func decodeArg(arg any, v any) error {
	data, err := json.Marshal(arg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
