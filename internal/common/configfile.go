package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatFromPath guesses the config format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// EncodeConfig renders a config in the requested format. Durations are kept
// as strings ("30s") in both formats so the output loads back unchanged.
func EncodeConfig(cfg *Config, format string) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, WrapError(err, "encode config")
	}
	if format == FormatYAML {
		return data, nil
	}
	return ConvertDocument(data, format)
}

// ConvertDocument converts a YAML or JSON document into the target format.
func ConvertDocument(data []byte, format string) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse document", err)
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, WrapError(err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, WrapError(err, "encode yaml")
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, WrapError(err, "encode json")
		}
		return append(out, '\n'), nil
	default:
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported format %q", format), ErrInvalidInput)
	}
}

// DiffConfigs lists the dotted keys whose values differ between two configs.
func DiffConfigs(a, b *Config) ([]string, error) {
	left, err := flattenConfig(a)
	if err != nil {
		return nil, err
	}
	right, err := flattenConfig(b)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(left))
	for k := range left {
		keys[k] = struct{}{}
	}
	for k := range right {
		keys[k] = struct{}{}
	}

	var diffs []string
	for k := range keys {
		if !reflect.DeepEqual(left[k], right[k]) {
			diffs = append(diffs, fmt.Sprintf("%s: %v -> %v", k, left[k], right[k]))
		}
	}
	sort.Strings(diffs)
	return diffs, nil
}

func flattenConfig(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, WrapError(err, "encode config")
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, WrapError(err, "decode config")
	}
	out := make(map[string]any)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}
