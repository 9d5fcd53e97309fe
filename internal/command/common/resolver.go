package common

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	"gopkg.in/yaml.v3"
)

// NewFileSourceFromFlagFunc returns an input source reading the flag values
// from the YAML file named by the given flag.
func NewFileSourceFromFlagFunc(flag string) func(cCtx *cli.Context) (altsrc.InputSourceContext, error) {
	return func(cCtx *cli.Context) (altsrc.InputSourceContext, error) {
		if path := cCtx.String(flag); path != "" {
			return NewFileInputSource(path)
		}

		return altsrc.NewMapInputSource("", map[any]any{}), nil
	}
}

func NewFileInputSource(path string) (altsrc.InputSourceContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read configuration file '%s'", path)
	}

	ext := filepath.Ext(path)
	switch ext {
	case ".json", ".yaml", ".yml":
		var values map[string]any

		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrapf(err, "could not parse configuration file '%s'", path)
		}

		return altsrc.NewMapInputSource(path, rewriteRelativePaths(path, toAnyMap(values))), nil

	default:
		return nil, errors.Errorf("no parser associated with '%s' file extension", ext)
	}
}

func toAnyMap(values map[string]any) map[any]any {
	converted := make(map[any]any, len(values))
	for key, value := range values {
		if nested, ok := value.(map[string]any); ok {
			converted[key] = toAnyMap(nested)
			continue
		}

		converted[key] = value
	}

	return converted
}

// Paths relative to the configuration file are resolved against its directory.
var pathKeys = map[string]struct{}{
	"directory": {},
}

func rewriteRelativePaths(path string, values map[any]any) map[any]any {
	dir := filepath.Dir(path)

	for key, rawValue := range values {
		name, ok := key.(string)
		if !ok {
			continue
		}

		if _, isPath := pathKeys[name]; !isPath {
			continue
		}

		value, ok := rawValue.(string)
		if !ok || value == "" || filepath.IsAbs(value) {
			continue
		}

		values[key] = filepath.Join(dir, value)
	}

	return values
}
