package loader

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/optionspicker/types"
)

// ValidationError collects every problem found in a preset.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Unwrap lets callers match the preset failure with errors.Is.
func (e *ValidationError) Unwrap() error {
	return types.ErrInvalidArgument
}

// compile turns collected definitions into validated options.
func compile(coll *collector) (*Preset, error) {
	ve := &ValidationError{}
	preset := &Preset{Title: strings.TrimSpace(coll.title)}
	seen := map[string]string{}

	if len(coll.options) == 0 {
		ve.Errors = append(ve.Errors, "preset defines no options")
	}

	for _, raw := range coll.options {
		weight, ok := luaWeight(raw.weight)
		if !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: option %q: weight must be a number", raw.source, raw.name))
			continue
		}
		o, err := types.NewOption(raw.name, weight)
		if err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: option %q: %v", raw.source, raw.name, err))
			continue
		}
		key := strings.ToLower(o.Name)
		if first, dup := seen[key]; dup {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: option %q already defined at %s", raw.source, o.Name, first))
			continue
		}
		seen[key] = raw.source
		preset.Options = append(preset.Options, o)
	}

	if len(ve.Errors) > 0 {
		return nil, ve
	}
	return preset, nil
}

// luaWeight converts a weight value; nil means the default of 1.
func luaWeight(v lua.LValue) (float64, bool) {
	switch w := v.(type) {
	case lua.LNumber:
		return float64(w), true
	case *lua.LNilType:
		return 1, true
	default:
		return 0, false
	}
}
