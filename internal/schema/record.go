package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
)

// Record maps feature names to raw decoded JSON values. Keys outside the
// schema are ignored.
type Record map[string]any

// ValidationError lists the schema keys a record is missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, name := range e.Missing {
		quoted[i] = "'" + name + "'"
	}
	return "Faltan variables: [" + strings.Join(quoted, ", ") + "]"
}

var presenceRule = func() validation.MapRule {
	keys := make([]*validation.KeyRules, 0, Width)
	for _, name := range Features {
		keys = append(keys, validation.Key(name))
	}
	return validation.Map(keys...).AllowExtraKeys()
}()

// Decode parses a request body as a JSON object regardless of its declared
// content type. Numbers are kept as json.Number until Vector coerces them.
func Decode(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("invalid JSON body: empty request body")
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON body: unexpected data after top-level value")
	}

	// An empty array carries no keys, so it validates as an empty record.
	if arr, ok := body.([]any); ok && len(arr) == 0 {
		return Record{}, nil
	}

	obj, ok := body.(map[string]any)
	if !ok || obj == nil {
		return nil, fmt.Errorf("invalid JSON body: expected an object, got %s", jsonKind(body))
	}

	return Record(obj), nil
}

// Validate returns a *ValidationError naming every missing schema key in
// schema order, or nil when the record is complete.
func Validate(rec Record) error {
	if rec == nil {
		return &ValidationError{Missing: Names()}
	}

	err := presenceRule.Validate(rec)
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	var missing []string
	for _, name := range Features {
		keyErr, ok := errs[name]
		if !ok {
			continue
		}
		if verr, ok := keyErr.(validation.Error); ok && verr.Code() == validation.ErrKeyMissing.Code() {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return &ValidationError{Missing: missing}
}

// Vector reads every schema key in order and coerces it to float64.
func Vector(rec Record) ([]float64, error) {
	vec := make([]float64, Width)

	for i, name := range Features {
		raw, ok := rec[name]
		if !ok {
			return nil, &ValidationError{Missing: []string{name}}
		}

		v, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		vec[i] = v
	}

	return vec, nil
}

func toFloat(raw any) (float64, error) {
	var (
		v   float64
		err error
	)

	switch val := raw.(type) {
	case nil:
		return 0, errors.New("value is null")
	case json.Number:
		v, err = val.Float64()
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, fmt.Errorf("cannot convert %q to a number", val)
		}
		v, err = cast.ToFloat64E(trimmed)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", val)
		}
	case map[string]any, []any:
		return 0, fmt.Errorf("cannot convert %s to a number", jsonKind(val))
	default:
		v, err = cast.ToFloat64E(val)
	}

	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("value must be a finite number")
	}

	return v, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
