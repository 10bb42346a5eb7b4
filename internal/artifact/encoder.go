package artifact

import (
	"errors"
	"fmt"
)

// LabelEncoder maps class indices to family names.
type LabelEncoder struct {
	ClassNames []string `json:"classes"`
}

func (e *LabelEncoder) validate() error {
	if len(e.ClassNames) == 0 {
		return errors.New("label encoder has no classes")
	}

	seen := make(map[string]struct{}, len(e.ClassNames))
	for _, name := range e.ClassNames {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("label encoder repeats class %q", name)
		}
		seen[name] = struct{}{}
	}

	return nil
}

// Classes returns a copy of the known family names in index order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.ClassNames))
	copy(out, e.ClassNames)
	return out
}

func (e *LabelEncoder) Len() int {
	return len(e.ClassNames)
}

// InverseTransform returns the family name for a class index.
func (e *LabelEncoder) InverseTransform(idx int) (string, error) {
	if idx < 0 || idx >= len(e.ClassNames) {
		return "", fmt.Errorf("y contains previously unseen labels: [%d]", idx)
	}
	return e.ClassNames[idx], nil
}
