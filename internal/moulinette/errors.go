package moulinette

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidInputError rejects a whole evaluation: the request is malformed
// and no partial result is produced. Every other failure mode degrades to
// a non_disponible result somewhere in the tree.
type InvalidInputError struct {
	FieldErrors map[string]string
}

func (e *InvalidInputError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid input: %s", strings.Join(fields, ", "))
}

func (e *InvalidInputError) add(field, msg string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	if _, dup := e.FieldErrors[field]; !dup {
		e.FieldErrors[field] = msg
	}
}

func (e *InvalidInputError) empty() bool { return len(e.FieldErrors) == 0 }

// ConfigurationError marks a criterion binding that cannot run, typically
// an evaluator tag with no registered implementation. The criterion
// degrades to non_disponible.
type ConfigurationError struct {
	Evaluator string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("criterion configuration %q: %s", e.Evaluator, e.Reason)
}
