package jobdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
	ErrUnusedVariable        = errors.New("variable does not appear in template")
	ErrInvalidJSON           = errors.New("rendered template is not valid JSON")

	placeholderExpr = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// AccountIDVar is the placeholder the operational templates use for the
// target AWS account.
const AccountIDVar = "ACCOUNT_ID"

// Render substitutes ${NAME} placeholders in template with vars. Every
// placeholder must have a value and every variable must be referenced, and
// the rendered document must be valid JSON.
func Render(template []byte, vars map[string]string) ([]byte, error) {
	used := make(map[string]bool, len(vars))
	var missing []string

	rendered := placeholderExpr.ReplaceAllFunc(template, func(m []byte) []byte {
		name := string(placeholderExpr.FindSubmatch(m)[1])
		val, ok := vars[name]
		if !ok {
			missing = append(missing, name)

			return m
		}
		used[name] = true

		return []byte(val)
	})

	if len(missing) > 0 {
		sort.Strings(missing)

		return nil, fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, strings.Join(dedupe(missing), ", "))
	}

	var unused []string
	for name := range vars {
		if !used[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)

		return nil, fmt.Errorf("%w: %s", ErrUnusedVariable, strings.Join(unused, ", "))
	}

	if !json.Valid(rendered) {
		return nil, ErrInvalidJSON
	}

	return rendered, nil
}

func dedupe(names []string) []string {
	out := names[:0]
	for i, n := range names {
		if i == 0 || names[i-1] != n {
			out = append(out, n)
		}
	}

	return out
}
