package util

import (
	"fmt"
	"os"
	"regexp"
)

// maxExpandPasses bounds expansion of values that expand to further references.
const maxExpandPasses = 10

// envRefPattern matches ${VAR} and ${VAR:-default}.
var envRefPattern = regexp.MustCompile(`\$\{([^:}]+)(:-([^}]*))?\}`)

// ExpandEnv expands environment variable references in a config value.
// ${VAR} must be set to a non-empty value; ${VAR:-default} falls back to
// default when VAR is unset or empty. Values that expand to further
// references are expanded again.
func ExpandEnv(value string) (string, error) {
	result := value

	for pass := 0; pass < maxExpandPasses; pass++ {
		var missing []string
		next := envRefPattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := envRefPattern.FindStringSubmatch(match)
			name, hasDefault, def := sub[1], sub[2] != "", sub[3]

			if val, ok := os.LookupEnv(name); ok && val != "" {
				return val
			}
			if hasDefault {
				return def
			}

			missing = append(missing, match)
			return match
		})

		if len(missing) > 0 {
			return "", fmt.Errorf("required environment variable(s) not set: %v", missing)
		}
		if next == result {
			break
		}
		result = next
	}

	return result, nil
}
