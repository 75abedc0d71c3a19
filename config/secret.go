package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// SecretRefPrefix marks a value resolved through a secret provider.
const SecretRefPrefix = "secretref:"

var (
	// ErrMissingEnv is returned when a referenced variable is unset.
	ErrMissingEnv = errors.New("config: missing environment variable")

	// ErrUnknownProvider is returned for secret refs with an unknown provider.
	ErrUnknownProvider = errors.New("config: unknown secret provider")
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands $VAR and ${VAR} in s. A ${VAR} whose variable
// is unset is an error. $$ emits a literal $.
func ExpandEnvStrict(s string) (string, error) {
	const dollar = "\x00REMOTEIMAGE_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok && !slices.Contains(missing, match[1]) {
			missing = append(missing, match[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}

// ResolveSecret expands value with ExpandEnvStrict and then resolves it
// if it is a secret reference of the form secretref:<provider>:<ref>.
//
// Providers:
//   - env: the value of environment variable ref, which must be set
//   - file: the contents of file ref with surrounding whitespace trimmed
func ResolveSecret(value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}

	provider, ref, ok := parseSecretRef(expanded)
	if !ok {
		return expanded, nil
	}
	switch provider {
	case "env":
		v, ok := os.LookupEnv(ref)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingEnv, ref)
		}
		return v, nil
	case "file":
		data, err := os.ReadFile(ref)
		if err != nil {
			return "", fmt.Errorf("config: read secret file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

func parseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, SecretRefPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, ok = strings.Cut(rest, ":")
	if !ok || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}
