package cliopts

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

type FlagSet interface {
	VisitAll(fn func(*pflag.Flag))
}

// DefaultsFromEnv sets any unset flag from its environment variable: the
// prefix, followed by the flag name in upper case with dashes replaced by
// underscores (--log-level is set from PREFIX_LOG_LEVEL).
//
// DefaultsFromEnv should be called after FlagSet.Parse, but before any flags
// are used. Errors for each flag are combined with multierr.
func DefaultsFromEnv(prefix string, flags FlagSet) error {
	replacer := strings.NewReplacer("-", "_")
	prefix = prefix + "_"

	var errs error
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed {
			return
		}

		key := strings.ToUpper(prefix + replacer.Replace(flag.Name))
		v, exists := os.LookupEnv(key)
		if !exists {
			return
		}
		if err := flag.Value.Set(v); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to set %v from environment variable: %w", flag.Name, err))
		}
	})
	return errs
}
