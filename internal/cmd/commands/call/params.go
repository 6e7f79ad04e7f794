package call

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/hashicorp-forge/contextio/pkg/contextio"
)

// paramFlag collects repeated -param key=value flags.
type paramFlag []string

func (p *paramFlag) String() string {
	return strings.Join(*p, ",")
}

func (p *paramFlag) Set(v string) error {
	if _, _, ok := strings.Cut(v, "="); !ok {
		return fmt.Errorf("parameter %q is not in key=value form", v)
	}
	*p = append(*p, v)
	return nil
}

// Params returns the collected parameters. Later flags win over earlier ones
// with the same key.
func (p paramFlag) Params() (contextio.Params, error) {
	params := contextio.Params{}
	for _, kv := range p {
		k, v, _ := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("parameter %q has an empty key", kv)
		}

		if isTimestampParam(k) {
			ts, err := parseTimestamp(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", k, err)
			}
			v = ts
		}

		params[k] = v
	}
	return params, nil
}

func isTimestampParam(key string) bool {
	return strings.EqualFold(key, "since") || strings.EqualFold(key, "dateSent")
}

// parseTimestamp passes unix timestamps through and converts any other date
// to one.
func parseTimestamp(v string) (string, error) {
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v, nil
	}
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(t.Unix(), 10), nil
}
