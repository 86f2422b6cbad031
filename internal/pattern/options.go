package pattern

import (
	"fmt"
	"strings"

	"cmdforge/internal/diag"
)

// AliasPolicy decides which literal tokens may carry aliases.
type AliasPolicy uint8

const (
	// Unrestricted allows aliases on every literal (command declarations).
	Unrestricted AliasPolicy = iota
	// FirstTokenOnly allows aliases on the first token only (bind targets).
	FirstTokenOnly
)

func (p AliasPolicy) String() string {
	if p == FirstTokenOnly {
		return "first-token"
	}
	return "unrestricted"
}

// ParsePolicy reads the configuration spelling of a policy.
func ParsePolicy(s string) (AliasPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unrestricted":
		return Unrestricted, nil
	case "first-token", "first_token", "first":
		return FirstTokenOnly, nil
	}
	return Unrestricted, fmt.Errorf("unknown alias policy %q (expected unrestricted|first-token)", s)
}

type Options struct {
	Policy   AliasPolicy
	Reporter diag.Reporter // может быть nil, тогда ошибки игнорируем
}
