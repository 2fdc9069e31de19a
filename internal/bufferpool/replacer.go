package bufferpool

import (
	"fmt"

	"github.com/tuannm99/novabuf/pkg/lrukx"
)

type Policy string

const (
	PolicyLRUK  Policy = "lru-k"
	PolicyClock Policy = "clock"
	PolicyLRU   Policy = "lru"
)

var Policies = []Policy{PolicyLRUK, PolicyClock, PolicyLRU}

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyLRUK, PolicyClock, PolicyLRU:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// NewReplacer builds the replacer for policy. k only matters for lru-k.
func NewReplacer(policy Policy, capacity, k int) (Replacer, error) {
	switch policy {
	case PolicyLRUK:
		r, err := lrukx.New(capacity, k)
		if err != nil {
			return nil, err
		}
		return r, nil
	case PolicyClock:
		return newClockAdapter(capacity), nil
	case PolicyLRU:
		r, err := newLRUReplacer(capacity)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}
