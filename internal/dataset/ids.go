// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrIdentifierExhausted is returned when no free identifier is found for a
// pronoun occurrence within the configured number of attempts.
var ErrIdentifierExhausted = errors.New("identifier space exhausted")

const defaultMaxAttempts = 1_000_000

// IDAssigner hands out dataset-wide unique occurrence identifiers of the
// form "<contextIndex>-<pronoun>-<j>". The disambiguation counter j is
// shared by every context and pronoun and never resets; it only advances
// when the candidate id is already taken.
type IDAssigner struct {
	used        map[string]struct{}
	counter     int
	maxAttempts int
}

// NewIDAssigner returns an assigner with an empty used-id set. maxAttempts
// bounds the collisions tolerated for one occurrence; zero or less uses the
// default.
func NewIDAssigner(maxAttempts int) *IDAssigner {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &IDAssigner{
		used:        make(map[string]struct{}),
		maxAttempts: maxAttempts,
	}
}

// Next registers and returns the identifier for an occurrence of pronoun in
// the context with index contextIndex.
func (a *IDAssigner) Next(contextIndex int, pronoun string) (string, error) {
	prefix := strconv.Itoa(contextIndex) + "-" + pronoun + "-"
	id := prefix + strconv.Itoa(a.counter)
	for attempts := 0; a.isUsed(id); attempts++ {
		if attempts >= a.maxAttempts {
			return "", fmt.Errorf("%w: %d attempts for %q in context %d", ErrIdentifierExhausted, attempts, pronoun, contextIndex)
		}
		a.counter++
		id = prefix + strconv.Itoa(a.counter)
	}
	a.used[id] = struct{}{}
	return id, nil
}

func (a *IDAssigner) isUsed(id string) bool {
	_, ok := a.used[id]
	return ok
}

// Len returns the number of identifiers registered so far, including those
// of occurrences with no candidates.
func (a *IDAssigner) Len() int { return len(a.used) }

// Counter returns the current value of the disambiguation counter.
func (a *IDAssigner) Counter() int { return a.counter }
