// Package checkers builds first-party caveat predicates for use with
// the macaroon verifier. Conditions follow the common textual shape
// "name op value" ("account = 3735928559", "time < 2026-01-01T00:00");
// the helpers here parse that shape and produce the general predicates
// a Verifier accepts. A predicate returns false for any condition it
// does not recognize, so predicates for different condition names
// compose freely on one verifier.
package checkers

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Condition is the parsed "name op value" form of a first-party caveat.
type Condition struct {
	Name  string
	Op    string
	Value string
}

func (c Condition) String() string {
	return c.Name + " " + c.Op + " " + c.Value
}

// ParseCondition splits a caveat condition into its name, operator, and
// value. Conditions are free text on the wire; only this three-field
// shape is parseable here.
func ParseCondition(condition string) (Condition, error) {
	fields := strings.SplitN(strings.TrimSpace(condition), " ", 3)
	if len(fields) != 3 || fields[0] == "" || fields[1] == "" || fields[2] == "" {
		return Condition{}, errors.New("condition is not in \"name op value\" form")
	}
	return Condition{Name: fields[0], Op: fields[1], Value: strings.TrimSpace(fields[2])}, nil
}

// Time layouts accepted by TimeBefore, most specific first. Layouts
// without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime reads a deadline in any accepted layout.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", value)
}

// TimeBefore returns a predicate satisfying "time < deadline"
// conditions while now() is before the deadline. A nil now uses the
// wall clock; tests pass a fixed clock.
func TimeBefore(now func() time.Time) func(string) bool {
	if now == nil {
		now = time.Now
	}
	return func(condition string) bool {
		c, err := ParseCondition(condition)
		if err != nil || c.Name != "time" || c.Op != "<" {
			return false
		}
		deadline, err := ParseTime(c.Value)
		if err != nil {
			return false
		}
		return now().Before(deadline)
	}
}

// Equals returns a predicate satisfying the single condition
// "name = value".
func Equals(name, value string) func(string) bool {
	return func(condition string) bool {
		c, err := ParseCondition(condition)
		if err != nil {
			return false
		}
		return c.Name == name && c.Op == "=" && c.Value == value
	}
}

// MemberOf returns a predicate satisfying "name = v" for any v in the
// allowed set.
func MemberOf(name string, allowed ...string) func(string) bool {
	set := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}
	return func(condition string) bool {
		c, err := ParseCondition(condition)
		if err != nil {
			return false
		}
		return c.Name == name && c.Op == "=" && set[c.Value]
	}
}
