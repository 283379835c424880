package libtodo

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// An Action is the operation requested on a record.
type Action uint8

// Wire discriminants of the actions.
const (
	Create Action = iota
	Read
	Delete
	MarkComplete
)

var actionNames = map[Action]string{
	Create:       "create",
	Read:         "read",
	Delete:       "delete",
	MarkComplete: "mark_complete",
}

// Valid returns true if a is one of the known actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction returns the action matching the given name.
// "complete" is accepted as an alias of "mark_complete".
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "complete" {
		return MarkComplete, nil
	}

	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, errors.Errorf("unknown action %q", name)
}
