package appcmd

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotEnoughArguments = errors.New("not enough arguments passed")
	ErrTooDeep            = errors.New("commands can only be nested as group > sub group > command")
	ErrUnknownInteraction = errors.New("interaction did not resolve to a registered command")
)

// CommandNotFound is returned by lookups on the registry when there is no command with that name
type CommandNotFound struct {
	Name string
}

func (c *CommandNotFound) Error() string {
	return fmt.Sprintf("Command %q not found", c.Name)
}

// IsNotFound returns true if err is, or wraps, a *CommandNotFound
func IsNotFound(err error) bool {
	var nf *CommandNotFound
	return errors.As(err, &nf)
}

type InvalidInt struct {
	Part string
}

func (i *InvalidInt) Error() string {
	return fmt.Sprintf("%q is not a whole number", i.Part)
}

type InvalidFloat struct {
	Part string
}

func (i *InvalidFloat) Error() string {
	return fmt.Sprintf("%q is not a number", i.Part)
}

type InvalidBool struct {
	Part string
}

func (i *InvalidBool) Error() string {
	return fmt.Sprintf("%q is not yes/no", i.Part)
}

type ImproperMention struct {
	Part string
}

func (i *ImproperMention) Error() string {
	return fmt.Sprintf("Improper mention %q", i.Part)
}

type UserNotFound struct {
	Part string
}

func (i *UserNotFound) Error() string {
	return fmt.Sprintf("User %q not found", i.Part)
}

type RoleNotFound struct {
	Part string
}

func (i *RoleNotFound) Error() string {
	return fmt.Sprintf("Role %q not found", i.Part)
}

type ChannelNotFound struct {
	Part string
}

func (i *ChannelNotFound) Error() string {
	return fmt.Sprintf("Channel %q not found", i.Part)
}

type OutOfRangeError struct {
	ArgName  string
	Min, Max interface{}
	Got      interface{}
	Float    bool
}

func (o *OutOfRangeError) Error() string {
	preStr := "too big"

	switch o.Got.(type) {
	case int64:
		if o.Got.(int64) < o.Min.(int64) {
			preStr = "too small"
		}
	case float64:
		if o.Got.(float64) < o.Min.(float64) {
			preStr = "too small"
		}
	}

	const floatFormat = "%s is %s (has to be %f - %f)"
	const intFormat = "%s is %s (has to be %d - %d)"

	if o.Float {
		return fmt.Sprintf(floatFormat, o.ArgName, preStr, o.Min, o.Max)
	}

	return fmt.Sprintf(intFormat, o.ArgName, preStr, o.Min, o.Max)
}
