package appcmd

import (
	"fmt"
	"strings"
)

type MiddleWareFunc func(next RunFunc) RunFunc
type RunFunc func(data *Data) (interface{}, error)

// RegisteredCommand is a node in the command tree, either a group (Command is a *Container)
// or a leaf command
type RegisteredCommand struct {
	Command Cmd
	Trigger *Trigger
}

// Name returns the name used in slash menus and in the flattened path
func (r *RegisteredCommand) Name() string {
	if r.Trigger == nil || len(r.Trigger.Names) < 1 {
		return ""
	}

	return r.Trigger.Names[0]
}

// FormatNames joins all the names of the command using sep
func (r *RegisteredCommand) FormatNames(sep string) string {
	if r.Trigger == nil {
		return ""
	}

	return strings.Join(r.Trigger.Names, sep)
}

func (r *RegisteredCommand) Description() string {
	if c, ok := r.Command.(*Container); ok {
		return c.Description
	}

	if cast, ok := r.Command.(CmdWithDescription); ok {
		return cast.Description()
	}

	return ""
}

// ArgDefs returns the argument definitions of a leaf command, groups have none
func (r *RegisteredCommand) ArgDefs() []*ArgDef {
	if cast, ok := r.Command.(CmdWithArgDefs); ok {
		return cast.ArgDefs()
	}

	return nil
}

// Container returns the container if this is a group node
func (r *RegisteredCommand) Container() (*Container, bool) {
	c, ok := r.Command.(*Container)
	return c, ok
}

// Container is a group of commands
// Containers can be nested by calling Container.Sub(...)
type Container struct {
	// The group description, shown in slash menus
	Description string

	// Commands this container holds, in registration order
	Commands []*RegisteredCommand

	// Hooks to be ran before executing the command, a middleware that does not call next
	// stops the chain
	middlewares []MiddleWareFunc
}

var _ Cmd = (*Container)(nil)

// Run is only reached when a group is invoked without a sub command through a prefix,
// in which case it lists the sub commands
func (c *Container) Run(data *Data) (interface{}, error) {
	var sb strings.Builder
	for _, cmd := range c.Commands {
		desc := cmd.Description()
		if desc != "" {
			desc = ": " + desc
		}
		sb.WriteString(fmt.Sprintf("`%s`%s\n", cmd.Name(), desc))
	}

	return sb.String(), nil
}

// Sub creates a new container and registers it as a group under this one
func (c *Container) Sub(name, description string, aliases ...string) (*Container, *RegisteredCommand) {
	sub := &Container{
		Description: description,
	}

	reg := c.AddCommand(sub, NewTrigger(name, aliases...))
	return sub, reg
}

// AddCommand registers a command under the trigger
func (c *Container) AddCommand(cmd Cmd, trigger *Trigger) *RegisteredCommand {
	reg := &RegisteredCommand{
		Command: cmd,
		Trigger: trigger,
	}

	c.Commands = append(c.Commands, reg)
	return reg
}

func (c *Container) AddMidlewares(mw ...MiddleWareFunc) {
	c.middlewares = append(c.middlewares, mw...)
}

// Flatten builds a registry from the commands in this container
func (c *Container) Flatten() *Registry {
	return Flatten(c.Commands)
}

func (c *Container) buildMiddlewareChain(r RunFunc) RunFunc {
	for i := range c.middlewares {
		r = c.middlewares[len(c.middlewares)-1-i](r)
	}

	return r
}

// BuildRunChain wraps the command in the middlewares of the container chain (first element outermost),
// and then the trigger middlewares
func BuildRunChain(chain []*Container, cmd *RegisteredCommand) RunFunc {
	last := cmd.Command.Run
	if cmd.Trigger != nil {
		for i := range cmd.Trigger.Middlewares {
			last = cmd.Trigger.Middlewares[len(cmd.Trigger.Middlewares)-1-i](last)
		}
	}

	for i := range chain {
		last = chain[len(chain)-1-i].buildMiddlewareChain(last)
	}

	return last
}
