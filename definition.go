package appcmd

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// BuildApplicationCommands converts the command trees into the definitions discord expects.
// Top level commands become slash commands or context menus, groups become sub command
// (group) options. Commands with a PrefixOnly trigger are left out, as are names already
// used on the same level.
func BuildApplicationCommands(roots []*RegisteredCommand) ([]*discordgo.ApplicationCommand, error) {
	out := make([]*discordgo.ApplicationCommand, 0, len(roots))
	seen := make(map[string]bool)

	for _, reg := range roots {
		if reg.Trigger != nil && reg.Trigger.PrefixOnly {
			continue
		}

		def, err := buildApplicationCommand(reg)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s", reg.Name())
		}

		// names only have to be unique per command type
		key := strconv.Itoa(int(def.Type)) + ":" + def.Name
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, def)
	}

	return out, nil
}

func buildApplicationCommand(reg *RegisteredCommand) (*discordgo.ApplicationCommand, error) {
	def := &discordgo.ApplicationCommand{
		Name: reg.Name(),
		Type: discordgo.ChatApplicationCommand,
	}

	if reg.Trigger != nil {
		def.DefaultMemberPermissions = reg.Trigger.DefaultMemberPermissions
		if reg.Trigger.DisableInDM {
			dmPermission := false
			def.DMPermission = &dmPermission
		}
	}

	if menu, ok := reg.Command.(CmdWithContextMenu); ok {
		// context menus have no description or options
		def.Type = menu.ContextMenuType()
		return def, nil
	}

	def.Name = strings.ToLower(def.Name)
	def.Description = slashDescription(reg)

	if c, ok := reg.Container(); ok {
		opts, err := subCommandOptions(c, 1)
		if err != nil {
			return nil, err
		}
		def.Options = opts
		return def, nil
	}

	def.Options = argOptions(reg.ArgDefs())
	return def, nil
}

// subCommandOptions builds the options of a group at depth, the top level command being depth 0
func subCommandOptions(c *Container, depth int) ([]*discordgo.ApplicationCommandOption, error) {
	out := make([]*discordgo.ApplicationCommandOption, 0, len(c.Commands))
	seen := make(map[string]bool)

	for _, reg := range c.Commands {
		if reg.Trigger != nil && reg.Trigger.PrefixOnly {
			continue
		}

		name := strings.ToLower(reg.Name())
		if seen[name] {
			continue
		}
		seen[name] = true

		opt := &discordgo.ApplicationCommandOption{
			Name:        name,
			Description: slashDescription(reg),
		}

		if sub, ok := reg.Container(); ok {
			if depth >= 2 {
				return nil, errors.WithMessagef(ErrTooDeep, "%s", reg.Name())
			}

			opts, err := subCommandOptions(sub, depth+1)
			if err != nil {
				return nil, err
			}

			opt.Type = discordgo.ApplicationCommandOptionSubCommandGroup
			opt.Options = opts
		} else {
			opt.Type = discordgo.ApplicationCommandOptionSubCommand
			opt.Options = argOptions(reg.ArgDefs())
		}

		out = append(out, opt)
	}

	return out, nil
}

// argOptions converts argument definitions into options, required ones first as discord demands
func argOptions(defs []*ArgDef) []*discordgo.ApplicationCommandOption {
	out := make([]*discordgo.ApplicationCommandOption, 0, len(defs))

	for _, def := range defs {
		desc := def.Help
		if desc == "" {
			desc = def.Name
		}

		opt := &discordgo.ApplicationCommandOption{
			Type:         def.Type.OptionType(),
			Name:         strings.ToLower(def.Name),
			Description:  truncate(desc, 100),
			Required:     def.Required,
			Choices:      def.Choices,
			Autocomplete: def.Autocomplete && len(def.Choices) < 1,
		}

		if c, ok := def.Type.(optionConstrainer); ok {
			c.constrainOption(opt)
		}

		out = append(out, opt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Required && !out[j].Required
	})

	return out
}

func slashDescription(reg *RegisteredCommand) string {
	desc := reg.Description()
	if desc == "" {
		desc = reg.Name()
	}

	return truncate(desc, 100)
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes-3]) + "..."
}
