package appcmd

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

func ArgParserMW(inner RunFunc) RunFunc {
	return func(data *Data) (interface{}, error) {
		// Parse Args
		err := ParseCmdArgs(data)
		if err != nil {
			return nil, err
		}

		return inner(data)
	}
}

// ParseCmdArgs is the standard argument parser, for interactions the options are read by name,
// for prefix commands the arguments are read in order with the last one taking the rest of the message
func ParseCmdArgs(data *Data) error {
	argDefsCommand, ok := data.Cmd.Command.(CmdWithArgDefs)
	if !ok {
		// Command dosen't use the standard arg parsing
		return nil
	}

	defs := argDefsCommand.ArgDefs()
	if len(defs) < 1 {
		return nil
	}

	if data.IsInteraction() {
		return ParseOptionArgs(defs, data.options, data)
	}

	return ParseArgDefs(defs, data, SplitArgs(data.MsgStrippedPrefix))
}

// ParseOptionArgs parses the options of a interaction, matched by name
func ParseOptionArgs(defs []*ArgDef, opts []*discordgo.ApplicationCommandInteractionDataOption, data *Data) error {
	parsedArgs := NewParsedArgs(defs)

	for i, def := range defs {
		var opt *discordgo.ApplicationCommandInteractionDataOption
		for _, v := range opts {
			if strings.EqualFold(v.Name, def.Name) {
				opt = v
				break
			}
		}

		if opt == nil {
			if def.Required {
				return errors.Wrapf(ErrNotEnoughArguments, "missing %s", def.Name)
			}
			continue
		}

		val, err := def.Type.ParseOption(def, opt, data)
		if err != nil {
			return err
		}
		parsedArgs[i].Value = val
	}

	data.Args = parsedArgs
	return nil
}

// ParseArgDefs parses ordered argument definitions from the split message.
// Optional arguments that do not match their type are skipped and left at their default.
func ParseArgDefs(defs []*ArgDef, data *Data, split []*RawArg) error {
	parsedArgs := NewParsedArgs(defs)

	next := 0
	for i, def := range defs {
		if next >= len(split) {
			if def.Required {
				return errors.Wrapf(ErrNotEnoughArguments, "missing %s", def.Name)
			}
			continue
		}

		raw := split[next]
		combined := raw.Str
		consumed := 1
		if i == len(defs)-1 && len(split)-1 > next {
			// Last arg, but still more after, combine and rebuilt them
			combined = joinRawArgs(split[next:])
			consumed = len(split) - next
		}

		if !def.Required && !def.Type.Matches(def, combined) {
			continue
		}

		val, err := def.Type.Parse(def, combined, data)
		if err != nil {
			return err
		}

		parsedArgs[i].Value = val
		parsedArgs[i].Raw = raw
		next += consumed
	}

	data.Args = parsedArgs

	return nil
}

func joinRawArgs(args []*RawArg) string {
	combined := ""
	for j, temp := range args {
		if j != 0 {
			combined += " "
		}

		if temp.Container != 0 {
			combined += string(temp.Container) + temp.Str + string(temp.Container)
		} else {
			combined += temp.Str
		}
	}

	return combined
}

// ResolveInteractionPath returns the full path of the invoked command, walking through the sub command
// group and sub command options, along with the options of the leaf command
func ResolveInteractionPath(data discordgo.ApplicationCommandInteractionData) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	path := data.Name
	opts := data.Options

	for len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup ||
		opts[0].Type == discordgo.ApplicationCommandOptionSubCommand) {

		path += " " + opts[0].Name
		opts = opts[0].Options
	}

	return path, opts
}

// FocusedOption returns the option the user is currently typing in during autocomplete
func FocusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, v := range opts {
		if v.Focused {
			return v
		}
	}

	return nil
}

var (
	ArgContainers = []rune{
		'"',
		'`',
	}
)

type RawArg struct {
	Str       string
	Container rune
}

// SplitArgs splits the string into fields
func SplitArgs(in string) []*RawArg {
	rawArgs := make([]*RawArg, 0)

	curBuf := ""
	escape := false
	var container rune
	for _, r := range in {
		// Apply or remove escape mode
		if r == '\\' {
			if escape {
				escape = false
				curBuf += "\\"
			} else {
				escape = true
			}

			continue
		}

		// Check for other special tokens
		isSpecialToken := false
		if !escape {
			isSpecialToken = true

			if r == ' ' {
				// Maybe seperate by space
				if curBuf != "" && container == 0 {
					rawArgs = append(rawArgs, &RawArg{curBuf, 0})
					curBuf = ""
				} else if container != 0 { // If it is quoted proceed as it was a normal rune
					isSpecialToken = false
				}
			} else if r == container && container != 0 {
				// Split arg here
				rawArgs = append(rawArgs, &RawArg{curBuf, container})
				curBuf = ""
				container = 0
			} else if container == 0 {
				// Check if we should start containing a arg
				for _, v := range ArgContainers {
					if v == r {
						container = v
						break
					}
				}

				if container == 0 {
					isSpecialToken = false
				}
			} else {
				isSpecialToken = false
			}
		}

		if !isSpecialToken {
			curBuf += string(r)
		}

		// Reset escape mode
		escape = false
	}

	// Something was left in the buffer just add it to the end
	if curBuf != "" {
		if container != 0 {
			curBuf = string(container) + curBuf
		}
		rawArgs = append(rawArgs, &RawArg{curBuf, 0})
	}

	return rawArgs
}
