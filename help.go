package appcmd

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// HelpColor is the embed color used by the help commands
const HelpColor = 0x7b84d1

// HelpFormatter is a interface for help formatters, for an example see StdHelpFormatter
type HelpFormatter interface {
	// Called when there is help generated for 2 or more commands
	ShortCmdHelp(name string, cmd *RegisteredCommand) string

	// Called when help is only generated for 1 command
	// You are supposed to dump all command detilas such as arguments
	// the long description if it has one and whatever else you have in mind.
	FullCmdHelp(name string, cmd *RegisteredCommand) *discordgo.MessageEmbed
}

// SortedCommandEntry represents an entry in the SortedCommandSet
type SortedCommandEntry struct {
	// Full path of the command
	Name string
	Cmd  *RegisteredCommand
}

// SortedCommandSet groups the commands under the same top level group
type SortedCommandSet struct {
	Commands []*SortedCommandEntry

	// Empty for commands that are not in a group
	Group       string
	Description string
}

func (s *SortedCommandSet) Name() string {
	if s.Group == "" {
		return "General"
	}

	return s.Group
}

// SortCommands groups the commands in the registry by their top level group, commands outside groups come first.
// Commands hidden from help are left out.
func SortCommands(reg *Registry) []*SortedCommandSet {
	general := &SortedCommandSet{}
	sets := []*SortedCommandSet{general}
	byGroup := make(map[string]*SortedCommandSet)

	for _, name := range reg.Names() {
		cmd, _ := reg.Lookup(name)
		if cmd.Trigger != nil && cmd.Trigger.HideFromHelp {
			continue
		}

		entry := &SortedCommandEntry{Name: name, Cmd: cmd}

		// context menu names can contain spaces too
		group := ""
		if i := strings.IndexByte(name, ' '); i != -1 {
			if _, ok := reg.Group(name[:i]); ok {
				group = name[:i]
			}
		}

		if group == "" {
			general.Commands = append(general.Commands, entry)
			continue
		}

		set, ok := byGroup[group]
		if !ok {
			set = &SortedCommandSet{Group: group}
			if g, ok := reg.Group(group); ok {
				set.Description = g.Description()
			}

			byGroup[group] = set
			sets = append(sets, set)
		}

		set.Commands = append(set.Commands, entry)
	}

	if len(general.Commands) < 1 {
		sets = sets[1:]
	}

	return sets
}

// GenerateHelp generates the short help of every command in the registry, one embed per group
func GenerateHelp(d *Data, reg *Registry, formatter HelpFormatter) (embeds []*discordgo.MessageEmbed) {

	invoked := "/"
	if d != nil && !d.IsInteraction() {
		invoked = d.PrefixUsed
		if strings.HasPrefix(invoked, "<@") {
			invoked += " "
		}
	}

	sets := SortCommands(reg)

	for _, set := range sets {
		embed := &discordgo.MessageEmbed{
			Title:       set.Name() + " Help",
			Description: set.Description,
			Color:       HelpColor,
			Footer: &discordgo.MessageEmbedFooter{
				Text: "Do " + invoked + "help <command> for more detailed information on a command",
			},
		}

		if embed.Description != "" {
			embed.Description += "\n\n"
		}

		for _, entry := range set.Commands {
			embed.Description += formatter.ShortCmdHelp(entry.Name, entry.Cmd)
		}

		embeds = append(embeds, embed)
	}

	return
}

type StdHelpFormatter struct {
}

var _ HelpFormatter = (*StdHelpFormatter)(nil)

func (s *StdHelpFormatter) FullCmdHelp(name string, cmd *RegisteredCommand) *discordgo.MessageEmbed {
	return DescribeEmbed(name, cmd)
}

func (s *StdHelpFormatter) ShortCmdHelp(name string, cmd *RegisteredCommand) string {
	nameStr := name
	if cmd.Trigger != nil && len(cmd.Trigger.Names) > 1 {
		nameStr += " (" + strings.Join(cmd.Trigger.Names[1:], "/") + ")"
	}

	// Add the short description, if available
	desc := cmd.Description()
	if desc != "" {
		desc = ": " + desc
	}

	return fmt.Sprintf("`%s`%s\n", nameStr, desc)
}

// DescribeEmbed renders the help of a single command: its path as title, the description,
// and a field per argument tagged (Required) or (Optional) with the type and description.
// Prefix only commands are not titled as slash commands.
func DescribeEmbed(name string, cmd *RegisteredCommand) *discordgo.MessageEmbed {
	title := "/" + name
	if cmd.Trigger != nil && cmd.Trigger.PrefixOnly {
		title = name
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: cmd.Description(),
		Color:       HelpColor,
	}

	for _, def := range cmd.ArgDefs() {
		tag := "(Optional) "
		if def.Required {
			tag = "(Required) "
		}

		typeName := ""
		if def.Type != nil {
			typeName = def.Type.HelpName()
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  tag + def.Name,
			Value: fmt.Sprintf("**Type:** %s\n**Description:** %s", typeName, def.Help),
		})
	}

	return embed
}

// Describe is the plain text version of DescribeEmbed
func Describe(name string, cmd *RegisteredCommand) string {
	if cmd == nil {
		return ""
	}

	return strings.TrimSpace(StringEmbed(DescribeEmbed(name, cmd)))
}

// TriggerHelpCommand describes any command in the registry, the command option autocompletes the command paths
type TriggerHelpCommand struct {
	Formatter HelpFormatter
}

var (
	_ CmdWithDescription  = (*TriggerHelpCommand)(nil)
	_ CmdWithArgDefs      = (*TriggerHelpCommand)(nil)
	_ CmdWithAutocomplete = (*TriggerHelpCommand)(nil)
)

func NewTriggerHelpCommand() *TriggerHelpCommand {
	return &TriggerHelpCommand{
		Formatter: &StdHelpFormatter{},
	}
}

func (h *TriggerHelpCommand) Description() string {
	return "Sends the help menu for the bot."
}

func (h *TriggerHelpCommand) ArgDefs() []*ArgDef {
	return []*ArgDef{
		{Name: "command", Type: String, Help: "The name of the command to get help on.", Required: true, Autocomplete: true},
	}
}

func (h *TriggerHelpCommand) Autocomplete(d *Data, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	query := ""
	if focused != nil {
		query, _ = focused.Value.(string)
	}

	return d.System.Registry().Search(query, MaxChoices), nil
}

func (h *TriggerHelpCommand) Run(d *Data) (interface{}, error) {
	name := d.Arg("command").Str()

	cmd, err := d.System.Registry().Lookup(name)
	if IsNotFound(err) {
		return NewEphemeralResponse(fmt.Sprintf("Error: Command %s not found!", InlineCode(name))), nil
	} else if err != nil {
		return nil, err
	}

	embed := h.Formatter.FullCmdHelp(name, cmd)

	// Show the guild icon if it has one
	if d.GuildID != "" && d.Session != nil {
		if g, err := d.Session.State.Guild(d.GuildID); err == nil && g.Icon != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.IconURL("1024")}
		}
	}

	return embed, nil
}

// StdHelpCommand is the help command for prefix commands, without arguments it lists all commands,
// with a command path it shows the full help of that command
type StdHelpCommand struct {
	SendFullInDM bool

	Formatter HelpFormatter
}

var (
	_ CmdWithDescription = (*StdHelpCommand)(nil)
	_ CmdWithArgDefs     = (*StdHelpCommand)(nil)
)

func NewStdHelpCommand() *StdHelpCommand {
	return &StdHelpCommand{
		Formatter: &StdHelpFormatter{},
	}
}

func (h *StdHelpCommand) Description() string {
	return "Shows short help for all commands, or a longer help for a specific command"
}

func (h *StdHelpCommand) ArgDefs() []*ArgDef {
	return []*ArgDef{
		{Name: "command", Type: String, Help: "Command to show the full help of"},
	}
}

func (h *StdHelpCommand) Run(d *Data) (interface{}, error) {
	reg := d.System.Registry()

	if name := d.Arg("command").Str(); name != "" {
		path, cmd, _, rest, found := reg.Resolve(name)
		if !found || rest != "" || !isLeaf(cmd) {
			return fmt.Sprintf("Unknown command %s", InlineCode(name)), nil
		}

		full := h.Formatter.FullCmdHelp(path, cmd)
		return &FallbackEmbed{Embeds: []*discordgo.MessageEmbed{full}}, nil
	}

	help := GenerateHelp(d, reg, h.Formatter)
	if h.SendFullInDM && !d.IsDM() && !d.IsInteraction() {
		return h.sendInDM(d, help)
	}

	return &FallbackEmbed{Embeds: help}, nil
}

func (h *StdHelpCommand) sendInDM(d *Data, help []*discordgo.MessageEmbed) (interface{}, error) {
	channel, err := d.Session.UserChannelCreate(d.Author.ID)
	if err != nil {
		return nil, err
	}

	for len(help) > 0 {
		n := len(help)
		if n > MaxEmbeds {
			n = MaxEmbeds
		}

		if _, err := d.Session.ChannelMessageSendEmbeds(channel.ID, help[:n]); err != nil {
			return "Couldn't send you a direct message, do you have them disabled?", nil
		}
		help = help[n:]
	}

	return "Sent you a direct message with the help", nil
}
