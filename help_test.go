package appcmd

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendCommand struct{}

func (s *sendCommand) Description() string { return "Sends a premade message." }
func (s *sendCommand) ArgDefs() []*ArgDef {
	return []*ArgDef{
		{Name: "name", Type: String, Help: "The name of the tag to send", Required: true},
		{Name: "times", Type: Int},
	}
}
func (s *sendCommand) Run(data *Data) (interface{}, error) { return nil, nil }

func TestDescribe(t *testing.T) {
	cmd := &RegisteredCommand{Command: &sendCommand{}, Trigger: NewTrigger("send")}

	expected := "**/tag_test send**\n" +
		"Sends a premade message.\n\n" +
		"**(Required) name**\n**Type:** Text\n**Description:** The name of the tag to send\n\n" +
		"**(Optional) times**\n**Type:** Whole number\n**Description:**"

	assert.Equal(t, expected, Describe("tag_test send", cmd))
	assert.Equal(t, "", Describe("missing", nil))

	embed := DescribeEmbed("tag_test send", cmd)
	assert.Equal(t, "/tag_test send", embed.Title)
	assert.Equal(t, HelpColor, embed.Color)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "(Required) name", embed.Fields[0].Name)
	assert.Equal(t, "(Optional) times", embed.Fields[1].Name)
}

func TestDescribeNoArgs(t *testing.T) {
	cmd := &RegisteredCommand{Command: &TestCommand{}, Trigger: NewTrigger("ping")}

	assert.Equal(t, "**/ping**\nTest Description", Describe("ping", cmd))
}

func TestDescribePrefixOnly(t *testing.T) {
	cmd := &RegisteredCommand{Command: &TestCommand{}, Trigger: NewTrigger("say").SetPrefixOnly(true)}

	assert.Equal(t, "**say**\nTest Description", Describe("say", cmd))
	assert.Equal(t, "say", DescribeEmbed("say", cmd).Title)
}

func helpTestRegistry() *Registry {
	root := &Container{}
	root.AddCommand(&TestCommand{}, NewTrigger("ping", "p"))
	root.AddCommand(&TestCommand{}, NewTrigger("secret").SetHideFromHelp(true))
	root.AddCommand(&menuCommand{}, NewTrigger("Get info"))

	tags, _ := root.Sub("tag_test", "Tag commands")
	tags.AddCommand(&sendCommand{}, NewTrigger("send"))
	tags.AddCommand(&TestCommand{}, NewTrigger("delete", "del"))

	return root.Flatten()
}

func TestSortCommands(t *testing.T) {
	sets := SortCommands(helpTestRegistry())
	require.Len(t, sets, 2)

	general := sets[0]
	assert.Equal(t, "General", general.Name())
	names := make([]string, 0)
	for _, e := range general.Commands {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Get info", "ping"}, names)

	tags := sets[1]
	assert.Equal(t, "tag_test", tags.Name())
	assert.Equal(t, "Tag commands", tags.Description)
	require.Len(t, tags.Commands, 2)
	assert.Equal(t, "tag_test delete", tags.Commands[0].Name)
	assert.Equal(t, "tag_test send", tags.Commands[1].Name)
}

func TestSortCommandsOnlyGroups(t *testing.T) {
	root := &Container{}
	tags, _ := root.Sub("tag", "")
	tags.AddCommand(&TestCommand{}, NewTrigger("send"))

	sets := SortCommands(root.Flatten())
	require.Len(t, sets, 1)
	assert.Equal(t, "tag", sets[0].Name())
}

func TestGenerateHelp(t *testing.T) {
	embeds := GenerateHelp(nil, helpTestRegistry(), &StdHelpFormatter{})
	require.Len(t, embeds, 2)

	assert.Equal(t, "General Help", embeds[0].Title)
	assert.Equal(t, "`Get info`: Test Description\n`ping (p)`: Test Description\n", embeds[0].Description)
	assert.Equal(t, "Do /help <command> for more detailed information on a command", embeds[0].Footer.Text)

	assert.Equal(t, "tag_test Help", embeds[1].Title)
	assert.Equal(t, "Tag commands\n\n`tag_test delete (del)`: Test Description\n`tag_test send`: Sends a premade message.\n", embeds[1].Description)

	prefixed := GenerateHelp(&Data{PrefixUsed: "!"}, helpTestRegistry(), &StdHelpFormatter{})
	assert.Equal(t, "Do !help <command> for more detailed information on a command", prefixed[0].Footer.Text)

	mentioned := GenerateHelp(&Data{PrefixUsed: "<@123>"}, helpTestRegistry(), &StdHelpFormatter{})
	assert.Equal(t, "Do <@123> help <command> for more detailed information on a command", mentioned[0].Footer.Text)
}

func TestTriggerHelpCommand(t *testing.T) {
	sys := NewStandardSystem("")
	sys.Root.AddCommand(&sendCommand{}, NewTrigger("send"))
	help := NewTriggerHelpCommand()
	sys.Root.AddCommand(help, NewTrigger("trigger_help"))

	data := &Data{System: sys}
	data.Args = NewParsedArgs(help.ArgDefs())
	data.Args[0].Value = "send"

	resp, err := help.Run(data)
	require.NoError(t, err)
	require.IsType(t, &discordgo.MessageEmbed{}, resp)
	assert.Equal(t, "/send", resp.(*discordgo.MessageEmbed).Title)

	data.Args[0].Value = "nope"
	resp, err = help.Run(data)
	require.NoError(t, err)
	assert.Equal(t, NewEphemeralResponse("Error: Command `nope` not found!"), resp)

	choices, err := help.Autocomplete(data, &discordgo.ApplicationCommandInteractionDataOption{Value: "trig"})
	require.NoError(t, err)
	require.Len(t, choices, 1)
	assert.Equal(t, "trigger_help", choices[0].Name)
}

func TestStdHelpCommand(t *testing.T) {
	sys := NewStandardSystem("!")
	tags, _ := sys.Root.Sub("tag", "")
	tags.AddCommand(&sendCommand{}, NewTrigger("send", "s"))
	help := NewStdHelpCommand()
	sys.Root.AddCommand(help, NewTrigger("help"))

	data := &Data{System: sys, GuildID: "1", PrefixUsed: "!"}
	data.Args = NewParsedArgs(help.ArgDefs())

	resp, err := help.Run(data)
	require.NoError(t, err)
	require.IsType(t, &FallbackEmbed{}, resp)
	assert.Len(t, resp.(*FallbackEmbed).Embeds, 2)

	data.Args[0].Value = "TAG s"
	resp, err = help.Run(data)
	require.NoError(t, err)
	require.IsType(t, &FallbackEmbed{}, resp)
	require.Len(t, resp.(*FallbackEmbed).Embeds, 1)
	assert.Equal(t, "/tag send", resp.(*FallbackEmbed).Embeds[0].Title)

	data.Args[0].Value = "tag"
	resp, err = help.Run(data)
	require.NoError(t, err)
	assert.Equal(t, "Unknown command `tag`", resp)
}
