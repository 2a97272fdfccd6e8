// Package appcmd is a command system for discord bots.
//
// Commands are organised in a tree of containers, which is flattened once into
// a read-only Registry of space separated command paths ("tag_test send").
// The same tree serves slash commands, user/message context menus and plain
// prefix commands.
package appcmd

import (
	"github.com/bwmarrin/discordgo"
)

// Cmd is the only interface a command has to implement
type Cmd interface {
	// Run the command, the returned value is sent as a response through the systems ResponseSender
	Run(data *Data) (interface{}, error)
}

// CmdWithDescription commands have a description shown in slash menus and help
type CmdWithDescription interface {
	Cmd
	Description() string
}

// CmdWithArgDefs commands get their arguments parsed by ArgParserMW
type CmdWithArgDefs interface {
	Cmd
	ArgDefs() []*ArgDef
}

// CmdWithAutocomplete commands provide choices for options with Autocomplete set
type CmdWithAutocomplete interface {
	Cmd
	Autocomplete(data *Data, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error)
}

// CmdWithContextMenu commands are registered as user or message context menu entries instead of slash commands
type CmdWithContextMenu interface {
	Cmd
	ContextMenuType() discordgo.ApplicationCommandType
}
