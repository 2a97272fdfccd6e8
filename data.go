package appcmd

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Data struct {
	Cmd *RegisteredCommand
	// Full path of the command in the registry, e.g "tag_test send"
	Path string
	Args []*ParsedArg

	Session *discordgo.Session
	Source  TriggerSource

	// Set when triggered by an interaction
	Interaction *discordgo.InteractionCreate
	// Set when triggered by a message
	Msg *discordgo.Message

	GuildID   string
	ChannelID string
	Author    *discordgo.User
	// Nil in direct messages
	Member *discordgo.Member

	PrefixUsed string

	// The message with the prefix removed (either mention or command prefix),
	// and after the command has been resolved, also with the command names removed
	MsgStrippedPrefix string

	// The chain of containers we went through, first element is always root
	ContainerChain []*Container

	// The system that triggered this command
	System *System

	// options of the invoked leaf, sub command options already unwrapped
	options []*discordgo.ApplicationCommandInteractionDataOption

	// shared between copies made by WithContext
	reply *replyState

	context context.Context
}

// Context returns an always non-nil context
func (d *Data) Context() context.Context {
	if d.context == nil {
		return context.Background()
	}

	return d.context
}

// WithContext creates a copy of d with the context set to ctx
func (d *Data) WithContext(ctx context.Context) *Data {
	cop := new(Data)
	*cop = *d
	cop.context = ctx
	return cop
}

// Logger returns the logger of the system that triggered the command
func (d *Data) Logger() *zerolog.Logger {
	if d.System == nil {
		l := zerolog.Nop()
		return &l
	}

	return &d.System.Logger
}

func (d *Data) state() *replyState {
	if d.reply == nil {
		d.reply = &replyState{}
	}

	return d.reply
}

// Arg returns the parsed argument with the name, or nil
func (d *Data) Arg(name string) *ParsedArg {
	for _, v := range d.Args {
		if v.Def != nil && strings.EqualFold(v.Def.Name, name) {
			return v
		}
	}

	return nil
}

// Options returns the interaction options of the invoked command
func (d *Data) Options() []*discordgo.ApplicationCommandInteractionDataOption {
	return d.options
}

// IsDM returns true if the command was triggered outside of a guild
func (d *Data) IsDM() bool {
	return d.GuildID == ""
}

// IsInteraction returns true if the command was triggered by an interaction, false for prefix commands
func (d *Data) IsInteraction() bool {
	return d.Interaction != nil
}

// Permissions returns the permissions the author has in the channel the command was triggered in
func (d *Data) Permissions() (int64, error) {
	if d.IsDM() {
		return 0, nil
	}

	if d.Interaction != nil && d.Member != nil {
		return d.Member.Permissions, nil
	}

	if d.Session == nil || d.Author == nil {
		return 0, errors.New("no session available to compute permissions")
	}

	perms, err := d.Session.State.UserChannelPermissions(d.Author.ID, d.ChannelID)
	return perms, errors.Wrap(err, "Data.Permissions")
}

func (d *Data) resolved() *discordgo.ApplicationCommandInteractionDataResolved {
	if d.Interaction == nil || d.Interaction.Type != discordgo.InteractionApplicationCommand &&
		d.Interaction.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return nil
	}

	return d.Interaction.ApplicationCommandData().Resolved
}

// TargetUser returns the user (and member if in a guild) a user context menu was used on
func (d *Data) TargetUser() (*discordgo.User, *discordgo.Member) {
	r := d.resolved()
	if r == nil || d.Source != UserMenuSource {
		return nil, nil
	}

	id := d.Interaction.ApplicationCommandData().TargetID
	user := r.Users[id]

	member := r.Members[id]
	if member != nil && member.User == nil {
		member.User = user
	}

	return user, member
}

// TargetMessage returns the message a message context menu was used on
func (d *Data) TargetMessage() *discordgo.Message {
	r := d.resolved()
	if r == nil || d.Source != MessageMenuSource {
		return nil
	}

	return r.Messages[d.Interaction.ApplicationCommandData().TargetID]
}

type replyState struct {
	responded bool
	deferred  bool
}

// Where this command comes from
type TriggerSource int

const (
	DMSource TriggerSource = iota
	MentionSource
	PrefixSource
	SlashSource
	UserMenuSource
	MessageMenuSource
	AutocompleteSource
)

func (t TriggerSource) String() string {
	switch t {
	case DMSource:
		return "dm"
	case MentionSource:
		return "mention"
	case PrefixSource:
		return "prefix"
	case SlashSource:
		return "slash"
	case UserMenuSource:
		return "user_menu"
	case MessageMenuSource:
		return "message_menu"
	case AutocompleteSource:
		return "autocomplete"
	}

	return "unknown"
}
