package appcmd

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

type System struct {
	Root           *Container
	Prefix         PrefixProvider
	ResponseSender ResponseSender
	Logger         zerolog.Logger

	// Messages from bots never trigger prefix commands when set
	IgnoreBots bool

	// If above zero, the context of each command run times out after this
	CommandTimeout time.Duration

	registry atomic.Pointer[Registry]
}

func NewStandardSystem(staticPrefix string) (system *System) {
	sys := &System{
		Root:           &Container{},
		ResponseSender: &StdResponseSender{LogErrors: true},
		Logger:         DefaultLogger(),
		IgnoreBots:     true,
	}
	if staticPrefix != "" {
		sys.Prefix = NewSimplePrefixProvider(staticPrefix)
	}

	sys.Root.AddMidlewares(ArgParserMW)

	return sys
}

// Registry returns the current registry, flattening the root container on first use
func (sys *System) Registry() *Registry {
	if r := sys.registry.Load(); r != nil {
		return r
	}

	r := sys.Root.Flatten()
	if !sys.registry.CompareAndSwap(nil, r) {
		// someone else got there first
		return sys.registry.Load()
	}

	sys.logDuplicates(r)
	return r
}

// Rebuild flattens the root container again and publishes the new registry.
// Commands already running keep the registry they started with.
func (sys *System) Rebuild() *Registry {
	r := sys.Root.Flatten()
	sys.registry.Store(r)
	sys.logDuplicates(r)
	return r
}

func (sys *System) logDuplicates(r *Registry) {
	for _, d := range r.Duplicates() {
		sys.Logger.Warn().Str("command", d).Msg("command registered more than once, keeping the first")
	}
}

// RegisterCommands overwrites the application commands of the bot with the ones in the root container.
// If guildID is empty the commands are registered globally.
func (sys *System) RegisterCommands(ctx context.Context, s *discordgo.Session, guildID string) ([]*discordgo.ApplicationCommand, error) {
	defs, err := BuildApplicationCommands(sys.Root.Commands)
	if err != nil {
		return nil, errors.Wrap(err, "System.RegisterCommands")
	}

	if s.State == nil || s.State.User == nil {
		return nil, errors.New("System.RegisterCommands: session is not ready")
	}

	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, defs, discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "System.RegisterCommands")
	}

	sys.Logger.Info().Int("commands", len(created)).Str("guild", guildID).Msg("registered application commands")
	return created, nil
}

// You can add this as a handler directly to discordgo, it will recover from any panics that occured in commands
// and log errors using the systems logger
func (sys *System) HandleInteractionCreate(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	// Set up handler to recover from panics
	defer func() {
		if r := recover(); r != nil {
			sys.handlePanic(r)
			sys.sendPanicNotice(s, ic)
		}
	}()

	err := sys.CheckInteraction(s, ic)
	if err != nil {
		sys.Logger.Error().Err(err).Msg("failed checking interaction")
	}
}

// CheckInteraction runs the command (or autocomplete handler) the interaction was meant for.
// You should not add this as an discord handler directly, use HandleInteractionCreate for that.
func (sys *System) CheckInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) error {
	if ic.Type != discordgo.InteractionApplicationCommand && ic.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return nil
	}

	data := sys.FillInteractionData(s, ic)

	path, opts := ResolveInteractionPath(ic.ApplicationCommandData())
	data.options = opts

	reg := sys.Registry()
	cmd, err := reg.Lookup(path)
	if err != nil {
		// slash command names are registered lower cased
		fullName, resolved, _, rest, found := reg.Resolve(path)
		if !found || rest != "" || !isLeaf(resolved) {
			return errors.WithMessagef(ErrUnknownInteraction, "%s", path)
		}

		path, cmd = fullName, resolved
	}

	data.Cmd = cmd
	data.Path = path

	if data.Source == AutocompleteSource {
		return sys.autocomplete(data, reg.Chain(path))
	}

	return sys.runAndRespond(data, reg.Chain(path))
}

func (sys *System) autocomplete(data *Data, chain []*Container) error {
	data.ContainerChain = sys.containerChain(chain)

	var choices []*discordgo.ApplicationCommandOptionChoice
	if ac, ok := data.Cmd.Command.(CmdWithAutocomplete); ok {
		var err error
		choices, err = ac.Autocomplete(data, FocusedOption(data.options))
		if err != nil {
			sys.Logger.Error().Err(err).Str("command", data.Path).Msg("autocomplete failed")
		}
	}

	if len(choices) > MaxChoices {
		choices = choices[:MaxChoices]
	}

	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}

	err := data.Session.InteractionRespond(data.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	return errors.Wrap(err, "System.autocomplete")
}

// FillInteractionData creates the command data for a interaction, the command itself is not resolved yet
func (sys *System) FillInteractionData(s *discordgo.Session, ic *discordgo.InteractionCreate) *Data {
	data := &Data{
		Session:     s,
		Interaction: ic,
		GuildID:     ic.GuildID,
		ChannelID:   ic.ChannelID,
		Member:      ic.Member,
		System:      sys,
		reply:       &replyState{},
	}

	if ic.Member != nil && ic.Member.User != nil {
		data.Author = ic.Member.User
	} else {
		data.Author = ic.User
	}

	if ic.Type == discordgo.InteractionApplicationCommandAutocomplete {
		data.Source = AutocompleteSource
		return data
	}

	switch ic.ApplicationCommandData().CommandType {
	case discordgo.UserApplicationCommand:
		data.Source = UserMenuSource
	case discordgo.MessageApplicationCommand:
		data.Source = MessageMenuSource
	default:
		data.Source = SlashSource
	}

	return data
}

// You can add this as a handler directly to discordgo, it will recover from any panics that occured in commands
// and log errors using the systems logger
func (sys *System) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Set up handler to recover from panics
	defer func() {
		if r := recover(); r != nil {
			sys.handlePanic(r)
		}
	}()

	err := sys.CheckMessage(s, m)
	if err != nil {
		sys.Logger.Error().Err(err).Msg("failed checking message")
	}
}

// CheckMessage checks the message for commands, and triggers any command that the message should trigger
// you should not add this as an discord handler directly, if you want to do that you should add "system.HandleMessageCreate" instead.
func (sys *System) CheckMessage(s *discordgo.Session, m *discordgo.MessageCreate) error {
	if m.Author == nil || (sys.IgnoreBots && m.Author.Bot) {
		return nil
	}

	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return nil
	}

	data := sys.FillMessageData(s, m.Message)

	if !sys.FindPrefix(data) {
		// No prefix found in the message for a command to be triggered
		return nil
	}

	path, cmd, chain, rest, found := sys.Registry().Resolve(data.MsgStrippedPrefix)
	if !found {
		return nil
	}

	if cmd.Trigger != nil && cmd.Trigger.DisableInDM && data.IsDM() {
		return nil
	}

	data.Cmd = cmd
	data.Path = path
	data.MsgStrippedPrefix = rest

	return sys.runAndRespond(data, chain)
}

// FindPrefix checks if the message has a proper command prefix (either from the PrefixProvider or a direction mention to the bot)
// It sets the source field, and MsgStripped in data if found
func (sys *System) FindPrefix(data *Data) (found bool) {
	if sys.FindMentionPrefix(data) {
		return true
	}

	prefix := ""
	if sys.Prefix != nil {
		prefix = sys.Prefix.Prefix(data)
	}

	if prefix != "" && strings.HasPrefix(data.Msg.Content, prefix) {
		data.PrefixUsed = prefix
		data.Source = PrefixSource
		data.MsgStrippedPrefix = strings.TrimSpace(strings.TrimPrefix(data.Msg.Content, prefix))
		found = true
	}

	if data.IsDM() {
		// everything in dm's is treated as a command, the prefix is optional
		if !found {
			data.MsgStrippedPrefix = strings.TrimSpace(data.Msg.Content)
		}
		data.Source = DMSource
		return true
	}

	return
}

func (sys *System) FindMentionPrefix(data *Data) (found bool) {
	if data.Session == nil || data.Session.State == nil || data.Session.State.User == nil {
		return false
	}

	ok := false
	stripped := ""

	// Check for mention
	id := data.Session.State.User.ID
	if strings.Index(data.Msg.Content, "<@"+id+">") == 0 { // Normal mention
		ok = true
		stripped = strings.Replace(data.Msg.Content, "<@"+id+">", "", 1)
		data.PrefixUsed = "<@" + id + ">"
	} else if strings.Index(data.Msg.Content, "<@!"+id+">") == 0 { // Nickname mention
		ok = true
		data.PrefixUsed = "<@!" + id + ">"
		stripped = strings.Replace(data.Msg.Content, "<@!"+id+">", "", 1)
	}

	if ok {
		data.MsgStrippedPrefix = strings.TrimSpace(stripped)
		data.Source = MentionSource

		return true
	}

	return false

}

func (sys *System) FillMessageData(s *discordgo.Session, m *discordgo.Message) *Data {
	data := &Data{
		Msg:       m,
		Session:   s,
		System:    sys,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Author:    m.Author,
		reply:     &replyState{},
	}

	if m.Member != nil {
		// message members are partial and come without the user
		member := *m.Member
		if member.User == nil {
			member.User = m.Author
		}
		member.GuildID = m.GuildID
		data.Member = &member
	}

	if data.IsDM() {
		data.Source = DMSource
	}

	return data
}

// runAndRespond runs the command and sends its response, the CommandTimeout covers both
// so deferred responses still have a live context
func (sys *System) runAndRespond(data *Data, chain []*Container) error {
	if sys.CommandTimeout > 0 {
		ctx, cancel := context.WithTimeout(data.Context(), sys.CommandTimeout)
		defer cancel()
		data.context = ctx
	}

	resp, err := sys.runCommand(data, chain)
	return sys.ResponseSender.SendResponse(data, resp, err)
}

// runCommand runs the command in data through the middlewares of root and the containers in chain
func (sys *System) runCommand(data *Data, chain []*Container) (interface{}, error) {
	data.ContainerChain = sys.containerChain(chain)
	return BuildRunChain(data.ContainerChain, data.Cmd)(data)
}

func (sys *System) containerChain(chain []*Container) []*Container {
	out := make([]*Container, 0, len(chain)+1)
	out = append(out, sys.Root)
	return append(out, chain...)
}

func (sys *System) handlePanic(r interface{}) {
	stack := debug.Stack()
	sys.Logger.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", stack).Msg("recovered from panic in command")
}

func (sys *System) sendPanicNotice(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}

	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Something went wrong while running that command.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		// most likely the command already responded
		sys.Logger.Debug().Err(err).Msg("failed sending panic notice")
	}
}

func isLeaf(cmd *RegisteredCommand) bool {
	_, isGroup := cmd.Container()
	return !isGroup
}

// Retrieves the prefix that might be different on a per server basis
type PrefixProvider interface {
	Prefix(data *Data) string
}

// Simple Prefix provider for global fixed prefixes
type SimplePrefixProvider struct {
	prefix string
}

func NewSimplePrefixProvider(prefix string) PrefixProvider {
	return &SimplePrefixProvider{prefix: prefix}
}

func (pp *SimplePrefixProvider) Prefix(d *Data) string {
	return pp.prefix
}

type ResponseSender interface {
	SendResponse(cmdData *Data, resp interface{}, err error) error
}

type StdResponseSender struct {
	LogErrors bool
}

func (s *StdResponseSender) SendResponse(cmdData *Data, resp interface{}, err error) error {
	if err != nil && s.LogErrors {
		cmdData.Logger().Error().Err(err).Str("command", cmdData.Path).Msg("command returned an error")
	}

	var errR error
	if resp == nil && err != nil {
		_, errR = SendResponseInterface(cmdData, NewEphemeralResponse(fmt.Sprintf("%q command returned an error: %s", cmdData.Path, err)), true)
	} else if resp != nil {
		_, errR = SendResponseInterface(cmdData, resp, false)
	}

	return errR
}
