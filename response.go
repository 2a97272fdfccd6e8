package appcmd

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

const (
	// MaxMessageLength is the most characters discord allows in the content of a message
	MaxMessageLength = 2000
	// MaxEmbeds is the most embeds discord allows in a single message
	MaxEmbeds = 10
)

type Response interface {
	// Channel, session, command etc can all be found in this context
	Send(data *Data) ([]*discordgo.Message, error)
}

// SendResponseInterface sends the reply, which can be a string, error, embed(s), *discordgo.InteractionResponseData,
// *discordgo.MessageSend or a Response. Interactions are responded to, prefix commands get a message in the channel.
func SendResponseInterface(data *Data, reply interface{}, escapeEveryoneMention bool) ([]*discordgo.Message, error) {
	return sendReply(data, reply, allowedMentions(escapeEveryoneMention), 0)
}

func allowedMentions(escapeEveryoneMention bool) *discordgo.MessageAllowedMentions {
	am := &discordgo.MessageAllowedMentions{}
	if !escapeEveryoneMention {
		// Legacy behaviour
		am.Parse = []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles, discordgo.AllowedMentionTypeUsers, discordgo.AllowedMentionTypeEveryone}
	}
	return am
}

func sendReply(data *Data, reply interface{}, am *discordgo.MessageAllowedMentions, flags discordgo.MessageFlags) ([]*discordgo.Message, error) {
	switch t := reply.(type) {
	case nil:
		return []*discordgo.Message{}, nil
	case Response:
		return t.Send(data)
	case string:
		if t != "" {
			return sendText(data, t, am, flags)
		}
		return []*discordgo.Message{}, nil
	case error:
		if t != nil {
			return sendText(data, t.Error(), am, flags)
		}
		return []*discordgo.Message{}, nil
	case *discordgo.MessageEmbed:
		return sendEmbeds(data, []*discordgo.MessageEmbed{t}, flags)
	case []*discordgo.MessageEmbed:
		return sendEmbeds(data, t, flags)
	case *discordgo.InteractionResponseData:
		if data.IsInteraction() {
			cop := *t
			cop.Flags |= flags
			return respondInteraction(data, &cop)
		}

		m, err := data.Session.ChannelMessageSendComplex(data.ChannelID, &discordgo.MessageSend{
			Content:         t.Content,
			Embeds:          t.Embeds,
			Components:      t.Components,
			Files:           t.Files,
			AllowedMentions: t.AllowedMentions,
		})
		return []*discordgo.Message{m}, err
	case *discordgo.MessageSend:
		if data.IsInteraction() {
			return respondInteraction(data, &discordgo.InteractionResponseData{
				Content:         t.Content,
				Embeds:          t.Embeds,
				Components:      t.Components,
				Files:           t.Files,
				AllowedMentions: t.AllowedMentions,
				Flags:           flags,
			})
		}

		m, err := data.Session.ChannelMessageSendComplex(data.ChannelID, t)
		return []*discordgo.Message{m}, err
	}

	return nil, errors.New("Unknown reply type: " + reflect.TypeOf(reply).String() + " (Does not implement Response)")
}

func sendText(data *Data, content string, am *discordgo.MessageAllowedMentions, flags discordgo.MessageFlags) ([]*discordgo.Message, error) {
	if !data.IsInteraction() {
		return SplitSendMessage(data.Session, data.ChannelID, content, am)
	}

	result := make([]*discordgo.Message, 0, 1)
	for _, part := range SplitString(content, MaxMessageLength) {
		msgs, err := respondInteraction(data, &discordgo.InteractionResponseData{
			Content:         part,
			AllowedMentions: am,
			Flags:           flags,
		})
		result = append(result, msgs...)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func sendEmbeds(data *Data, embeds []*discordgo.MessageEmbed, flags discordgo.MessageFlags) ([]*discordgo.Message, error) {
	result := make([]*discordgo.Message, 0, 1)

	for len(embeds) > 0 {
		n := len(embeds)
		if n > MaxEmbeds {
			n = MaxEmbeds
		}

		chunk := embeds[:n]
		embeds = embeds[n:]

		if data.IsInteraction() {
			msgs, err := respondInteraction(data, &discordgo.InteractionResponseData{
				Embeds: chunk,
				Flags:  flags,
			})
			result = append(result, msgs...)
			if err != nil {
				return result, err
			}
			continue
		}

		m, err := data.Session.ChannelMessageSendEmbeds(data.ChannelID, chunk)
		if err != nil {
			return result, err
		}
		result = append(result, m)
	}

	return result, nil
}

// respondInteraction sends the first response to the interaction, edits the deferred response,
// or creates a followup message if the interaction was already responded to.
// The initial response does not return a message.
func respondInteraction(data *Data, rd *discordgo.InteractionResponseData) ([]*discordgo.Message, error) {
	state := data.state()
	interaction := data.Interaction.Interaction

	switch {
	case state.deferred && !state.responded:
		edit := &discordgo.WebhookEdit{
			Content:         &rd.Content,
			Embeds:          &rd.Embeds,
			AllowedMentions: rd.AllowedMentions,
		}
		if len(rd.Components) > 0 {
			edit.Components = &rd.Components
		}

		m, err := data.Session.InteractionResponseEdit(interaction, edit)
		if err != nil {
			return nil, errors.Wrap(err, "edit deferred response")
		}

		state.responded = true
		return []*discordgo.Message{m}, nil
	case state.responded:
		m, err := data.Session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
			Content:         rd.Content,
			Embeds:          rd.Embeds,
			Components:      rd.Components,
			Files:           rd.Files,
			AllowedMentions: rd.AllowedMentions,
			Flags:           rd.Flags,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create followup")
		}

		return []*discordgo.Message{m}, nil
	}

	err := data.Session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: rd,
	})
	if err != nil {
		return nil, errors.Wrap(err, "respond to interaction")
	}

	state.responded = true
	return []*discordgo.Message{}, nil
}

// Defer acknowledges the interaction, showing the user a loading state until the response is sent.
// Does nothing for prefix commands or interactions that were already acknowledged.
func (d *Data) Defer(ephemeral bool) error {
	state := d.state()
	if !d.IsInteraction() || state.responded || state.deferred {
		return nil
	}

	rd := &discordgo.InteractionResponseData{}
	if ephemeral {
		rd.Flags = discordgo.MessageFlagsEphemeral
	}

	err := d.Session.InteractionRespond(d.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: rd,
	})
	if err != nil {
		return errors.Wrap(err, "Data.Defer")
	}

	state.deferred = true
	return nil
}

// EphemeralResponse sends the inner response so that only the invoker can see it.
// For prefix commands it is sent as a normal message.
type EphemeralResponse struct {
	Response interface{}
}

func NewEphemeralResponse(inner interface{}) *EphemeralResponse {
	return &EphemeralResponse{Response: inner}
}

func (e *EphemeralResponse) Send(data *Data) ([]*discordgo.Message, error) {
	return sendReply(data, e.Response, allowedMentions(true), discordgo.MessageFlagsEphemeral)
}

// DeferredResponse acknowledges the interaction straight away, then runs Run and sends what it returns.
// Use it for commands that might take longer than the 3 seconds discord gives to respond.
type DeferredResponse struct {
	Ephemeral bool
	Run       RunFunc
}

func NewDeferredResponse(ephemeral bool, run RunFunc) *DeferredResponse {
	return &DeferredResponse{Ephemeral: ephemeral, Run: run}
}

func (d *DeferredResponse) Send(data *Data) ([]*discordgo.Message, error) {
	if err := data.Defer(d.Ephemeral); err != nil {
		return nil, err
	}

	resp, err := d.Run(data)
	if err != nil {
		data.Logger().Error().Err(err).Str("command", data.Path).Msg("deferred command returned an error")
		if resp == nil {
			resp = "Error: " + err.Error()
		}
	}

	if resp == nil {
		resp = "Done."
	}

	return SendResponseInterface(data, resp, true)
}

// Temporary response deletes the inner response after Duration.
// For interactions only the original response is deleted.
type TemporaryResponse struct {
	Response       interface{}
	Duration       time.Duration
	EscapeEveryone bool
}

func NewTemporaryResponse(d time.Duration, inner interface{}, escapeEveryoneMention bool) *TemporaryResponse {
	return &TemporaryResponse{
		Duration: d, Response: inner,

		EscapeEveryone: escapeEveryoneMention,
	}
}

func (t *TemporaryResponse) Send(data *Data) ([]*discordgo.Message, error) {

	msgs, err := SendResponseInterface(data, t.Response, t.EscapeEveryone)
	if err != nil {
		return nil, err
	}

	time.AfterFunc(t.Duration, func() {
		if data.IsInteraction() {
			if err := data.Session.InteractionResponseDelete(data.Interaction.Interaction); err != nil {
				data.Logger().Error().Err(err).Msg("failed deleting temporary response")
			}
			return
		}

		var err error
		// do a bulk if 2 or more
		if len(msgs) > 1 {
			ids := make([]string, len(msgs))
			for i, m := range msgs {
				ids[i] = m.ID
			}
			err = data.Session.ChannelMessagesBulkDelete(data.ChannelID, ids)
		} else if len(msgs) == 1 {
			err = data.Session.ChannelMessageDelete(data.ChannelID, msgs[0].ID)
		}

		if err != nil {
			data.Logger().Error().Err(err).Msg("failed deleting temporary response")
		}
	})
	return msgs, nil
}

// The FallbackEmbed reponse type will turn the embeds into a normal mesasge if there is not enough permissions
// Interactions can always use embeds.
type FallbackEmbed struct {
	Embeds []*discordgo.MessageEmbed
}

func (fe *FallbackEmbed) Send(data *Data) ([]*discordgo.Message, error) {
	if data.IsInteraction() || data.IsDM() {
		return sendEmbeds(data, fe.Embeds, 0)
	}

	channelPerms, err := data.Session.State.UserChannelPermissions(data.Session.State.User.ID, data.ChannelID)
	if err != nil {
		return nil, err
	}

	if channelPerms&discordgo.PermissionEmbedLinks != 0 {
		return sendEmbeds(data, fe.Embeds, 0)
	}

	var sb strings.Builder
	for _, e := range fe.Embeds {
		sb.WriteString(StringEmbed(e))
	}
	sb.WriteString("*I have no 'embed links' permissions here, this is a fallback. it looks prettier if i have that perm :)*")

	return SplitSendMessage(data.Session, data.ChannelID, sb.String(), allowedMentions(true))
}

// StringEmbed turns the embed into the best
func StringEmbed(embed *discordgo.MessageEmbed) string {
	body := ""

	if embed.Author != nil {
		body += embed.Author.Name + "\n"
		body += embed.Author.URL + "\n"
	}

	if embed.Title != "" {
		body += "**" + embed.Title + "**\n"
	}

	if embed.Description != "" {
		body += embed.Description + "\n"
	}
	if body != "" {
		body += "\n"
	}

	for _, v := range embed.Fields {
		body += fmt.Sprintf("**%s**\n%s\n\n", v.Name, v.Value)
	}
	return body
}

// SplitSendMessage uses SplitString to make sure each message is within 2k characters and splits at last newline before that (if possible)
func SplitSendMessage(s *discordgo.Session, channelID string, contents string, am *discordgo.MessageAllowedMentions) ([]*discordgo.Message, error) {
	result := make([]*discordgo.Message, 0, 1)

	split := SplitString(contents, MaxMessageLength)
	for _, v := range split {
		m, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         v,
			AllowedMentions: am,
		})
		if err != nil {
			return result, err
		}

		result = append(result, m)
	}

	return result, nil
}

// SplitString uses StrSplitNext to split a string at the last newline before maxLen, throwing away leading and ending whitespaces in the process
func SplitString(s string, maxLen int) []string {
	result := make([]string, 0, 1)

	rest := s
	for {
		if strings.TrimSpace(rest) == "" {
			break
		}

		var split string
		split, rest = StrSplitNext(rest, maxLen)

		split = strings.TrimSpace(split)
		if split == "" {
			continue
		}

		result = append(result, split)
	}

	return result
}

// StrSplitNext Will split "s" before runecount at last possible newline, whitespace or just at "runecount" if there is no whitespace
// If the runecount in "s" is less than "runeCount" then "last" will be zero
func StrSplitNext(s string, runeCount int) (split, rest string) {
	if utf8.RuneCountInString(s) <= runeCount {
		return s, ""
	}

	_, beforeIndex := RuneByIndex(s, runeCount)
	firstPart := s[:beforeIndex]

	// Split at newline if possible
	foundWhiteSpace := false
	lastIndex := strings.LastIndex(firstPart, "\n")
	if lastIndex == -1 {
		// No newline, check for any possible whitespace then
		lastIndex = strings.LastIndexFunc(firstPart, func(r rune) bool {
			return unicode.In(r, unicode.White_Space)
		})
		if lastIndex == -1 {
			lastIndex = beforeIndex
		} else {
			foundWhiteSpace = true
		}
	} else {
		foundWhiteSpace = true
	}

	// Remove the whitespace we split at if any
	if foundWhiteSpace {
		_, rLen := utf8.DecodeRuneInString(s[lastIndex:])
		rest = s[lastIndex+rLen:]
	} else {
		rest = s[lastIndex:]
	}

	split = s[:lastIndex]

	return
}

// RuneByIndex Returns the string index from the rune position
// Panics if utf8.RuneCountInString(s) <= runeIndex or runePos < 0
func RuneByIndex(s string, runePos int) (rune, int) {
	sLen := utf8.RuneCountInString(s)
	if sLen <= runePos || runePos < 0 {
		panic("runePos is out of bounds")
	}

	i := 0
	last := rune(0)
	for k, r := range s {
		if i == runePos {
			return r, k
		}
		i++
		last = r
	}
	return last, i
}

// InlineCode wraps s in backticks, removing any backticks inside it
func InlineCode(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "") + "`"
}
