package appcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiRequest struct {
	method string
	path   string
	body   []byte
}

// apiRecorder stands in for the discord api, every request succeeds
type apiRecorder struct {
	mu       sync.Mutex
	requests []apiRequest
}

func (a *apiRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
	}

	a.mu.Lock()
	a.requests = append(a.requests, apiRequest{method: req.Method, path: req.URL.Path, body: body})
	a.mu.Unlock()

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"id":"1"}`)),
		Request:    req,
	}, nil
}

func (a *apiRecorder) Requests() []apiRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]apiRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func testAPISession(t *testing.T) (*discordgo.Session, *apiRecorder) {
	s, err := discordgo.New("Bot test")
	require.NoError(t, err)

	recorder := &apiRecorder{}
	s.Client = &http.Client{Transport: recorder}
	return s, recorder
}

func testInteraction(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "10",
		AppID:     "11",
		Token:     "token",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "1",
		ChannelID: "3",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "2"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        name,
			CommandType: discordgo.ChatApplicationCommand,
			Options:     opts,
		},
	}}
}

func subCommand(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func TestCheckInteraction(t *testing.T) {
	cases := []struct {
		name         string
		ic           *discordgo.InteractionCreate
		expectedPath string
		expectedResp interface{}
	}{
		{"leaf", testInteraction("test"), "test", TestResponse},
		{"sub command", testInteraction("group", subCommand("nested")), "group nested", TestResponse},
		{"registered lower cased", testInteraction("upper"), "Upper", TestResponse},
		{"options", testInteraction("echo", stringOption("text", "hi")), "echo", "0:hi"},
		{"all options", testInteraction("echo",
			stringOption("text", "hi"),
			&discordgo.ApplicationCommandInteractionDataOption{Name: "times", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(2)},
		), "echo", "2:hi"},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("#%d-%s", i, c.name), func(t *testing.T) {
			sys, sender := setupTestSystem()
			sys.Root.AddCommand(&TestCommand{}, NewTrigger("Upper"))

			require.NoError(t, sys.CheckInteraction(nil, c.ic))

			require.Len(t, sender.sent, 1)
			assert.Equal(t, c.expectedPath, sender.sent[0].path)
			assert.Equal(t, c.expectedResp, sender.sent[0].resp)
			assert.NoError(t, sender.sent[0].err)
		})
	}
}

func TestCheckInteractionUnknown(t *testing.T) {
	cases := []struct {
		name string
		ic   *discordgo.InteractionCreate
	}{
		{"bare group", testInteraction("group")},
		{"unknown", testInteraction("nope")},
		{"unknown sub command", testInteraction("group", subCommand("nope"))},
		{"trailing text", testInteraction("test", subCommand("more"))},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("#%d-%s", i, c.name), func(t *testing.T) {
			sys, sender := setupTestSystem()

			err := sys.CheckInteraction(nil, c.ic)
			assert.ErrorIs(t, err, ErrUnknownInteraction)
			assert.Empty(t, sender.sent)
		})
	}
}

func TestCheckInteractionMissingOption(t *testing.T) {
	sys, sender := setupTestSystem()

	require.NoError(t, sys.CheckInteraction(nil, testInteraction("echo")))

	require.Len(t, sender.sent, 1)
	assert.Nil(t, sender.sent[0].resp)
	assert.ErrorIs(t, sender.sent[0].err, ErrNotEnoughArguments)
}

func TestCheckInteractionIgnoresOtherTypes(t *testing.T) {
	sys, sender := setupTestSystem()

	ic := testInteraction("test")
	ic.Type = discordgo.InteractionMessageComponent

	require.NoError(t, sys.CheckInteraction(nil, ic))
	assert.Empty(t, sender.sent)
}

func TestFillInteractionData(t *testing.T) {
	sys, _ := setupTestSystem()

	guild := sys.FillInteractionData(nil, testInteraction("test"))
	assert.Equal(t, SlashSource, guild.Source)
	assert.Equal(t, "2", guild.Author.ID)
	assert.Equal(t, "1", guild.GuildID)
	assert.Equal(t, "3", guild.ChannelID)
	assert.True(t, guild.IsInteraction())
	assert.False(t, guild.IsDM())

	dm := testInteraction("test")
	dm.GuildID = ""
	dm.Member = nil
	dm.User = &discordgo.User{ID: "4"}
	data := sys.FillInteractionData(nil, dm)
	assert.Equal(t, "4", data.Author.ID)
	assert.Nil(t, data.Member)
	assert.True(t, data.IsDM())

	menus := []struct {
		commandType discordgo.ApplicationCommandType
		source      TriggerSource
	}{
		{discordgo.UserApplicationCommand, UserMenuSource},
		{discordgo.MessageApplicationCommand, MessageMenuSource},
	}
	for _, m := range menus {
		ic := testInteraction("Get info")
		ic.Data = discordgo.ApplicationCommandInteractionData{Name: "Get info", CommandType: m.commandType}
		assert.Equal(t, m.source, sys.FillInteractionData(nil, ic).Source)
	}

	ac := testInteraction("test")
	ac.Type = discordgo.InteractionApplicationCommandAutocomplete
	assert.Equal(t, AutocompleteSource, sys.FillInteractionData(nil, ac).Source)
}

type autocompleteCommand struct {
	TestCommand
	focused string
	count   int
}

func (a *autocompleteCommand) Autocomplete(data *Data, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	if focused != nil {
		a.focused = focused.Name
	}

	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, a.count)
	for i := 0; i < a.count; i++ {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: fmt.Sprint(i), Value: fmt.Sprint(i)})
	}
	return out, nil
}

func TestCheckInteractionAutocomplete(t *testing.T) {
	session, api := testAPISession(t)
	sys, sender := setupTestSystem()

	cmd := &autocompleteCommand{count: MaxChoices + 5}
	sys.Root.AddCommand(cmd, NewTrigger("search"))

	ic := testInteraction("search",
		stringOption("other", "x"),
		&discordgo.ApplicationCommandInteractionDataOption{Name: "query", Type: discordgo.ApplicationCommandOptionString, Value: "se", Focused: true},
	)
	ic.Type = discordgo.InteractionApplicationCommandAutocomplete

	require.NoError(t, sys.CheckInteraction(session, ic))
	assert.Empty(t, sender.sent, "autocomplete does not run the command")
	assert.Equal(t, "query", cmd.focused)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.True(t, strings.HasSuffix(requests[0].path, "/interactions/10/token/callback"), requests[0].path)

	var resp interactionCallback
	require.NoError(t, json.Unmarshal(requests[0].body, &resp))
	assert.Equal(t, discordgo.InteractionApplicationCommandAutocompleteResult, resp.Type)
	assert.Len(t, resp.Data.Choices, MaxChoices, "choices are capped")
}

type slowCommand struct {
	ctxErr      error
	hasDeadline bool
}

func (s *slowCommand) Run(data *Data) (interface{}, error) {
	return NewDeferredResponse(true, func(d *Data) (interface{}, error) {
		_, s.hasDeadline = d.Context().Deadline()
		s.ctxErr = d.Context().Err()
		return "done", nil
	}), nil
}

// interactionCallback is the part of the interaction callback body the tests look at
type interactionCallback struct {
	Type discordgo.InteractionResponseType `json:"type"`
	Data struct {
		Choices []*discordgo.ApplicationCommandOptionChoice `json:"choices"`
		Flags   discordgo.MessageFlags                      `json:"flags"`
	} `json:"data"`
}

func TestDeferredResponseInteraction(t *testing.T) {
	session, api := testAPISession(t)
	sys := NewStandardSystem("")
	sys.CommandTimeout = time.Minute

	slow := &slowCommand{}
	sys.Root.AddCommand(slow, NewTrigger("slow"))

	require.NoError(t, sys.CheckInteraction(session, testInteraction("slow")))

	assert.True(t, slow.hasDeadline)
	assert.NoError(t, slow.ctxErr, "deferred commands should run with a live context")

	requests := api.Requests()
	require.Len(t, requests, 2)

	assert.True(t, strings.HasSuffix(requests[0].path, "/interactions/10/token/callback"), requests[0].path)
	var deferred interactionCallback
	require.NoError(t, json.Unmarshal(requests[0].body, &deferred))
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, deferred.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, deferred.Data.Flags)

	assert.Equal(t, http.MethodPatch, requests[1].method)
	assert.True(t, strings.HasSuffix(requests[1].path, "/webhooks/11/token/messages/@original"), requests[1].path)
	var edit map[string]interface{}
	require.NoError(t, json.Unmarshal(requests[1].body, &edit))
	assert.Equal(t, "done", edit["content"])
}
