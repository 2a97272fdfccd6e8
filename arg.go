package appcmd

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ArgDef represents a argument definition, shown as an option in slash menus
type ArgDef struct {
	Name     string
	Type     ArgType
	Help     string
	Required bool
	Default  interface{}

	// Fixed set of values the user picks from
	Choices []*discordgo.ApplicationCommandOptionChoice
	// Values are suggested by the commands CmdWithAutocomplete implementation
	Autocomplete bool
}

type ParsedArg struct {
	Def   *ArgDef
	Value interface{}
	Raw   *RawArg
}

func (p *ParsedArg) Str() string {
	if p == nil || p.Value == nil {
		return ""
	}

	switch t := p.Value.(type) {
	case string:
		return t
	case int, int32, int64, uint, uint32, uint64:
		return strconv.FormatInt(p.Int64(), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func (p *ParsedArg) Int() int {
	return int(p.Int64())
}

func (p *ParsedArg) Int64() int64 {
	if p == nil || p.Value == nil {
		return 0
	}

	switch t := p.Value.(type) {
	case int:
		return int64(t)
	case uint:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func (p *ParsedArg) Float64() float64 {
	if p == nil || p.Value == nil {
		return 0
	}

	switch t := p.Value.(type) {
	case float64:
		return t
	case int, int32, int64, uint, uint32, uint64:
		return float64(p.Int64())
	}

	return 0
}

func (p *ParsedArg) Bool() bool {
	if p == nil || p.Value == nil {
		return false
	}

	switch t := p.Value.(type) {
	case bool:
		return t
	case int, int32, int64, uint, uint32, uint64:
		return p.Int64() > 0
	case string:
		return t != ""
	}

	return false
}

func (p *ParsedArg) User() *discordgo.User {
	if p == nil {
		return nil
	}

	u, _ := p.Value.(*discordgo.User)
	return u
}

func (p *ParsedArg) Role() *discordgo.Role {
	if p == nil {
		return nil
	}

	r, _ := p.Value.(*discordgo.Role)
	return r
}

func (p *ParsedArg) Channel() *discordgo.Channel {
	if p == nil {
		return nil
	}

	c, _ := p.Value.(*discordgo.Channel)
	return c
}

// NewParsedArgs creates a new ParsedArg slice from defs passed, also filling default values
func NewParsedArgs(defs []*ArgDef) []*ParsedArg {
	out := make([]*ParsedArg, len(defs))

	for k := range out {
		out[k] = &ParsedArg{
			Def:   defs[k],
			Value: defs[k].Default,
		}
	}

	return out
}

// ArgType is the interface argument types has to implement,
type ArgType interface {
	// Return true if this argument part matches this type
	Matches(def *ArgDef, part string) bool

	// Attempt to parse it, returning any error if one occured.
	Parse(def *ArgDef, part string, data *Data) (val interface{}, err error)

	// Parse the value of an interaction option
	ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (val interface{}, err error)

	// The option type used when registering slash commands
	OptionType() discordgo.ApplicationCommandOptionType

	// Name as shown in help
	HelpName() string
}

// optionConstrainer is implemented by types that put limits on the slash option, like min and max values
type optionConstrainer interface {
	constrainOption(opt *discordgo.ApplicationCommandOption)
}

var (
	// Create some convenience instances
	Int            = &IntArg{}
	Float          = &FloatArg{}
	String         = &StringArg{}
	Bool           = &BoolArg{}
	User           = &UserArg{}
	UserReqMention = &UserArg{RequireMention: true}
	Role           = &RoleArg{}
	Channel        = &ChannelArg{}
)

// IntArg matches and parses integer arguments
// If min and max are not equal then the value has to be within min and max or else it will fail parsing
type IntArg struct {
	Min, Max int64
}

func (i *IntArg) Matches(def *ArgDef, part string) bool {
	_, err := strconv.ParseInt(part, 10, 64)
	return err == nil
}

func (i *IntArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) {
	v, err := strconv.ParseInt(part, 10, 64)
	if err != nil {
		return nil, &InvalidInt{part}
	}

	return i.checkRange(def, v)
}

func (i *IntArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	return i.checkRange(def, opt.IntValue())
}

func (i *IntArg) checkRange(def *ArgDef, v int64) (interface{}, error) {
	// A valid range has been specified
	if i.Max != i.Min {
		if i.Max < v || i.Min > v {
			return nil, &OutOfRangeError{ArgName: def.Name, Got: v, Min: i.Min, Max: i.Max}
		}
	}

	return v, nil
}

func (i *IntArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionInteger
}

func (i *IntArg) constrainOption(opt *discordgo.ApplicationCommandOption) {
	if i.Max == i.Min {
		return
	}

	minValue := float64(i.Min)
	opt.MinValue = &minValue
	opt.MaxValue = float64(i.Max)
}

func (i *IntArg) HelpName() string {
	return "Whole number"
}

// FloatArg matches and parses float arguments
// If min and max are not equal then the value has to be within min and max or else it will fail parsing
type FloatArg struct {
	Min, Max float64
}

func (f *FloatArg) Matches(def *ArgDef, part string) bool {
	_, err := strconv.ParseFloat(part, 64)
	return err == nil
}

func (f *FloatArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) {
	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return nil, &InvalidFloat{part}
	}

	return f.checkRange(def, v)
}

func (f *FloatArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	return f.checkRange(def, opt.FloatValue())
}

func (f *FloatArg) checkRange(def *ArgDef, v float64) (interface{}, error) {
	// A valid range has been specified
	if f.Max != f.Min {
		if f.Max < v || f.Min > v {
			return nil, &OutOfRangeError{ArgName: def.Name, Got: v, Min: f.Min, Max: f.Max, Float: true}
		}
	}

	return v, nil
}

func (f *FloatArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionNumber
}

func (f *FloatArg) constrainOption(opt *discordgo.ApplicationCommandOption) {
	if f.Max == f.Min {
		return
	}

	minValue := f.Min
	opt.MinValue = &minValue
	opt.MaxValue = f.Max
}

func (f *FloatArg) HelpName() string {
	return "Decimal number"
}

// StringArg matches and parses text arguments
type StringArg struct{}

func (s *StringArg) Matches(def *ArgDef, part string) bool                           { return true }
func (s *StringArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) { return part, nil }
func (s *StringArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	return opt.StringValue(), nil
}
func (s *StringArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionString
}
func (s *StringArg) HelpName() string {
	return "Text"
}

// BoolArg matches yes/no style arguments
type BoolArg struct{}

func (b *BoolArg) Matches(def *ArgDef, part string) bool {
	_, ok := parseBool(part)
	return ok
}

func (b *BoolArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) {
	v, ok := parseBool(part)
	if !ok {
		return nil, &InvalidBool{part}
	}

	return v, nil
}

func (b *BoolArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	return opt.BoolValue(), nil
}

func (b *BoolArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionBoolean
}

func (b *BoolArg) HelpName() string {
	return "Yes/No"
}

func parseBool(part string) (value bool, ok bool) {
	switch strings.ToLower(part) {
	case "1", "true", "yes", "y", "on", "enable", "enabled":
		return true, true
	case "0", "false", "no", "n", "off", "disable", "disabled":
		return false, true
	}

	return false, false
}

// UserArg matches and parses user argument, optionally searching for the member if RequireMention is false
type UserArg struct {
	RequireMention bool
}

func (u *UserArg) Matches(def *ArgDef, part string) bool {
	if u.RequireMention {
		return strings.HasPrefix(part, "<@") && strings.HasSuffix(part, ">")
	}

	// username searches are enabled, any string can be used
	return true
}

func (u *UserArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) {
	if strings.HasPrefix(part, "<@") && strings.HasSuffix(part, ">") {
		// Direct mention
		id := strings.TrimPrefix(part[2:len(part)-1], "!")

		if data.Msg != nil {
			for _, v := range data.Msg.Mentions {
				if id == v.ID {
					return v, nil
				}
			}
		}
		return nil, &ImproperMention{part}
	} else if !u.RequireMention && data.Session != nil && data.GuildID != "" {
		// Search for username
		g, err := data.Session.State.Guild(data.GuildID)
		if err != nil {
			return nil, &UserNotFound{part}
		}

		data.Session.State.RLock()
		user, err := FindDiscordUserByName(part, g.Members)
		data.Session.State.RUnlock()
		return user, err
	}

	return nil, &ImproperMention{part}
}

func (u *UserArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	id, _ := opt.Value.(string)
	if r := data.resolved(); r != nil {
		if user, ok := r.Users[id]; ok {
			return user, nil
		}
	}

	return nil, &UserNotFound{id}
}

func (u *UserArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionUser
}

func (u *UserArg) HelpName() string {
	if u.RequireMention {
		return "User Mention"
	}
	return "User"
}

func FindDiscordUserByName(str string, members []*discordgo.Member) (*discordgo.User, error) {
	for _, v := range members {
		if v == nil || v.User == nil {
			continue
		}

		if v.User.Username == "" {
			continue
		}

		if strings.EqualFold(str, v.User.Username) || (v.Nick != "" && strings.EqualFold(str, v.Nick)) {
			return v.User, nil
		}
	}

	return nil, &UserNotFound{str}
}

// RoleArg matches a role mention or a plain role id
type RoleArg struct{}

func (ra *RoleArg) Matches(def *ArgDef, part string) bool {
	// Check for mention
	if strings.HasPrefix(part, "<@&") && strings.HasSuffix(part, ">") {
		return true
	}

	// Check for ID
	_, err := strconv.ParseInt(part, 10, 64)
	return err == nil
}

func (ra *RoleArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) {
	id := part
	if strings.HasPrefix(part, "<@&") && strings.HasSuffix(part, ">") {
		id = part[3 : len(part)-1]
	}

	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, &ImproperMention{part}
	}

	if data.Session == nil || data.GuildID == "" {
		return nil, &RoleNotFound{part}
	}

	r, err := data.Session.State.Role(data.GuildID, id)
	if err != nil {
		return nil, &RoleNotFound{part}
	}

	return r, nil
}

func (ra *RoleArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	id, _ := opt.Value.(string)
	if r := data.resolved(); r != nil {
		if role, ok := r.Roles[id]; ok {
			return role, nil
		}
	}

	return nil, &RoleNotFound{id}
}

func (ra *RoleArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionRole
}

func (ra *RoleArg) HelpName() string {
	return "Role"
}

// ChannelArg matches a channel mention or a plain channel id
type ChannelArg struct{}

func (ca *ChannelArg) Matches(def *ArgDef, part string) bool {
	// Check for mention
	if strings.HasPrefix(part, "<#") && strings.HasSuffix(part, ">") {
		return true
	}

	// Check for ID
	_, err := strconv.ParseInt(part, 10, 64)
	return err == nil
}

func (ca *ChannelArg) Parse(def *ArgDef, part string, data *Data) (interface{}, error) {
	id := part
	if strings.HasPrefix(part, "<#") && strings.HasSuffix(part, ">") {
		id = part[2 : len(part)-1]
	}

	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, &ImproperMention{part}
	}

	if data.Session == nil {
		return nil, &ChannelNotFound{part}
	}

	c, err := data.Session.State.Channel(id)
	if err != nil || (data.GuildID != "" && c.GuildID != data.GuildID) {
		return nil, &ChannelNotFound{part}
	}

	return c, nil
}

func (ca *ChannelArg) ParseOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption, data *Data) (interface{}, error) {
	id, _ := opt.Value.(string)
	if r := data.resolved(); r != nil {
		if c, ok := r.Channels[id]; ok {
			return c, nil
		}
	}

	return nil, &ChannelNotFound{id}
}

func (ca *ChannelArg) OptionType() discordgo.ApplicationCommandOptionType {
	return discordgo.ApplicationCommandOptionChannel
}

func (ca *ChannelArg) HelpName() string {
	return "Channel"
}
