package appcmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// GuildOnlyMW stops the command from running in direct messages
func GuildOnlyMW(inner RunFunc) RunFunc {
	return func(data *Data) (interface{}, error) {
		if data.IsDM() {
			return NewEphemeralResponse("Error: This is a guild command!"), nil
		}

		return inner(data)
	}
}

// RequirePermissionsMW only lets members with all of perms (or administrator) run the command.
// It does nothing in direct messages.
func RequirePermissionsMW(perms int64) MiddleWareFunc {
	return func(inner RunFunc) RunFunc {
		return func(data *Data) (interface{}, error) {
			if data.IsDM() {
				return inner(data)
			}

			has, err := data.Permissions()
			if err != nil {
				return nil, err
			}

			if has&discordgo.PermissionAdministrator != 0 || has&perms == perms {
				return inner(data)
			}

			missing := PermissionNames(perms &^ has)
			return NewEphemeralResponse(fmt.Sprintf("You need the following permissions to run this command: `%s`", strings.Join(missing, "`, `"))), nil
		}
	}
}

// CooldownMW limits how often a user can run the command, allowing burst runs and then one every interval.
// Limiters of users that have been idle long enough to be full again are dropped.
func CooldownMW(every time.Duration, burst int) MiddleWareFunc {
	idle := every*time.Duration(burst) + time.Minute
	limiters := cache.New(idle, time.Minute)

	return func(inner RunFunc) RunFunc {
		return func(data *Data) (interface{}, error) {
			if data.Author == nil {
				return inner(data)
			}

			key := data.Author.ID + ":" + data.Path

			limiter := rate.NewLimiter(rate.Every(every), burst)
			if limiters.Add(key, limiter, cache.DefaultExpiration) != nil {
				// already limited, keep using that one
				if v, ok := limiters.Get(key); ok {
					limiter = v.(*rate.Limiter)
				}
				limiters.Replace(key, limiter, cache.DefaultExpiration)
			}

			if !limiter.Allow() {
				r := limiter.Reserve()
				wait := r.Delay()
				r.Cancel()

				return NewEphemeralResponse(fmt.Sprintf("You're doing that too often, try again in %s", wait.Round(100*time.Millisecond))), nil
			}

			return inner(data)
		}
	}
}

// LogMW logs every command that was ran, and the error if it failed
func LogMW(logger zerolog.Logger) MiddleWareFunc {
	return func(inner RunFunc) RunFunc {
		return func(data *Data) (interface{}, error) {
			started := time.Now()
			resp, err := inner(data)

			ev := logger.Info()
			msg := "command executed"
			if err != nil {
				ev = logger.Error().Err(err)
				msg = "command errored"
			}

			user := ""
			if data.Author != nil {
				user = data.Author.Username
			}

			ev.Str("command", data.Path).
				Str("source", data.Source.String()).
				Str("user", user).
				Str("guild", data.GuildID).
				Dur("took", time.Since(started)).
				Msg(msg)

			return resp, err
		}
	}
}

var permissionNames = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionCreateInstantInvite, "Create Instant Invite"},
	{discordgo.PermissionKickMembers, "Kick Members"},
	{discordgo.PermissionBanMembers, "Ban Members"},
	{discordgo.PermissionAdministrator, "Administrator"},
	{discordgo.PermissionManageChannels, "Manage Channels"},
	{discordgo.PermissionManageGuild, "Manage Server"},
	{discordgo.PermissionAddReactions, "Add Reactions"},
	{discordgo.PermissionViewAuditLogs, "View Audit Logs"},
	{discordgo.PermissionVoicePrioritySpeaker, "Priority Speaker"},
	{discordgo.PermissionVoiceStreamVideo, "Stream Video"},
	{discordgo.PermissionViewChannel, "View Channel"},
	{discordgo.PermissionSendMessages, "Send Messages"},
	{discordgo.PermissionSendTTSMessages, "Send TTS Messages"},
	{discordgo.PermissionManageMessages, "Manage Messages"},
	{discordgo.PermissionEmbedLinks, "Embed Links"},
	{discordgo.PermissionAttachFiles, "Attach Files"},
	{discordgo.PermissionReadMessageHistory, "Read Message History"},
	{discordgo.PermissionMentionEveryone, "Mention Everyone"},
	{discordgo.PermissionUseExternalEmojis, "Use External Emojis"},
	{discordgo.PermissionViewGuildInsights, "View Guild Insights"},
	{discordgo.PermissionVoiceConnect, "Connect to Voice Channel"},
	{discordgo.PermissionVoiceSpeak, "Speak"},
	{discordgo.PermissionVoiceMuteMembers, "Mute Members"},
	{discordgo.PermissionVoiceDeafenMembers, "Deafen Members"},
	{discordgo.PermissionVoiceMoveMembers, "Move Members"},
	{discordgo.PermissionVoiceUseVAD, "Use Voice Activity Detection"},
	{discordgo.PermissionChangeNickname, "Change Nickname"},
	{discordgo.PermissionManageNicknames, "Manage Nicknames"},
	{discordgo.PermissionManageRoles, "Manage Roles"},
	{discordgo.PermissionManageWebhooks, "Manage Webhooks"},
	{discordgo.PermissionManageGuildExpressions, "Manage Expressions"},
	{discordgo.PermissionUseApplicationCommands, "Use Application Commands"},
	{discordgo.PermissionVoiceRequestToSpeak, "Request to Speak"},
	{discordgo.PermissionManageEvents, "Manage Events"},
	{discordgo.PermissionManageThreads, "Manage Threads"},
	{discordgo.PermissionCreatePublicThreads, "Create Public Threads"},
	{discordgo.PermissionCreatePrivateThreads, "Create Private Threads"},
	{discordgo.PermissionUseExternalStickers, "Use External Stickers"},
	{discordgo.PermissionSendMessagesInThreads, "Send Messages in Threads"},
	{discordgo.PermissionUseEmbeddedActivities, "Use Embedded Activities"},
	{discordgo.PermissionModerateMembers, "Moderate Members"},
}

// PermissionNames returns the names of the permission bits set in perms, in bit order.
// Unknown bits are shown in hex.
func PermissionNames(perms int64) []string {
	out := make([]string, 0)
	known := int64(0)

	for _, p := range permissionNames {
		known |= p.bit
		if perms&p.bit != 0 {
			out = append(out, p.name)
		}
	}

	if unknown := perms &^ known; unknown != 0 {
		out = append(out, fmt.Sprintf("0x%x", unknown))
	}

	return out
}
