package handlers

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"raidguard-bot/bot"
	"raidguard-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// Discord 消息长度上限以内保留的最大行数
const maxListLines = 40

// CommandDispatcher is the central handler for all application command
// interactions. It performs permission checks and then dispatches the
// interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	auth, err := utils.NewAuth()
	if err != nil {
		log.Printf("Failed to create auth instance: %v", err)
		return
	}

	commandPermissions := map[string]string{
		"tracker":  "guest",
		"showalts": "guest",
		"ping":     "guest",
		"refresh":  "developer",
	}

	commandName := i.ApplicationCommandData().Name
	requiredLevel, ok := commandPermissions[commandName]

	if ok {
		if !auth.CheckPermission(s, i, requiredLevel) {
			respond(s, i, "🚫 你没有权限执行此命令", true)
			return
		}
	}

	switch commandName {
	case "tracker":
		HandleTracker(b, s, i)
	case "showalts":
		HandleShowAlts(b, s, i)
	case "ping":
		HandlePing(s, i)
	case "refresh":
		HandleRefresh(b, s, i)
	default:
		respond(s, i, "🚫内部错误：Unknown command.", true)
	}
}

// HandleTracker 处理 /tracker 命令：列出已记录的成员与其邀请人。
// 只读取防护引擎的归属快照，不触发任何外部调用。
func HandleTracker(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respond(s, i, "This command must be used in a server.", true)
		return
	}

	attrs := b.Guard.Attributions(i.GuildID)
	if len(attrs) == 0 {
		respond(s, i, "📊 **Invite Tracker**\n尚未记录任何加入事件。", false)
		return
	}

	memberIDs := make([]string, 0, len(attrs))
	for m := range attrs {
		memberIDs = append(memberIDs, m)
	}
	sort.Strings(memberIDs)

	lines := make([]string, 0, len(memberIDs))
	for _, m := range memberIDs {
		if inviter := attrs[m]; inviter != "" {
			lines = append(lines, fmt.Sprintf("- <@%s> invited by <@%s>", m, inviter))
		} else {
			lines = append(lines, fmt.Sprintf("- <@%s> invited by Unknown", m))
		}
	}
	if len(lines) > maxListLines {
		omitted := len(lines) - maxListLines
		lines = append(lines[:maxListLines], fmt.Sprintf("… 以及另外 %d 名成员", omitted))
	}

	text := "📊 **Invite Tracker**\n" + strings.Join(lines, "\n")
	if b.DB != nil {
		if joins, err := b.DB.TodayJoins(i.GuildID); err == nil {
			text += fmt.Sprintf("\n\n今日加入: %d", joins)
		}
	}
	respond(s, i, text, false)
}

// HandleShowAlts 处理 /showalts 命令：列出被标记的疑似小号。
func HandleShowAlts(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respond(s, i, "This command must be used in a server.", true)
		return
	}

	flagged := b.Guard.FlaggedAccounts(i.GuildID)
	if len(flagged) == 0 {
		respond(s, i, "No flagged accounts found.", false)
		return
	}

	memberIDs := make([]string, 0, len(flagged))
	for m := range flagged {
		memberIDs = append(memberIDs, m)
	}
	sort.Strings(memberIDs)

	lines := make([]string, 0, len(memberIDs))
	for _, m := range memberIDs {
		rec := flagged[m]
		line := fmt.Sprintf("- <@%s> likely alt of <@%s>", m, rec.InviterID)
		// 成员可能已经退出服务器；标记记录依然保留
		if _, err := s.State.Member(i.GuildID, m); err != nil {
			line += " (might have left)"
		}
		lines = append(lines, line)
	}
	if len(lines) > maxListLines {
		omitted := len(lines) - maxListLines
		lines = append(lines[:maxListLines], fmt.Sprintf("… 以及另外 %d 个账户", omitted))
	}

	respond(s, i, "⚠️ **Flagged Accounts**\n"+strings.Join(lines, "\n"), false)
}

// HandlePing 处理 /ping 命令。
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, "Pong!", false)
}

// HandleRefresh 处理 /refresh 命令：手动刷新本服务器的邀请快照。
// 仅开发者可用。
func HandleRefresh(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respond(s, i, "This command must be used in a server.", true)
		return
	}
	b.Guard.RefreshInvites(i.GuildID)
	respond(s, i, "🔄 已刷新本服务器的邀请快照。", true)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("Failed to respond to interaction: %v", err)
	}
}
