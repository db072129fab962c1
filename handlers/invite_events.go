package handlers

import (
	"log"

	"raidguard-bot/bot"

	"github.com/bwmarrin/discordgo"
)

// InviteCreateHandler 处理邀请创建事件。
// 事件本身不单独处理，只用于触发该服务器邀请快照的刷新，
// 以便后续加入事件的使用次数对比保持准确。
func InviteCreateHandler(b *bot.Bot) func(s *discordgo.Session, e *discordgo.InviteCreate) {
	return func(s *discordgo.Session, e *discordgo.InviteCreate) {
		log.Printf("服务器 %s 创建了邀请 %s，刷新邀请快照", e.GuildID, e.Code)
		b.Guard.RefreshInvites(e.GuildID)
	}
}

// InviteDeleteHandler 处理邀请删除事件，同样只触发快照刷新。
func InviteDeleteHandler(b *bot.Bot) func(s *discordgo.Session, e *discordgo.InviteDelete) {
	return func(s *discordgo.Session, e *discordgo.InviteDelete) {
		log.Printf("服务器 %s 删除了邀请 %s，刷新邀请快照", e.GuildID, e.Code)
		b.Guard.RefreshInvites(e.GuildID)
	}
}
