package handlers

import (
	"log"

	"raidguard-bot/bot"

	"github.com/bwmarrin/discordgo"
)

// GuildCreateHandler 处理服务器可用事件。
// 启动时每个已加入的服务器、以及运行中新加入的服务器都会触发
// 此事件；在这里预热邀请快照，保证第一次成员加入就能对比。
func GuildCreateHandler(b *bot.Bot) func(s *discordgo.Session, e *discordgo.GuildCreate) {
	return func(s *discordgo.Session, e *discordgo.GuildCreate) {
		log.Printf("服务器可用: %s (%s)，预热邀请快照", e.Name, e.ID)
		b.Guard.RefreshInvites(e.ID)
	}
}
