package handlers

import (
	"fmt"
	"log"

	"raidguard-bot/bot"
	"raidguard-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// BanAddHandler 处理成员封禁事件。
// 被封禁用户被视为潜在的小号源：防护引擎一次性扫描其全部
// 历史受邀成员并逐一标记。同一用户的重复封禁事件不会重复扫描。
func BanAddHandler(b *bot.Bot) func(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	return func(s *discordgo.Session, e *discordgo.GuildBanAdd) {
		log.Printf("检测到用户 %s (%s) 在服务器 %s 被封禁", e.User.Username, e.User.ID, e.GuildID)

		out := b.Guard.HandleBan(e.GuildID, e.User.ID)
		if !out.Swept {
			// 已经扫描过，幂等跳过
			return
		}

		if len(out.Flagged) > 0 {
			utils.Warn("防护", "封禁扫描", fmt.Sprintf("服务器 %s 中封禁用户 %s 的 %d 名受邀成员已被标记", e.GuildID, e.User.ID, len(out.Flagged)))
		}

		if b.DB == nil {
			return
		}
		flagged := b.Guard.FlaggedAccounts(e.GuildID)
		for _, memberID := range out.Flagged {
			rec := flagged[memberID]
			if err := b.DB.RecordFlag(e.GuildID, memberID, rec.InviterID, rec.Reason); err != nil {
				log.Printf("记录服务器 %s 小号标记失败: %v", e.GuildID, err)
			}
		}
	}
}
