package handlers

import (
	"fmt"
	"log"

	"raidguard-bot/bot"
	"raidguard-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// MemberAddHandler 处理成员加入服务器事件。
// 加入事件交给防护引擎：记录滑动窗口、评估反突袭阈值、
// 对比邀请快照归属邀请人，并在邀请人已被封禁时立即标记。
// 引擎内部吸收所有外部调用失败，这里只负责审计记录。
func MemberAddHandler(b *bot.Bot) func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		log.Printf("检测到成员 %s (%s) 加入了服务器 %s", m.User.Username, m.User.ID, m.GuildID)

		out := b.Guard.HandleJoin(m.GuildID, m.User.ID)

		if out.RaidTriggered {
			utils.Warn("防护", "反突袭", fmt.Sprintf("服务器 %s 触发反突袭，尝试踢出 %d 名成员", m.GuildID, len(out.Kicked)))
		}
		if out.Flagged {
			utils.Warn("防护", "小号标记", fmt.Sprintf("服务器 %s 中成员 %s 被标记为封禁用户 %s 的疑似小号", m.GuildID, m.User.ID, out.InviterID))
		}

		// 审计数据库未配置时跳过记录
		if b.DB == nil {
			return
		}

		if err := b.DB.IncrementJoins(m.GuildID, 1); err != nil {
			log.Printf("更新服务器 %s 加入人数失败: %v", m.GuildID, err)
		}
		if err := b.DB.RecordAttribution(m.GuildID, m.User.ID, out.InviterID); err != nil {
			log.Printf("记录服务器 %s 邀请归属失败: %v", m.GuildID, err)
		}
		for _, k := range out.Kicked {
			detail := ""
			if k.Err != nil {
				detail = k.Err.Error()
			}
			if err := b.DB.RecordKick(m.GuildID, k.MemberID, k.Err == nil, detail); err != nil {
				log.Printf("记录服务器 %s 踢出操作失败: %v", m.GuildID, err)
			}
		}
		if out.Flagged {
			rec := b.Guard.FlaggedAccounts(m.GuildID)[m.User.ID]
			if err := b.DB.RecordFlag(m.GuildID, m.User.ID, rec.InviterID, rec.Reason); err != nil {
				log.Printf("记录服务器 %s 小号标记失败: %v", m.GuildID, err)
			}
		}
	}
}
