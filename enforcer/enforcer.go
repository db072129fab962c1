package enforcer

import (
	"log"

	"raidguard-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnforceAll runs one enforcement sweep over every guild the bot is
// in: locate the configured target member and make sure the mapped or
// fallback helper role is present and assigned. The sweep only reads
// bot-side state; it shares nothing with the event-driven guard.
func EnforceAll(s *discordgo.Session) {
	var cfg models.GuardConfig
	if err := viper.UnmarshalKey("target", &cfg.Target); err != nil {
		log.Printf("Could not decode target config: %v", err)
		return
	}
	if cfg.Target.Username == "" || cfg.Target.UserID == "" {
		// No target configured; the sweep has nothing to enforce.
		return
	}

	cfg.RoleAssignments = make(map[string]string)
	if raw := viper.Get("role_assignments"); raw != nil {
		if err := mapstructure.Decode(raw, &cfg.RoleAssignments); err != nil {
			log.Printf("Could not decode role assignments: %v", err)
		}
	}

	for _, g := range s.State.Guilds {
		enforceGuild(s, g.ID, cfg.Target, cfg.RoleAssignments)
	}
}

// enforceGuild enforces the target role in a single guild, best-effort.
func enforceGuild(s *discordgo.Session, guildID string, target models.TargetConfig, assignments map[string]string) {
	member, err := s.GuildMember(guildID, target.UserID)
	if err != nil {
		// Target not in this guild (or not visible); nothing to do.
		return
	}
	// Username AND user ID must both match before assigning anything.
	if member.User == nil || member.User.Username != target.Username {
		return
	}

	if roleID, ok := assignments[guildID]; ok {
		ensureMemberHasRole(s, guildID, member, roleID, "Dataset role enforcement for target user")
		return
	}
	ensureHelperRole(s, guildID, member, target.HelperRoleName)
}

// ensureHelperRole makes sure the fallback helper role exists with
// administrator permissions and default (grey) colour, sits as high as
// the bot can place it, and is assigned to the target member.
func ensureHelperRole(s *discordgo.Session, guildID string, member *discordgo.Member, roleName string) {
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		log.Printf("[ROLE] Could not list roles in guild %s: %v", guildID, err)
		return
	}

	var role *discordgo.Role
	for _, r := range roles {
		if r.Name == roleName {
			role = r
			break
		}
	}

	if role == nil {
		perms := int64(discordgo.PermissionAdministrator)
		role, err = s.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:        roleName,
			Permissions: &perms,
		})
		if err != nil {
			log.Printf("[ROLE] Could not create '%s' in guild %s: %v", roleName, guildID, err)
			return
		}
		log.Printf("[ROLE] Created '%s' in guild %s", roleName, guildID)
	}

	// Keep the role grey if its colour was changed.
	if role.Color != 0 {
		zero := 0
		if _, err := s.GuildRoleEdit(guildID, role.ID, &discordgo.RoleParams{Name: role.Name, Color: &zero}); err != nil {
			log.Printf("[ROLE] Could not reset colour of '%s' in guild %s: %v", roleName, guildID, err)
		}
	}

	ensureRoleSecondHighest(s, guildID, role, roles)
	ensureMemberHasRole(s, guildID, member, role.ID, "Assign helper role to target user")
}

// ensureRoleSecondHighest moves the role as high as possible under the
// bot's own top role. The bot cannot move a role above its highest
// role, so the target position is capped there.
func ensureRoleSecondHighest(s *discordgo.Session, guildID string, role *discordgo.Role, roles []*discordgo.Role) {
	botMember, err := s.State.Member(guildID, s.State.User.ID)
	if err != nil {
		botMember, err = s.GuildMember(guildID, s.State.User.ID)
		if err != nil {
			log.Printf("[ROLE] Could not determine bot member in guild %s: %v", guildID, err)
			return
		}
	}

	positions := make(map[string]int, len(roles))
	for _, r := range roles {
		positions[r.ID] = r.Position
	}
	botTop := 0
	for _, rid := range botMember.Roles {
		if p, ok := positions[rid]; ok && p > botTop {
			botTop = p
		}
	}

	targetPos := botTop - 1
	if max := len(roles) - 1; targetPos > max {
		targetPos = max
	}
	if targetPos < 1 {
		targetPos = 1
	}

	if role.Position != targetPos {
		_, err := s.GuildRoleReorder(guildID, []*discordgo.Role{{ID: role.ID, Position: targetPos}})
		if err != nil {
			log.Printf("[ROLE] Could not move '%s' in guild %s: %v", role.Name, guildID, err)
			return
		}
		log.Printf("[ROLE] Moved '%s' to position %d in guild %s", role.Name, targetPos, guildID)
	}
}

// ensureMemberHasRole assigns the role when the member lacks it.
func ensureMemberHasRole(s *discordgo.Session, guildID string, member *discordgo.Member, roleID, reason string) {
	for _, r := range member.Roles {
		if r == roleID {
			return
		}
	}
	if err := s.GuildMemberRoleAdd(guildID, member.User.ID, roleID); err != nil {
		log.Printf("[ROLE] Could not assign role %s in guild %s: %v", roleID, guildID, err)
		return
	}
	log.Printf("[ROLE] %s: assigned role %s to %s in guild %s", reason, roleID, member.User.ID, guildID)
}
