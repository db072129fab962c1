package command

import "github.com/bwmarrin/discordgo"

// TrackerCommand defines the structure for the /tracker command.
type TrackerCommand struct{}

// Definition returns the application command definition.
func (c *TrackerCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "tracker",
		Description: "List every recorded member and who invited them (if known).",
	}
}

// ShowAltsCommand defines the structure for the /showalts command.
type ShowAltsCommand struct{}

// Definition returns the application command definition.
func (c *ShowAltsCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "showalts",
		Description: "Show flagged accounts suspected to be alts of banned inviters.",
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}

// RefreshCommand defines the structure for the /refresh command.
type RefreshCommand struct{}

// Definition returns the application command definition.
func (c *RefreshCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "refresh",
		Description: "Manually refresh this guild's invite snapshot (developer only).",
	}
}
