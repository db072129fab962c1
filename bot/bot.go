package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raidguard-bot/config"
	"raidguard-bot/database"
	"raidguard-bot/guard"
	"raidguard-bot/keepalive"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Command defines the interface for a bot command.
type Command interface {
	Definition() *discordgo.ApplicationCommand
}

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Guard    *guard.Guard
	DB       *database.GuardDB
	Commands map[string]Command
}

// NewBot creates and initializes a new Bot instance. Configuration
// problems are reported here, before any event handler is registered.
func NewBot() (*Bot, error) {
	config.Load()
	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildBans | discordgo.IntentsGuildInvites

	guardCfg := guard.Config{
		RaidWindow:      time.Duration(viper.GetInt("raid.window_seconds")) * time.Second,
		RaidThreshold:   viper.GetInt("raid.threshold"),
		WarnMaxChannels: viper.GetInt("join_warning_max_channels"),
		OperatorID:      viper.GetString("bot.operatorId"),
		CallTimeout:     time.Duration(viper.GetInt("raid.call_timeout_seconds")) * time.Second,
	}
	if err := guardCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guard configuration: %w", err)
	}

	b := &Bot{
		Session:  dg,
		Guard:    guard.New(guardCfg, guard.NewSessionPlatform(dg)),
		Commands: make(map[string]Command),
	}

	// 审计数据库是可选的；没有配置路径时仅跳过审计记录。
	if dbPath := viper.GetString("db_file_path"); dbPath != "" {
		db, err := database.NewGuardDB(dbPath)
		if err != nil {
			log.Printf("打开审计数据库失败，将继续运行但不记录审计: %v", err)
		} else {
			b.DB = db
		}
	}

	return b, nil
}

// RegisterCommands registers the provided commands.
func (b *Bot) RegisterCommands(commands []Command) {
	for _, cmd := range commands {
		b.Commands[cmd.Definition().Name] = cmd
	}
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands
	for _, cmd := range b.Commands {
		_, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd.Definition())
		if err != nil {
			log.Printf("Cannot create '%v' command: %v", cmd.Definition().Name, err)
		}
	}

	startScheduler(b)
	keepalive.Start(viper.GetInt("keepalive.port"))

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	stopScheduler()
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot), commands []Command) {
	bot, err := NewBot()
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}

	bot.RegisterCommands(commands)

	if err := bot.Start(registerHandlers); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
