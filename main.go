package main

import (
	"raidguard-bot/bot"
	"raidguard-bot/command"
	"raidguard-bot/handlers"
	"raidguard-bot/utils"
)

func main() {
	commands := make([]bot.Command, len(command.AllCommands))
	for i, cmd := range command.AllCommands {
		commands[i] = cmd
	}

	bot.Run(func(b *bot.Bot) {
		utils.InitLogger(b.Session)
		handlers.Register(b)
	}, commands)
}
