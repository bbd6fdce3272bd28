// Package discord adapts the chat-platform boundary to Discord. It renders
// embeds and components, routes slash commands, buttons and modals to the
// lifecycle engines, and contains no lifecycle decisions of its own.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"applyflow/conversation"
	"applyflow/review"
)

// Bot owns the Discord session and dispatches gateway events to the
// conversation flow engine and the review workflow service.
type Bot struct {
	sess    *discordgo.Session
	engine  *conversation.Engine
	reviews *review.Service
	guildID string
	log     *zap.Logger
}

// NewSession builds a discordgo session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	sess, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	sess.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	return sess, nil
}

func NewBot(sess *discordgo.Session, engine *conversation.Engine, reviews *review.Service, guildID string, log *zap.Logger) *Bot {
	bot := &Bot{
		sess:    sess,
		engine:  engine,
		reviews: reviews,
		guildID: guildID,
		log:     log,
	}
	sess.AddHandler(bot.onMessageCreate)
	sess.AddHandler(bot.onInteractionCreate)
	return bot
}

// Run opens the gateway connection, registers the slash commands and blocks
// until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.sess.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	defer b.sess.Close()

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.log.Info("bot ready",
		zap.String("user", b.sess.State.User.Username),
		zap.String("user_id", b.sess.State.User.ID))

	<-ctx.Done()
	return nil
}

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "apply",
			Description: "Start a staff application",
		},
		{
			Name:        "application",
			Description: "Get the status and results for an application",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "Application ID to fetch",
					Required:    true,
				},
			},
		},
	}

	for _, cmd := range commands {
		if _, err := b.sess.ApplicationCommandCreate(b.sess.State.User.ID, b.guildID, cmd); err != nil {
			return fmt.Errorf("discord: register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}
