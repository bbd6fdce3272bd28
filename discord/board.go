package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"applyflow/application"
)

// Board implements gateway.ReviewBoard on the configured staff channel. The
// posted record is addressed by its message id, kept on the application
// record, so reconstruction after a restart is an indexed lookup rather than
// a history scan.
type Board struct {
	sess      *discordgo.Session
	channelID string
	log       *zap.Logger
}

func NewBoard(sess *discordgo.Session, channelID string, log *zap.Logger) *Board {
	return &Board{sess: sess, channelID: channelID, log: log}
}

func (b *Board) PostSubmission(ctx context.Context, app application.Application) (string, error) {
	if b.channelID == "" {
		return "", fmt.Errorf("discord: staff channel not configured")
	}

	msg, err := b.sess.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{staffEmbed(app)},
		Components: staffComponents(app),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: post review record: %w", err)
	}
	return msg.ID, nil
}

func (b *Board) RefreshSubmission(ctx context.Context, messageID string, app application.Application) error {
	embeds := []*discordgo.MessageEmbed{staffEmbed(app)}
	components := staffComponents(app)

	_, err := b.sess.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    b.channelID,
		ID:         messageID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: refresh review record: %w", err)
	}
	return nil
}
