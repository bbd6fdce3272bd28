package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"applyflow/gateway"
)

// Messenger implements gateway.ApplicantMessenger over Discord direct
// messages.
type Messenger struct {
	sess *discordgo.Session
	log  *zap.Logger
}

func NewMessenger(sess *discordgo.Session, log *zap.Logger) *Messenger {
	return &Messenger{sess: sess, log: log}
}

// dmChannel opens (or reuses) the DM channel with the applicant. Failures
// here mean the recipient is unreachable.
func (m *Messenger) dmChannel(ctx context.Context, applicantID string) (string, error) {
	ch, err := m.sess.UserChannelCreate(applicantID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("%w: open dm: %v", gateway.ErrDeliveryFailure, err)
	}
	return ch.ID, nil
}

func (m *Messenger) sendEmbed(ctx context.Context, applicantID string, embed *discordgo.MessageEmbed) (string, error) {
	channelID, err := m.dmChannel(ctx, applicantID)
	if err != nil {
		return "", err
	}
	msg, err := m.sess.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("%w: send dm: %v", gateway.ErrDeliveryFailure, err)
	}
	return msg.ID, nil
}

func (m *Messenger) SendWelcome(ctx context.Context, applicantID, applicationID string) (string, error) {
	return m.sendEmbed(ctx, applicantID, welcomeEmbed(applicationID))
}

func (m *Messenger) SendQuestion(ctx context.Context, applicantID, applicationID string, number, total int, text string) (string, error) {
	return m.sendEmbed(ctx, applicantID, questionEmbed(applicationID, number, total, text))
}

func (m *Messenger) SendSubmitted(ctx context.Context, applicantID, applicationID string) (string, error) {
	return m.sendEmbed(ctx, applicantID, submittedEmbed(applicationID))
}

func (m *Messenger) SendResult(ctx context.Context, applicantID string, notice gateway.ResultNotice) (string, error) {
	return m.sendEmbed(ctx, applicantID, resultEmbed(notice))
}

func (m *Messenger) DeleteMessage(ctx context.Context, applicantID, messageID string) error {
	channelID, err := m.dmChannel(ctx, applicantID)
	if err != nil {
		return err
	}
	return m.sess.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// RecentMessageIDs pages through the applicant's DM history and returns ids
// of messages this bot sent, newest first, up to limit scanned messages.
func (m *Messenger) RecentMessageIDs(ctx context.Context, applicantID string, limit int) ([]string, error) {
	channelID, err := m.dmChannel(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	selfID := ""
	if m.sess.State != nil && m.sess.State.User != nil {
		selfID = m.sess.State.User.ID
	}

	var ids []string
	before := ""
	remaining := limit
	for remaining > 0 {
		pageSize := remaining
		if pageSize > 100 {
			pageSize = 100
		}
		page, err := m.sess.ChannelMessages(channelID, pageSize, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return ids, fmt.Errorf("%w: list dm history: %v", gateway.ErrDeliveryFailure, err)
		}
		if len(page) == 0 {
			break
		}
		for _, msg := range page {
			if msg.Author != nil && msg.Author.ID == selfID {
				ids = append(ids, msg.ID)
			}
		}
		before = page[len(page)-1].ID
		remaining -= len(page)
	}
	return ids, nil
}
