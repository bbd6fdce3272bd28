package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"applyflow/application"
	"applyflow/conversation"
	"applyflow/review"
)

const handlerTimeout = 30 * time.Second

// onMessageCreate feeds direct-message replies into the conversation engine.
// Guild messages and bot messages are ignored.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID != "" || m.Author == nil || m.Author.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.engine.HandleReply(ctx, m.Author.ID, m.Content); err != nil {
		b.log.Error("handle reply",
			zap.String("applicant_id", m.Author.ID),
			zap.Error(err))
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(ctx, i)
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "apply":
		b.handleApply(ctx, i)
	case "application":
		b.handleApplicationLookup(ctx, i, data.Options[0].StringValue())
	}
}

func (b *Bot) handleApply(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	_, err := b.engine.Start(ctx, user.ID, user.Username)
	switch {
	case err == nil:
		b.respondEphemeral(i, "Check your DMs to start the application.")
	case errors.Is(err, conversation.ErrCooldownActive):
		b.respondEphemeral(i, fmt.Sprintf("Please wait before starting another application. Cooldown: %ds.", int(b.engine.Cooldown().Seconds())))
	default:
		b.log.Error("start conversation", zap.String("applicant_id", user.ID), zap.Error(err))
		b.respondEphemeral(i, "Couldn't DM you. Enable DMs and try again.")
	}
}

func (b *Bot) handleApplicationLookup(ctx context.Context, i *discordgo.InteractionCreate, appID string) {
	user := interactionUser(i)
	app, err := b.reviews.Lookup(ctx, appID, user.ID)
	if err != nil {
		b.respondEphemeral(i, lookupErrorText(err))
		return
	}
	b.respondEphemeralEmbed(i, summaryEmbed(app))
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	action, appID, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	actor := interactionUser(i)

	switch action {
	case actionPick:
		b.handlePick(ctx, i, appID, actor.ID)
	case actionScore:
		b.openScoreModal(i, appID)
	case actionApprove:
		b.openDecisionModal(i, approveModalID(appID), "Approve Application")
	case actionDeny:
		b.openDecisionModal(i, denyModalID(appID), "Deny Application")
	case actionView:
		b.handleViewTranscript(ctx, i, appID, actor.ID)
	}
}

func (b *Bot) handlePick(ctx context.Context, i *discordgo.InteractionCreate, appID, actorID string) {
	_, err := b.reviews.Claim(ctx, appID, actorID)
	switch {
	case err == nil:
		b.respondEphemeral(i, fmt.Sprintf("You picked %s.", appID))
	case errors.Is(err, review.ErrNotFound):
		b.respondEphemeral(i, "Application not found.")
	case errors.Is(err, review.ErrAlreadyClaimed):
		b.respondEphemeral(i, "Already claimed.")
	case errors.Is(err, review.ErrUnauthorized):
		b.respondEphemeral(i, "You don't have permission to review applications.")
	default:
		b.log.Error("claim application", zap.String("application_id", appID), zap.Error(err))
		b.respondEphemeral(i, "Something went wrong. Try again.")
	}
}

func (b *Bot) handleViewTranscript(ctx context.Context, i *discordgo.InteractionCreate, appID, actorID string) {
	app, err := b.reviews.Lookup(ctx, appID, actorID)
	if err != nil {
		b.respondEphemeral(i, lookupErrorText(err))
		return
	}
	b.respondEphemeralEmbed(i, transcriptEmbed(app))
}

func (b *Bot) openScoreModal(i *discordgo.InteractionCreate, appID string) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: scoreModalID(appID),
			Title:    "Score Application",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "scale",
						Label:     "Scale (5, 10, 50, 100)",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 4,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "score",
						Label:     "Score (numeric, 0 allowed)",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 6,
					},
				}},
			},
		},
	})
	if err != nil {
		b.log.Error("open score modal", zap.String("application_id", appID), zap.Error(err))
	}
}

func (b *Bot) openDecisionModal(i *discordgo.InteractionCreate, customID, title string) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "reason",
						Label:     "Reason",
						Style:     discordgo.TextInputParagraph,
						Required:  true,
						MaxLength: 1000,
					},
				}},
			},
		},
	})
	if err != nil {
		b.log.Error("open decision modal", zap.String("custom_id", customID), zap.Error(err))
	}
}

func (b *Bot) handleModal(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	action, appID, ok := parseCustomID(data.CustomID)
	if !ok {
		return
	}
	actor := interactionUser(i)

	switch action {
	case actionScoreModal:
		b.handleScoreSubmit(ctx, i, appID, actor.ID, data)
	case actionApproveModal:
		b.handleDecisionSubmit(ctx, i, appID, actor.ID, application.DecisionApproved, data)
	case actionDenyModal:
		b.handleDecisionSubmit(ctx, i, appID, actor.ID, application.DecisionDenied, data)
	}
}

func (b *Bot) handleScoreSubmit(ctx context.Context, i *discordgo.InteractionCreate, appID, actorID string, data discordgo.ModalSubmitInteractionData) {
	rawScale := modalValue(data, 0)
	rawScore := modalValue(data, 1)

	app, err := b.reviews.Score(ctx, review.ScoreParams{
		ApplicationID: appID,
		ActorID:       actorID,
		RawScale:      rawScale,
		RawScore:      rawScore,
	})
	switch {
	case err == nil:
		b.respondEphemeral(i, fmt.Sprintf("Saved score %d/%d for %s", *app.Score, *app.ScoreScale, appID))
	case errors.Is(err, review.ErrNotFound):
		b.respondEphemeral(i, "Application not found.")
	case errors.Is(err, review.ErrInvalidFormat):
		b.respondEphemeral(i, "Scale and score must be integers.")
	case errors.Is(err, review.ErrInvalidScale):
		b.respondEphemeral(i, "Scale must be one of: 5, 10, 50, 100.")
	case errors.Is(err, review.ErrForbidden):
		b.respondEphemeral(i, "This application is claimed by another staff member.")
	case errors.Is(err, review.ErrUnauthorized):
		b.respondEphemeral(i, "You don't have permission to review applications.")
	default:
		b.log.Error("score application", zap.String("application_id", appID), zap.Error(err))
		b.respondEphemeral(i, "Something went wrong. Try again.")
	}
}

func (b *Bot) handleDecisionSubmit(ctx context.Context, i *discordgo.InteractionCreate, appID, actorID string, decision application.Decision, data discordgo.ModalSubmitInteractionData) {
	reason := modalValue(data, 0)

	_, err := b.reviews.Decide(ctx, review.DecideParams{
		ApplicationID: appID,
		ActorID:       actorID,
		Decision:      decision,
		Reason:        reason,
	})
	switch {
	case err == nil:
		b.respondEphemeral(i, fmt.Sprintf("Decision recorded: **%s** for **%s**", decision, appID))
	case errors.Is(err, review.ErrNotFound):
		b.respondEphemeral(i, "Application not found.")
	case errors.Is(err, review.ErrScoreRequired):
		b.respondEphemeral(i, "Please score the application before making a decision.")
	case errors.Is(err, review.ErrAlreadyDecided):
		b.respondEphemeral(i, "This application already has a decision.")
	case errors.Is(err, review.ErrForbidden):
		b.respondEphemeral(i, "This application is claimed by another staff member.")
	case errors.Is(err, review.ErrInvalidFormat):
		b.respondEphemeral(i, "A reason is required.")
	default:
		b.log.Error("decide application", zap.String("application_id", appID), zap.Error(err))
		b.respondEphemeral(i, "Something went wrong. Try again.")
	}
}

func lookupErrorText(err error) string {
	switch {
	case errors.Is(err, review.ErrNotFound):
		return "Application not found."
	case errors.Is(err, review.ErrUnauthorized):
		return "You can only view your own applications."
	default:
		return "Something went wrong. Try again."
	}
}

func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn("interaction respond", zap.Error(err))
	}
}

func (b *Bot) respondEphemeralEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn("interaction respond", zap.Error(err))
	}
}

// interactionUser resolves the acting user for both guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func modalValue(data discordgo.ModalSubmitInteractionData, row int) string {
	if row >= len(data.Components) {
		return ""
	}
	actionsRow, ok := data.Components[row].(*discordgo.ActionsRow)
	if !ok || len(actionsRow.Components) == 0 {
		return ""
	}
	input, ok := actionsRow.Components[0].(*discordgo.TextInput)
	if !ok {
		return ""
	}
	return input.Value
}
