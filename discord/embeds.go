package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"applyflow/application"
	"applyflow/gateway"
)

const (
	colorBlurple  = 0x5865F2
	colorDarkBlue = 0x206694
	colorBlue     = 0x3498DB
	colorGold     = 0xF1C40F
	colorGreen    = 0x2ECC71
	colorRed      = 0xE74C3C
	colorGrey     = 0x607D8B
)

const (
	previewLimit    = 1000
	transcriptLimit = 1900
)

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func welcomeEmbed(applicationID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Staff Application",
		Description: "Answer the questions below. Your answers are saved automatically.",
		Color:       colorBlurple,
		Timestamp:   timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Application ID", Value: applicationID},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Reply to each message with your answer.",
		},
	}
}

func questionEmbed(applicationID string, number, total int, text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Question %d of %d", number, total),
		Description: text,
		Color:       colorDarkBlue,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Application %s", applicationID),
		},
	}
}

func submittedEmbed(applicationID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Application Submitted",
		Description: "Thank you — your application has been submitted and will be reviewed by staff.",
		Color:       colorGreen,
		Timestamp:   timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Application ID", Value: applicationID},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Keep this ID to check your application later.",
		},
	}
}

func resultEmbed(notice gateway.ResultNotice) *discordgo.MessageEmbed {
	color := colorGreen
	if notice.Decision == application.DecisionDenied {
		color = colorRed
	}
	return &discordgo.MessageEmbed{
		Title:     "Application Result",
		Color:     color,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Application ID", Value: notice.ApplicationID},
			{Name: "Result", Value: string(notice.Decision), Inline: true},
			{Name: "Score", Value: scoreText(notice.Score, notice.ScoreScale), Inline: true},
			{Name: "Reviewer", Value: mention(notice.ReviewerID), Inline: true},
			{Name: "Reason", Value: notice.Reason},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Thank you for applying"},
	}
}

// staffEmbed renders the review-board post for the application's current
// state. The post is always rebuilt wholesale, so the state shown is exactly
// what the durable record says.
func staffEmbed(app application.Application) *discordgo.MessageEmbed {
	title := "Staff Application"
	color := colorGold
	if app.Status() == application.StatusSubmitted {
		title = "New Staff Application"
	}
	if app.Decision != nil {
		title = "Staff Application (Final)"
		color = colorGreen
		if *app.Decision == application.DecisionDenied {
			color = colorRed
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Applicant", Value: fmt.Sprintf("%s (%s)", app.ApplicantName, app.ApplicantID)},
			{Name: "Application ID", Value: app.ID, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Application %s", app.ID)},
	}

	if app.StartedAt != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Started", Value: app.StartedAt.UTC().Format(time.RFC3339), Inline: true,
		})
	}
	if app.Score != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Score", Value: scoreText(app.Score, app.ScoreScale), Inline: true,
		})
	}
	if app.Decision != nil {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Status", Value: string(*app.Decision), Inline: true},
			&discordgo.MessageEmbedField{Name: "Reviewer", Value: mention(stringOrNA(app.ReviewerID)), Inline: true},
			&discordgo.MessageEmbedField{Name: "Reason", Value: stringOrNA(app.DecisionReason)},
		)
		return embed
	}

	preview := app.Transcript
	if preview == "" {
		preview = "No transcript"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Transcript Preview", Value: truncate(preview, previewLimit),
	})
	return embed
}

// staffComponents returns the action row matching the application's state:
// Pick before a claim, the full review controls after, View Transcript only
// once decided.
func staffComponents(app application.Application) []discordgo.MessageComponent {
	viewButton := discordgo.Button{
		Label:    "View Transcript",
		Style:    discordgo.SecondaryButton,
		CustomID: viewCustomID(app.ID),
	}

	var buttons []discordgo.MessageComponent
	switch {
	case app.Decision != nil:
		buttons = []discordgo.MessageComponent{viewButton}
	case app.PickerID != nil:
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Claimed", Style: discordgo.SecondaryButton, CustomID: "claimed_marker", Disabled: true},
			discordgo.Button{Label: "Score", Style: discordgo.PrimaryButton, CustomID: scoreCustomID(app.ID)},
			discordgo.Button{Label: "Approve", Style: discordgo.SuccessButton, CustomID: approveCustomID(app.ID)},
			discordgo.Button{Label: "Deny", Style: discordgo.DangerButton, CustomID: denyCustomID(app.ID)},
			viewButton,
		}
	default:
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Pick", Style: discordgo.PrimaryButton, CustomID: pickCustomID(app.ID)},
			viewButton,
		}
	}

	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

// summaryEmbed is the private status view returned by the lookup command.
func summaryEmbed(app application.Application) *discordgo.MessageEmbed {
	transcript := app.Transcript
	if transcript == "" {
		transcript = "No transcript saved"
	}

	decision := "Pending"
	if app.Decision != nil {
		decision = string(*app.Decision)
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Application %s", app.ID),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Applicant", Value: fmt.Sprintf("%s (%s)", app.ApplicantName, app.ApplicantID)},
			{Name: "Started", Value: timeOrNA(app.StartedAt), Inline: true},
			{Name: "Finished", Value: timeOrNA(app.FinishedAt), Inline: true},
			{Name: "Score", Value: scoreText(app.Score, app.ScoreScale), Inline: true},
			{Name: "Decision", Value: decision, Inline: true},
			{Name: "Reason", Value: stringOrNA(app.DecisionReason)},
			{Name: "Transcript", Value: fmt.Sprintf("```\n%s\n```", truncate(transcript, transcriptLimit))},
		},
	}
}

func transcriptEmbed(app application.Application) *discordgo.MessageEmbed {
	transcript := app.Transcript
	if transcript == "" {
		transcript = "No transcript saved"
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Transcript %s", app.ID),
		Description: fmt.Sprintf("```\n%s\n```", truncate(transcript, transcriptLimit)),
		Color:       colorGrey,
	}
}

func scoreText(score, scale *int) string {
	if score == nil {
		return "Not scored"
	}
	denominator := 0
	if scale != nil {
		denominator = *scale
	}
	return fmt.Sprintf("%d/%d", *score, denominator)
}

func mention(userID string) string {
	if userID == "" || userID == "N/A" {
		return "N/A"
	}
	return fmt.Sprintf("<@%s>", userID)
}

func stringOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func timeOrNA(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.UTC().Format(time.RFC3339)
}
