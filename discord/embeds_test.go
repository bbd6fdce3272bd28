package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/application"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))

	long := strings.Repeat("x", 20)
	got := truncate(long, 10)
	assert.Equal(t, strings.Repeat("x", 10)+"...", got)
}

func TestStaffEmbed_TitleAndFooterPerState(t *testing.T) {
	finished := time.Now()
	app := application.Application{
		ID:            "app_20250601120000_abc123",
		ApplicantID:   "applicant-1",
		ApplicantName: "Applicant One",
		FinishedAt:    &finished,
		Transcript:    "Q: Q1?\nA: yes\n",
	}

	embed := staffEmbed(app)
	assert.Equal(t, "New Staff Application", embed.Title)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Application app_20250601120000_abc123", embed.Footer.Text)

	picker := "staff-1"
	app.PickerID = &picker
	assert.Equal(t, "Staff Application", staffEmbed(app).Title)

	decision := application.DecisionDenied
	reason := "not enough experience"
	app.Decision = &decision
	app.DecisionReason = &reason
	final := staffEmbed(app)
	assert.Equal(t, "Staff Application (Final)", final.Title)
	assert.Equal(t, colorRed, final.Color)
}

func TestStaffEmbed_TranscriptPreviewTruncated(t *testing.T) {
	finished := time.Now()
	app := application.Application{
		ID:         "app_20250601120000_abc123",
		FinishedAt: &finished,
		Transcript: strings.Repeat("a", previewLimit+500),
	}

	embed := staffEmbed(app)
	preview := embed.Fields[len(embed.Fields)-1]
	assert.Equal(t, "Transcript Preview", preview.Name)
	assert.Len(t, preview.Value, previewLimit+len("..."))
}

func TestStaffComponents_MatchState(t *testing.T) {
	app := application.Application{ID: "app_20250601120000_abc123"}

	labels := func(app application.Application) []string {
		rows := staffComponents(app)
		require.Len(t, rows, 1)
		row := rows[0].(discordgo.ActionsRow)
		var out []string
		for _, c := range row.Components {
			out = append(out, c.(discordgo.Button).Label)
		}
		return out
	}

	assert.Equal(t, []string{"Pick", "View Transcript"}, labels(app))

	picker := "staff-1"
	app.PickerID = &picker
	assert.Equal(t, []string{"Claimed", "Score", "Approve", "Deny", "View Transcript"}, labels(app))

	decision := application.DecisionApproved
	app.Decision = &decision
	assert.Equal(t, []string{"View Transcript"}, labels(app))
}

func TestTranscriptEmbed_Truncated(t *testing.T) {
	app := application.Application{
		ID:         "app_20250601120000_abc123",
		Transcript: strings.Repeat("b", transcriptLimit+100),
	}

	embed := transcriptEmbed(app)
	assert.Contains(t, embed.Description, strings.Repeat("b", transcriptLimit)+"...")
	assert.NotContains(t, embed.Description, strings.Repeat("b", transcriptLimit+1))

	empty := transcriptEmbed(application.Application{ID: "app_x"})
	assert.Contains(t, empty.Description, "No transcript saved")
}

func TestScoreText(t *testing.T) {
	assert.Equal(t, "Not scored", scoreText(nil, nil))

	score, scale := 7, 10
	assert.Equal(t, "7/10", scoreText(&score, &scale))

	zero := 0
	assert.Equal(t, "0/10", scoreText(&zero, &scale))
}

func TestMention(t *testing.T) {
	assert.Equal(t, "<@staff-1>", mention("staff-1"))
	assert.Equal(t, "N/A", mention(""))
	assert.Equal(t, "N/A", mention("N/A"))
}
