package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Gate implements gateway.ReviewerGate via guild role membership. With no
// reviewer role configured the gate fails open and only picker exclusivity
// applies.
type Gate struct {
	sess    *discordgo.Session
	guildID string
	roleID  string
}

func NewGate(sess *discordgo.Session, guildID, roleID string) *Gate {
	return &Gate{sess: sess, guildID: guildID, roleID: roleID}
}

func (g *Gate) IsReviewer(ctx context.Context, actorID string) (bool, error) {
	if g.roleID == "" {
		return true, nil
	}

	member, err := g.sess.State.Member(g.guildID, actorID)
	if err != nil {
		member, err = g.sess.GuildMember(g.guildID, actorID, discordgo.WithContext(ctx))
		if err != nil {
			return false, fmt.Errorf("discord: fetch member: %w", err)
		}
	}

	for _, role := range member.Roles {
		if role == g.roleID {
			return true, nil
		}
	}
	return false, nil
}
