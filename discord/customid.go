package discord

import "strings"

// Component and modal custom ids carry the action and the application id so
// the posted review record stays actionable across restarts without any
// in-memory registry.
const (
	actionPick         = "pick"
	actionScore        = "score"
	actionApprove      = "approve"
	actionDeny         = "deny"
	actionView         = "view"
	actionScoreModal   = "scoremodal"
	actionApproveModal = "approvemodal"
	actionDenyModal    = "denymodal"
)

func pickCustomID(applicationID string) string    { return actionPick + "_" + applicationID }
func scoreCustomID(applicationID string) string   { return actionScore + "_" + applicationID }
func approveCustomID(applicationID string) string { return actionApprove + "_" + applicationID }
func denyCustomID(applicationID string) string    { return actionDeny + "_" + applicationID }
func viewCustomID(applicationID string) string    { return actionView + "_" + applicationID }

func scoreModalID(applicationID string) string   { return actionScoreModal + "_" + applicationID }
func approveModalID(applicationID string) string { return actionApproveModal + "_" + applicationID }
func denyModalID(applicationID string) string    { return actionDenyModal + "_" + applicationID }

// parseCustomID splits a custom id into its action and application id.
// Application ids contain underscores, so only the first separator counts.
func parseCustomID(customID string) (action, applicationID string, ok bool) {
	parts := strings.SplitN(customID, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
