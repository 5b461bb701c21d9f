package imagegen

import (
	"fmt"
	"strings"
)

const basePrompt = "Turn the person in this photo into a warm, friendly illustrated portrait " +
	"for our neighborhood community wall. Keep their likeness recognizable, " +
	"use a clean flat illustration style with soft colors, frame them from the chest up " +
	"and leave the background fully transparent."

const activityPrompt = basePrompt + " Show them happily doing their favorite activity: %s. " +
	"Include a small, simple prop or gesture that hints at it without cluttering the portrait."

// BuildPrompt returns the instruction sent with the photo. A nil or blank
// activity yields the base prompt; anything else is embedded verbatim.
func BuildPrompt(activity *string) string {
	if activity == nil || strings.TrimSpace(*activity) == "" {
		return basePrompt
	}
	return fmt.Sprintf(activityPrompt, *activity)
}
