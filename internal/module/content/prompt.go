package content

import (
	"fmt"
	"strings"
)

// Supported target platforms for generated content.
var supportedPlatforms = map[string]string{
	"twitter":   "a punchy post under 280 characters",
	"linkedin":  "a professional post with a hook, short paragraphs, and a closing question",
	"instagram": "an engaging caption with line breaks and a call to action",
	"tiktok":    "a short video script with a strong first three seconds",
	"blog":      "a structured outline with a headline and section bullets",
}

const chatSystemPrompt = `You are Postforge, a social media content assistant.
Help the user brainstorm, refine, and plan content. Be concrete and brief.`

// IsSupportedPlatform reports whether the platform has a generation recipe.
func IsSupportedPlatform(platform string) bool {
	_, ok := supportedPlatforms[strings.ToLower(platform)]
	return ok
}

// buildGenerationPrompt assembles the system and user messages for a
// platform-targeted generation request.
func buildGenerationPrompt(platform, topic, tone string) []Message {
	style := supportedPlatforms[strings.ToLower(platform)]
	if tone == "" {
		tone = "engaging"
	}

	system := fmt.Sprintf(
		"You are Postforge, a social media copywriter. Write %s for %s. Keep the tone %s. Include relevant hashtags at the end on their own line.",
		style, platform, tone,
	)
	user := fmt.Sprintf("Topic: %s", topic)

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// ExtractHashtags pulls #tags out of generated text, preserving first-seen
// order and dropping duplicates case-insensitively.
func ExtractHashtags(text string) []string {
	var tags []string
	seen := make(map[string]bool)

	for _, field := range strings.Fields(text) {
		if !strings.HasPrefix(field, "#") || len(field) < 2 {
			continue
		}
		tag := strings.TrimRight(field, ".,!?:;")
		if len(tag) < 2 {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}
