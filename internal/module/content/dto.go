package content

// ChatRequest is one user message in an assistant conversation. History is
// optional prior turns the client wants to keep in context.
type ChatRequest struct {
	Message string    `json:"message" binding:"required"`
	History []Message `json:"history"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Reply         string `json:"reply"`
	FairUsageWarn bool   `json:"fair_usage_warn,omitempty"`
}

// GenerateRequest asks for a platform-targeted piece of content.
type GenerateRequest struct {
	Platform string `json:"platform" binding:"required"`
	Topic    string `json:"topic" binding:"required"`
	Tone     string `json:"tone"`
}

// GenerateResponse carries the generated content and extracted hashtags.
type GenerateResponse struct {
	Platform      string   `json:"platform"`
	Content       string   `json:"content"`
	Hashtags      []string `json:"hashtags,omitempty"`
	FairUsageWarn bool     `json:"fair_usage_warn,omitempty"`
}
