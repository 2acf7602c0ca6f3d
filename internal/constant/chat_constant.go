package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	ContentTypeUserInput  = "user_input"
	ContentTypeAiResponse = "ai_response"

	PrincipalRoleUser      = "user"
	PrincipalRoleAdmin     = "admin"
	PrincipalRoleAnonymous = "anonymous"

	// Group scope used by authenticated sessions when the token carries none.
	DefaultGroupScope = "default"

	EmbeddingTaskQuery    = "RETRIEVAL_QUERY"
	EmbeddingTaskDocument = "RETRIEVAL_DOCUMENT"
)

// Canned texts returned in place of model output.
const (
	BlockedContentMessage = `I understand you may be going through a difficult time. For your safety and well-being, I encourage you to seek professional help from qualified mental health professionals, counselors, or crisis support services who can provide the appropriate care and support you need.

This chat session has been blocked due to the content of your message. If you need immediate help, please contact a crisis helpline or speak with a mental health professional.`

	AiResponseBlockedMessage = "I apologize, but I cannot provide that response as it contains inappropriate content. This chat session has been blocked."

	BlockedSessionDeleteError = "Cannot delete a blocked session. Blocked sessions are retained for safety and compliance purposes."

	BlockedSessionTurnError = "This chat session has been blocked and no longer accepts messages."

	TurnInProgressError = "A reply is still being generated for this session. Please wait for it to finish."

	QuotaExceededMessage = "You have reached today's message limit for guest chats. Sign in or come back tomorrow to keep talking."
)
