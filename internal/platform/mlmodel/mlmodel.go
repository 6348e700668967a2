// Package mlmodel provides the language model capabilities behind the
// patient assistant: text generation for the chatbot and NLLB-based
// translation. Models are hosted on the Hugging Face Inference API and
// initialize lazily on first use; a model that fails to initialize stays
// failed and the package degrades gracefully (identity translation,
// fixed chatbot unavailability replies) rather than erroring out.
package mlmodel

import "context"

// Status tracks the lifecycle of a hosted model.
type Status int

const (
	StatusUninitialized Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Translator translates text between supported languages. Implementations
// return the input text unchanged when translation is impossible, so
// callers never have to special-case a degraded model.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fixed chatbot replies used when the model cannot produce a real answer.
// These exact strings are recognized downstream and exempted from reply
// translation, so they must not change.
const (
	MsgBotUnavailable       = "Chatbot is currently unavailable (local model issue)."
	MsgInputTooLong         = "The input message is too long for the chatbot to process."
	MsgUnexpectedResponse   = "Chatbot received an unexpected response from the local model."
	MsgBotCommunicationFail = "An error occurred while communicating with the local chatbot model."
)

var internalBotMessages = map[string]struct{}{
	MsgBotUnavailable:       {},
	MsgInputTooLong:         {},
	MsgUnexpectedResponse:   {},
	MsgBotCommunicationFail: {},
}

// IsInternalBotMessage reports whether reply is one of the fixed internal
// chatbot messages that must never be translated.
func IsInternalBotMessage(reply string) bool {
	_, ok := internalBotMessages[reply]
	return ok
}
