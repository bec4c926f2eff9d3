package session

type PromptKind string

const (
	PromptNone              PromptKind = "none"
	PromptFullscreenWarning PromptKind = "fullscreen_warning"
	PromptSubmitConfirm     PromptKind = "submit_confirm"
	PromptEmptySubmission   PromptKind = "empty_submission"
	PromptRestartNotice     PromptKind = "restart_notice"
)

// Prompt is the single modal the UI must show. Only the fields of the active
// Kind are set; build values with the constructors below.
type Prompt struct {
	Kind PromptKind `json:"kind"`

	// FullscreenWarning
	Count int `json:"count,omitempty"`
	Max   int `json:"max,omitempty"`

	// SubmitConfirm
	Answered int `json:"answered,omitempty"`
	Total    int `json:"total,omitempty"`

	// RestartNotice
	Violations int `json:"violations,omitempty"`
}

func NoPrompt() Prompt { return Prompt{Kind: PromptNone} }

func FullscreenWarning(count, max int) Prompt {
	return Prompt{Kind: PromptFullscreenWarning, Count: count, Max: max}
}

func SubmitConfirm(answered, total int) Prompt {
	return Prompt{Kind: PromptSubmitConfirm, Answered: answered, Total: total}
}

func EmptySubmission() Prompt { return Prompt{Kind: PromptEmptySubmission} }

func RestartNotice(violations int) Prompt {
	return Prompt{Kind: PromptRestartNotice, Violations: violations}
}

// Blocking reports whether the prompt stops answer input.
func (p Prompt) Blocking() bool { return p.Kind != PromptNone && p.Kind != "" }

// Dismissible reports whether Acknowledge may clear the prompt.
func (p Prompt) Dismissible() bool {
	return p.Kind == PromptEmptySubmission || p.Kind == PromptRestartNotice
}
