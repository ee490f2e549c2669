package prompting

import (
	"fmt"
	"strings"

	"github.com/upb/genai-gateway/models"
)

// basePrompt is the fixed system instruction shared by every task.
const basePrompt = "You are a helpful enterprise assistant. " +
	"Be concise, correct, and safe. " +
	"If the user requests sensitive personal data, refuse. " +
	"If uncertain, say you are uncertain and ask a short clarifying question."

// taskHints is the closed table of task-specific instructions.
var taskHints = map[models.Task]string{
	models.TaskSummarise: "Summarise the input in bullet points, capturing key facts and decisions.",
	models.TaskExtract:   "Extract key entities/fields as JSON. If a field is missing, set it to null.",
	models.TaskClassify:  "Classify the input into a small set of labels and explain briefly.",
	models.TaskRewrite:   "Rewrite for clarity and professionalism without changing meaning.",
	models.TaskQA:        "Answer the question using the provided text. If missing context, say so.",
	models.TaskChat:      "Respond naturally and helpfully.",
}

// ComposeSystemPrompt derives the system instruction for a task. Unknown
// tasks fall back to the chat hint. Deterministic and pure.
func ComposeSystemPrompt(task models.Task) string {
	hint, ok := taskHints[task]
	if !ok {
		hint = taskHints[models.TaskChat]
	}
	return basePrompt + "\n\nTask: " + hint
}

// ValidatePrompt rejects prompts that cannot be sent to a provider: empty
// text, null bytes, or control characters other than whitespace.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	if strings.Contains(prompt, "\x00") {
		return fmt.Errorf("prompt contains null bytes")
	}

	for _, r := range prompt {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("prompt contains invalid control characters")
		}
	}

	return nil
}
