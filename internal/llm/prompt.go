package llm

import (
	"fmt"
	"regexp"
	"strings"

	"rpgpt/internal/models"
)

const answerInstruction = `You are a sustainability reporting specialist helping a company fill in the CDP climate questionnaire.
Write a concise, factual draft answer to the question you are given. Do not invent figures; where the company
must supply data, leave a clearly marked placeholder such as [insert Scope 1 emissions]. Keep the answer under
4000 characters and return only the answer text.`

const chatInstruction = `You are a helpful assistant for a team reviewing answers to the CDP climate questionnaire.
Answer precisely and say so when you are unsure.`

// BuildAnswerPrompt renders the user prompt for an answer suggestion
func BuildAnswerPrompt(p models.QuestionPrompt) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Question %s", p.QuestionID))
	if p.ModuleName != "" && p.ModuleName != models.NaN {
		sb.WriteString(fmt.Sprintf(" (module: %s)", p.ModuleName))
	}
	sb.WriteString(":\n")
	sb.WriteString(p.Question)
	sb.WriteString("\n")

	if p.Sector != "" {
		sb.WriteString(fmt.Sprintf("\nApplies to sectors: %s\n", p.Sector))
	}
	if len(p.Sectors) > 0 {
		sb.WriteString(fmt.Sprintf("The reporting company operates in: %s\n", strings.Join(p.Sectors, ", ")))
	}
	if strings.TrimSpace(p.Draft) != "" {
		sb.WriteString("\nImprove this existing draft rather than starting over:\n---\n")
		sb.WriteString(p.Draft)
		sb.WriteString("\n---\n")
	}
	return sb.String()
}

// Reasoning models wrap their chain of thought in think tags
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// CleanResponse strips reasoning blocks and surrounding whitespace
func CleanResponse(response string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(response, ""))
}
