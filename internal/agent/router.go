package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/Ayash-Bera/travelbot/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ActionFinalAnswer is the pseudo-tool the model names to reply directly.
const ActionFinalAnswer = "Final Answer"

// Decision is the router's choice for one utterance. An empty Tool means
// Reply should be shown as is.
type Decision struct {
	Tool  string
	Input string
	Reply string
}

// Direct reports whether no tool needs to run.
func (d Decision) Direct() bool {
	return d.Tool == ""
}

// IntentRouter picks a tool, or a direct reply, for an utterance given the
// transcript so far.
type IntentRouter interface {
	Route(ctx context.Context, transcript []models.ChatTurn, utterance string) (Decision, error)
}

const routerPrompt = `You are a helpful travel assistant. You can answer general questions yourself, and you have access to these tools:

%s

Respond with exactly one JSON object and nothing else, in one of these two forms.

To use a tool:
{"action": "<one of: %s>", "action_input": "<the input for the tool>"}

To reply to the user directly:
{"action": "Final Answer", "action_input": "<your reply>"}

Pass the user's request to a tool in full, including every detail they gave (places, dates, airlines, budget, layover preferences).`

// LLMRouter asks the chat model which tool to use.
type LLMRouter struct {
	model  llm.ChatModel
	system string
	logger *logrus.Logger
}

func NewLLMRouter(model llm.ChatModel, tools []Tool, logger *logrus.Logger) *LLMRouter {
	return &LLMRouter{
		model:  model,
		system: SystemPrompt(tools),
		logger: logger,
	}
}

// SystemPrompt lists the tools the model may choose from.
func SystemPrompt(tools []Tool) string {
	descriptions := make([]string, len(tools))
	names := make([]string, len(tools))
	for i, tool := range tools {
		descriptions[i] = fmt.Sprintf("> %s: %s", tool.Name, tool.Description)
		names[i] = tool.Name
	}
	return fmt.Sprintf(routerPrompt, strings.Join(descriptions, "\n"), strings.Join(names, ", "))
}

func (r *LLMRouter) Route(ctx context.Context, transcript []models.ChatTurn, utterance string) (Decision, error) {
	output, err := r.model.Complete(ctx, r.system, Conversation(transcript, utterance))
	if err != nil {
		return Decision{}, fmt.Errorf("routing failed: %w", err)
	}

	decision := ParseDecision(output, utterance)

	r.logger.WithFields(logrus.Fields{
		"utterance": utterance,
		"tool":      decision.Tool,
		"direct":    decision.Direct(),
	}).Debug("Utterance routed")

	return decision, nil
}

// Conversation maps the transcript onto model messages and appends the new
// utterance.
func Conversation(transcript []models.ChatTurn, utterance string) []llm.Message {
	messages := make([]llm.Message, 0, len(transcript)+1)
	for _, turn := range transcript {
		role := llm.RoleUser
		if turn.Speaker == models.SpeakerBot {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: utterance})
}

// ParseDecision reads an {"action", "action_input"} reply. Anything else is
// taken as a direct reply with the raw text. A tool call without input gets
// the original utterance.
func ParseDecision(output, utterance string) Decision {
	raw := strings.TrimSpace(output)
	cleaned := services.StripCodeFence(raw)

	root, ok := actionObject(cleaned)
	if !ok {
		return Decision{Reply: raw}
	}

	action := strings.TrimSpace(root.Get("action").String())
	input := root.Get("action_input")
	inputText := input.String()
	if input.IsObject() || input.IsArray() {
		inputText = input.Raw
	}
	inputText = strings.TrimSpace(inputText)

	if strings.EqualFold(action, ActionFinalAnswer) {
		return Decision{Reply: inputText}
	}
	if inputText == "" {
		inputText = utterance
	}
	return Decision{Tool: action, Input: inputText}
}

// actionObject finds a JSON object with a string "action", also when the
// model wrapped it in prose.
func actionObject(text string) (gjson.Result, bool) {
	candidates := []string{text}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, candidate := range candidates {
		if !gjson.Valid(candidate) {
			continue
		}
		root := gjson.Parse(candidate)
		if root.IsObject() && root.Get("action").Type == gjson.String {
			return root, true
		}
	}
	return gjson.Result{}, false
}
