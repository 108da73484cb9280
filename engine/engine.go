// Package engine composes the planner, memory subsystem, and tool
// dispatcher into the end-to-end turn-processing loop: context assembly,
// initial generation, optional tool invocation, final-answer generation,
// reflection, and memory commit.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
	"github.com/verdantlabs/gardener/memory"
	"github.com/verdantlabs/gardener/planner"
	"github.com/verdantlabs/gardener/tools"
)

// ApologyMessage is the fixed reply for any turn that fails before the
// memory commit. The process and other users' turns are unaffected.
const ApologyMessage = "I apologize, but I encountered an error processing your request. Please try again."

const actionMarker = "Action:"
const answerMarker = "Answer:"

// Agent is the turn orchestrator. Construct once and share; turns for
// the same user are serialized internally.
type Agent struct {
	llm     core.Completer
	memory  *memory.Manager
	planner *planner.Planner
	tools   *tools.Dispatcher
	logger  *zap.Logger
	users   *userLocks
}

// NewAgent wires the orchestrator.
func NewAgent(llm core.Completer, mem *memory.Manager, pl *planner.Planner, td *tools.Dispatcher, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		llm:     llm,
		memory:  mem,
		planner: pl,
		tools:   td,
		logger:  logger,
		users:   newUserLocks(),
	}
}

// systemPrompt is the fixed instruction describing the available tools
// and the expected response shape.
func (a *Agent) systemPrompt() string {
	return fmt.Sprintf(`You are a Smart Garden Advisor Agent helping users with plant care.

You use the ReAct (Reasoning + Acting) framework:
1. Thought: Think about what you need to do
2. Action: Choose a tool to use (if needed)
3. Observation: Analyze the tool result
4. Answer: Provide final response

Available Tools:
%s

Guidelines:
- Always think step-by-step
- Use tools when you need specific information (weather, calculations, plant knowledge)
- Be friendly and helpful
- If you make a mistake, acknowledge and correct it
- Remember user's previous conversations and their plants

Format your response as:
Thought: [your reasoning]
Action: [tool_name: parameters] (if needed)
Observation: [result analysis]
Answer: [final response to user]`, a.tools.Descriptions())
}

// ProcessMessage runs one full turn for the user and returns the final
// answer text. Any failure, including a panic, yields the fixed apology
// and skips the memory commit for this turn only.
func (a *Agent) ProcessMessage(ctx context.Context, userID, message string) (reply string) {
	release := a.users.acquire(userID)
	defer release()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("turn panicked", zap.String("user", userID), zap.Any("panic", r))
			reply = ApologyMessage
		}
	}()

	reply, err := a.processTurn(ctx, userID, message)
	if err != nil {
		a.logger.Error("turn failed", zap.String("user", userID), zap.Error(err))
		return ApologyMessage
	}
	return reply
}

func (a *Agent) processTurn(ctx context.Context, userID, message string) (string, error) {
	a.logger.Info("processing message",
		zap.String("user", userID), zap.String("message", truncate(message, 100)))

	// 1. Load memory: recent history plus retrieval-augmented context.
	history := a.memory.ShortTerm(userID)
	relevantContext := a.memory.QueryLongTerm(ctx, userID, message, 3)
	knowledge := a.memory.QueryKnowledge(ctx, message, 2)

	// 2. Plan. Telemetry only: the plan never alters control flow.
	plan := a.planner.CreatePlan(ctx, message, relevantContext)
	a.logger.Info("plan created",
		zap.String("type", string(plan.Type)),
		zap.Bool("requires_tools", plan.RequiresTools),
		zap.String("complexity", string(plan.Complexity)))

	// 3. Assemble the ordered message sequence.
	msgs := []core.Message{core.SystemMessage(a.systemPrompt())}
	if block := contextBlock(relevantContext, knowledge); block != "" {
		msgs = append(msgs, core.SystemMessage(block))
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, core.UserMessage(message))

	// 4. Initial reasoning and action.
	initial, err := a.llm.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("initial completion: %w", err)
	}
	a.logger.Debug("initial response", zap.String("text", truncate(initial, 200)))

	// 5. Tool usage, when the response names an action.
	final := initial
	if toolName, toolParams, ok := extractAction(initial); ok {
		result := a.tools.Execute(ctx, toolName, toolParams, userID)
		observation := result.Observation()
		a.logger.Info("tool executed",
			zap.String("tool", toolName),
			zap.Bool("failed", result.Failed()),
			zap.String("observation", truncate(observation, 100)))

		msgs = append(msgs,
			core.AssistantMessage(initial),
			core.UserMessage(fmt.Sprintf("\nObservation: %s\n\nNow provide the final answer to the user.", observation)),
		)
		final, err = a.llm.Complete(ctx, msgs)
		if err != nil {
			return "", fmt.Errorf("final completion: %w", err)
		}
	}

	// 6. Reflection: self-review, falling back to the unreflected text.
	refined := a.reflect(ctx, message, final)

	// 7. Extract the user-visible answer.
	answer := extractAnswer(refined)

	// 8. Commit the turn to both memory tiers. Only reached when every
	// prior step succeeded.
	a.memory.AppendShortTerm(userID, message, answer)
	a.memory.AddLongTerm(ctx, userID, message, answer)

	a.logger.Info("response generated", zap.String("user", userID))
	return answer, nil
}

// contextBlock renders retrieved long-term and knowledge text as one
// system message body. Empty when nothing relevant was found.
func contextBlock(relevantContext, knowledge string) string {
	var parts []string
	if relevantContext != "" {
		parts = append(parts, "Relevant context from past conversations:\n"+relevantContext)
	}
	if knowledge != "" {
		parts = append(parts, "Plant care reference:\n"+knowledge)
	}
	return strings.Join(parts, "\n\n")
}

// extractAction scans the response for a line starting with the action
// marker and splits it into tool name and parameters at the first colon
// after the marker. Parameters may legally contain further colons.
func extractAction(response string) (toolName, params string, ok bool) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, actionMarker) {
			continue
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, actionMarker))
		name, rest, found := strings.Cut(content, ":")
		if !found {
			return "", "", false
		}
		return strings.TrimSpace(name), strings.TrimSpace(rest), true
	}
	return "", "", false
}

const reflectionInstruction = `You are reviewing a chatbot's garden advice response.
If the response is already good, keep it as is.
If it can be improved, rewrite it in a clearer, more helpful, and friendly tone.

Important:
- Return only the improved final message for the user.
- Do NOT include explanations, analysis, or lists of improvements.
- Do NOT show reasoning or mention that it was improved.
- Keep it natural, like a helpful assistant message.`

// reflect runs the self-review pass over the candidate answer. On any
// failure or empty output it returns the response unchanged, so
// reflection never empties a reply.
func (a *Agent) reflect(ctx context.Context, query, response string) string {
	prompt := fmt.Sprintf("%s\n\nUser Query: %s\nYour Response: %s\n\nFinal improved message:",
		reflectionInstruction, query, response)

	refined, err := a.llm.Complete(ctx, []core.Message{
		core.SystemMessage("You are a garden assistant response improver."),
		core.UserMessage(prompt),
	})
	if err != nil {
		a.logger.Warn("reflection failed", zap.Error(err))
		return response
	}

	refined = strings.TrimSpace(refined)
	if refined == "" {
		return response
	}
	a.logger.Debug("reflection completed", zap.String("query", truncate(query, 50)))
	return refined
}

// extractAnswer takes the text after the answer marker when present,
// otherwise the whole reflected text.
func extractAnswer(response string) string {
	if idx := strings.Index(response, answerMarker); idx >= 0 {
		return strings.TrimSpace(response[idx+len(answerMarker):])
	}
	return strings.TrimSpace(response)
}

// UserPlants surfaces the plants mentioned across the user's stored
// conversations.
func (a *Agent) UserPlants(ctx context.Context, userID string) []string {
	return a.memory.MentionedPlants(ctx, userID)
}

// ClearUser removes the user's conversation memory. The per-user lock
// keeps the wipe from racing an in-flight turn.
func (a *Agent) ClearUser(ctx context.Context, userID string) {
	release := a.users.acquire(userID)
	defer release()
	a.memory.ClearUser(ctx, userID)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
