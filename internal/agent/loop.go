// ABOUTME: Bounded ReAct reasoning loop over a provider adapter
// ABOUTME: Alternates model calls and tool observations until a final answer or the round cap

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/relay-gateway/internal/metrics"
	"github.com/2389/relay-gateway/internal/provider"
)

// Round cap bounds.
const (
	DefaultMaxRounds = 6
	MaxRoundsLimit   = 10
)

const stopSequence = "\nObservation:"

const promptTemplate = `Answer the following questions as best you can. You have access to the following tools:

%s

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Question: %s
Thought:`

// Result is the outcome of one loop run.
type Result struct {
	Answer string
	Rounds int
	// Truncated is set when the round cap ended the loop.
	Truncated bool
	// Degraded is set when Answer is a backend diagnostic.
	Degraded bool
}

// Loop runs the reasoning protocol. The zero value is usable.
type Loop struct {
	MaxRounds int
	Logger    *slog.Logger
}

// NewLoop creates a loop with maxRounds clamped to [1, MaxRoundsLimit].
// A non-positive maxRounds selects DefaultMaxRounds.
func NewLoop(maxRounds int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		MaxRounds: clampRounds(maxRounds),
		Logger:    logger.With("component", "agent"),
	}
}

func clampRounds(n int) int {
	if n <= 0 {
		return DefaultMaxRounds
	}
	return min(n, MaxRoundsLimit)
}

// Run answers question using adapter and tools. It returns an error only
// when ctx ends; backend failures become a degraded answer.
func (l *Loop) Run(ctx context.Context, adapter provider.Adapter, question string, tools []Tool) (Result, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRounds := clampRounds(l.MaxRounds)

	var descs strings.Builder
	for i, t := range tools {
		if i > 0 {
			descs.WriteByte('\n')
		}
		fmt.Fprintf(&descs, "%s: %s", t.Name, t.Description)
	}
	prompt := fmt.Sprintf(promptTemplate, descs.String(), toolNames(tools), question)

	var scratch strings.Builder
	var lastObservation, lastThought string

	for round := 1; round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{Rounds: round - 1}, err
		}

		reply, err := adapter.Invoke(ctx, prompt+scratch.String(), provider.WithStop(stopSequence))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{Rounds: round}, ctxErr
			}
			logger.Warn("backend failed during reasoning", "round", round, "error", err)
			metrics.AgentRounds.Observe(float64(round))
			return Result{
				Answer:   provider.Diagnostic(adapter.Provider(), err),
				Rounds:   round,
				Degraded: true,
			}, nil
		}
		if i := strings.Index(reply, stopSequence); i >= 0 {
			reply = reply[:i]
		}

		st, err := parseReply(reply)
		var observation string
		switch {
		case err != nil:
			logger.Debug("unparseable reply", "round", round, "error", err)
			observation = err.Error()
			if errors.Is(err, ErrParse) {
				observation = "Invalid Format: " + strings.TrimPrefix(err.Error(), ErrParse.Error()+": ")
			}
		case st.final:
			metrics.AgentRounds.Observe(float64(round))
			return Result{Answer: st.answer, Rounds: round}, nil
		default:
			tool, ok := findTool(tools, st.tool)
			if !ok {
				observation = fmt.Sprintf("%s is not a valid tool, try one of [%s].", st.tool, toolNames(tools))
			} else {
				logger.Debug("running tool", "round", round, "tool", tool.Name, "input", st.input)
				observation = tool.Run(ctx, st.input)
				lastObservation = observation
			}
		}

		if t := strings.TrimSpace(reply); t != "" {
			lastThought = t
		}
		scratch.WriteString(reply)
		scratch.WriteString("\nObservation: ")
		scratch.WriteString(observation)
		scratch.WriteString("\nThought:")
	}

	metrics.AgentRounds.Observe(float64(maxRounds))
	logger.Info("round cap reached without final answer", "rounds", maxRounds)

	answer := lastObservation
	if answer == "" {
		answer = lastThought
	}
	return Result{Answer: strings.TrimSpace(answer), Rounds: maxRounds, Truncated: true}, nil
}
