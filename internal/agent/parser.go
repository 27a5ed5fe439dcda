// ABOUTME: Parses model replies in the ReAct text format
// ABOUTME: Extracts either a final answer or a tool action with its input

package agent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse marks a reply that follows neither the action nor the final
// answer format.
var ErrParse = errors.New("invalid format")

const finalAnswerMarker = "Final Answer:"

var (
	actionRe      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	actionOnlyRe  = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	actionInputRe = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// step is one parsed model reply.
type step struct {
	final  bool
	answer string
	tool   string
	input  string
}

func parseReply(text string) (step, error) {
	if i := strings.LastIndex(text, finalAnswerMarker); i >= 0 {
		return step{final: true, answer: strings.TrimSpace(text[i+len(finalAnswerMarker):])}, nil
	}

	if m := actionRe.FindStringSubmatch(text); m != nil {
		input := strings.TrimSpace(m[2])
		// A model that ignores the stop sequence may hallucinate its own observation.
		if j := strings.Index(input, "\nObservation"); j >= 0 {
			input = strings.TrimSpace(input[:j])
		}
		input = strings.Trim(input, `"`)
		return step{tool: strings.TrimSpace(m[1]), input: input}, nil
	}

	if !actionOnlyRe.MatchString(text) {
		return step{}, fmt.Errorf("%w: Missing 'Action:' after 'Thought:'", ErrParse)
	}
	if !actionInputRe.MatchString(text) {
		return step{}, fmt.Errorf("%w: Missing 'Action Input:' after 'Action:'", ErrParse)
	}
	return step{}, fmt.Errorf("%w: could not parse reply", ErrParse)
}
