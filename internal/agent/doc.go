// Package agent runs the tool-using reasoning loop for augmented queries.
//
// # Protocol
//
// The loop follows the zero-shot ReAct format. The model is shown the
// available tools and asked to reply with either
//
//	Thought: ...
//	Action: <tool name>
//	Action Input: <input>
//
// or a line starting with "Final Answer:". Generation stops at
// "\nObservation:"; the loop runs the tool and appends its output as the
// observation before asking again.
//
// # Parsing
//
// A reply containing "Final Answer:" ends the loop even if it also names an
// action. A reply with neither is fed back as an "Invalid Format"
// observation. A reply naming an unknown tool is told which tools exist.
//
// # Limits
//
// Every backend call counts as one round. When MaxRounds is reached
// without a final answer, the loop answers from the last observation
// without calling the backend again and marks the result Truncated.
package agent
