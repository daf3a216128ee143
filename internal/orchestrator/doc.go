// Package orchestrator coordinates a single conversational turn across
// multiple specialist agents: it analyzes the user's intent, plans agent
// tasks, executes them sequentially or in parallel with skill access,
// and synthesizes the partial results into one response.
package orchestrator
