package server

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// scriptedRun builds the update sequence the demo backend replays for one
// task: the orchestrator seeds the turn and grows its step log while the
// planner, browsing and coder agents stream their own snapshots, ending in
// the orchestrator's terminal update. Every event is a full per-agent
// snapshot, the same shape the real backend emits.
func scriptedRun(task, liveURL string) []transcript.UpdateEvent {
	plan := "1. Research the topic online\n2. Write and run the code\n3. Summarize the result"
	code := "import requests\n\nresp = requests.get(url)\nprint(resp.status_code)"

	return []transcript.UpdateEvent{
		{AgentName: transcript.OrchestratorAgent, Instructions: task},
		{AgentName: transcript.OrchestratorAgent, Instructions: task,
			Steps: []string{"Agents initialized successfully"}},

		{AgentName: "Planner Agent", Instructions: "Break the task into an ordered plan",
			Steps: []string{"Planning task..."}},
		{AgentName: "Planner Agent", Instructions: "Break the task into an ordered plan",
			Steps: []string{"Planning task..."}, Output: plan, StatusCode: 200},
		{AgentName: transcript.OrchestratorAgent, Instructions: task,
			Steps: []string{
				"Agents initialized successfully",
				"Completed step with Planner Agent",
			}},

		{AgentName: transcript.WebSurferAgent, Instructions: "Research the topic online",
			Steps:   []string{"Plan: open the docs and find the endpoint", "Current: searching the docs"},
			LiveURL: liveURL},
		{AgentName: transcript.WebSurferAgent, Instructions: "Research the topic online",
			Steps: []string{
				"Plan: open the docs and find the endpoint",
				"Current: searching the docs",
				"Typed query into search box",
				"Current: reading the endpoint reference",
			},
			LiveURL: liveURL},
		{AgentName: transcript.WebSurferAgent, Instructions: "Research the topic online",
			Steps: []string{
				"Plan: open the docs and find the endpoint",
				"Current: reading the endpoint reference",
				"Current: extracting the example request",
			},
			Output: "The endpoint is GET /v1/items; auth via bearer token.", StatusCode: 200,
			LiveURL: liveURL},
		{AgentName: transcript.OrchestratorAgent, Instructions: task,
			Steps: []string{
				"Agents initialized successfully",
				"Completed step with Planner Agent",
				"Completed step with Web Surfer Agent",
			}},

		{AgentName: "Coder Agent", Instructions: "Write and run the request code",
			Steps: []string{"Drafting the script"}},
		{AgentName: "Coder Agent", Instructions: "Write and run the request code",
			Steps:  []string{"Drafting the script", "Execution failed: missing dependency"},
			Output: "ModuleNotFoundError: No module named 'requests'", StatusCode: 500},
		{AgentName: transcript.OrchestratorAgent, Instructions: task,
			Steps: []string{
				"Agents initialized successfully",
				"Completed step with Planner Agent",
				"Completed step with Web Surfer Agent",
				"Retrying Coder Agent execution (1/3)",
			}},
		{AgentName: "Coder Agent", Instructions: "Write and run the request code",
			Steps:  []string{"Drafting the script", "Installed dependencies", "Ran the script"},
			Output: code, StatusCode: 200},

		{AgentName: transcript.OrchestratorAgent, Instructions: task,
			Steps: []string{
				"Agents initialized successfully",
				"Completed step with Planner Agent",
				"Completed step with Web Surfer Agent",
				"Retrying Coder Agent execution (1/3)",
				"Completed step with Coder Agent",
			},
			Output:     "The task is done: the endpoint was located, the request code written and verified.",
			StatusCode: 200},
	}
}

// runScript publishes the scripted events one by one with the configured
// pacing, stopping early when the context is cancelled or a publish fails.
func runScript(ctx context.Context, step time.Duration, events []transcript.UpdateEvent, publish func(transcript.UpdateEvent) error) {
	for i, ev := range events {
		if i > 0 {
			select {
			case <-time.After(step):
			case <-ctx.Done():
				return
			}
		}
		if err := publish(ev); err != nil {
			log.Warn().Str("component", "script").Err(err).Str("agent", ev.AgentName).Msg("publish failed, aborting run")
			return
		}
	}
}
