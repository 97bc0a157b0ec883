// Package stride provides the core data model for an LLM-driven
// task-execution agent.
//
// An agent run cycles through four phases: perceiving the current world
// state, deciding on a plan of tool invocations, validating that plan
// against deterministic safety rules, and executing the validated steps in
// a sandboxed dispatcher. The cycle repeats until the goal is satisfied or
// a stop condition fires.
//
// This root package defines the entities shared across those phases:
//
//   - [Session]: one user interaction, owned by the agent loop
//   - [Iteration]: one pass of the loop, sealed at loop exit
//   - [WorldState]: the structured perception snapshot
//   - [Plan] and [Step]: the ordered tool-invocation program
//   - [StepResult]: the sandboxed outcome of one invocation
//   - [MemoryRecord]: the persisted (query, plan, outcome) tuple
//   - [ToolDescriptor]: a discovered tool's name, schema, and provider
//
// The orchestrator lives in [github.com/spetersoncode/stride/agent]; the
// phase engines live in the perception, decision, validate, and executor
// packages.
package stride
