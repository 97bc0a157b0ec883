// Package agent drives the task-execution loop: perceive the world,
// decide a plan, validate it, execute its steps, merge the results, and
// repeat until the goal is met or a stop condition fires.
//
// # Basic Usage
//
// Build a tool registry, create an agent on an LLM client, and run a query:
//
//	registry := tool.NewRegistry(ctx, providers...)
//	a := agent.New(client, registry)
//
//	session, err := a.Run(ctx, "compute 2+3 and report",
//		agent.WithMaxIterations(10),
//	)
//	fmt.Println(session.Status, session.FinalAnswer)
//
// Run always returns a terminal session: the iteration history and last
// error explain success or failure even when err is non-nil.
//
// # Streaming Events
//
// Use RunStream to observe the loop as it executes:
//
//	import "github.com/spetersoncode/stride/event"
//
//	events := a.RunStream(ctx, query)
//	for e := range events {
//		switch e.Type {
//		case event.PlanProposed:
//			fmt.Printf("plan revision %d\n", e.Plan.Revision)
//		case event.StepResult:
//			fmt.Printf("step %d ok=%v\n", e.Result.StepIndex, e.Result.OK)
//		}
//	}
//
// # Termination Conditions
//
// The loop stops when any of these are met:
//
//   - The decision engine marks the plan complete (session succeeds)
//   - Perception reports the goal achieved (session succeeds)
//   - The iteration ceiling is reached (session fails)
//   - A phase exhausts its bounded retries (session fails)
//   - The plan stalls across consecutive decisions (session fails)
//   - The context is cancelled (session aborts)
package agent
