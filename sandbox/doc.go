// Package sandbox runs submitted projects as local guest processes.
//
// The Engine picks the entry file (the first file whose extension has a
// registered Runner), materializes the submission into a private workspace,
// runs the entry file under the Runner's time and output limits, and removes
// the workspace on every exit path.
//
// Two Runner kinds exist. The ScriptRunner enforces a hard wall-clock timeout
// and an output cap and returns stderr in place of stdout whenever stderr is
// non-empty. The InterpreterRunner collects stdout and stderr as line streams
// and appends stderr lines, prefixed, after the stdout lines.
//
// This is not a security boundary: guest processes run as the server user
// with only a scratch directory, a timeout and a process-group kill.
//
// Usage:
//
//	engine, err := sandbox.NewEngineFromConfig(logger, cfg, workspaces)
//	result, err := engine.Execute(ctx, project.Submission{
//	    project.NewSourceFile("main.js", "console.log('hi')"),
//	})
package sandbox
