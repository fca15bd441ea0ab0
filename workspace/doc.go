// Package workspace materializes submissions into private scratch
// directories.
//
// Each call to Materialize creates a fresh directory named after a new UUID
// and writes every submitted file into it. Release removes the directory
// recursively; callers defer it on every path that obtained a Workspace.
//
// Usage:
//
//	ws, err := manager.Materialize(ctx, submission)
//	if err != nil {
//	    return err
//	}
//	defer manager.Release(ws)
package workspace
