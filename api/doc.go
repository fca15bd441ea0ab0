// Package api serves the playground's HTTP interface with gin.
//
// Routes:
//
//	POST /api/execute        run a project, respond {output}
//	POST /api/analyze        analyze the first file, respond {feedback, report}
//	POST /api/projects/save  store a project, respond {id}
//	GET  /api/projects/:id   load a project, respond {files}
//	GET  /health             liveness
//
// Failures are answered with {error} and a status derived from the error
// kind: 400 for problems with the submitted code, 404 for unknown projects
// and 500 for everything else.
package api
