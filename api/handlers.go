package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/analysis"
	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/project"
)

type filesRequest struct {
	Files project.Submission `json:"files"`
}

type analyzeRequest struct {
	Files    project.Submission `json:"files"`
	Language string             `json:"language"`
}

// respondError writes {error} with the status for err's kind. Internal
// failures are logged and answered with a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, apperrors.Wrap(err, apperrors.KindInvalidSubmission, "invalid request body"))
		return false
	}
	return true
}

// Execute runs the submitted project and returns its trimmed output.
func (s *Server) Execute(c *gin.Context) {
	var req filesRequest
	if !s.bind(c, &req) {
		return
	}

	result, err := s.executor.Execute(c.Request.Context(), req.Files)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"output": result.Output})
}

// Analyze reviews the first submitted file. The language comes from the
// file's extension, or from the request when the name has none.
func (s *Server) Analyze(c *gin.Context) {
	var req analyzeRequest
	if !s.bind(c, &req) {
		return
	}

	if len(req.Files) == 0 {
		s.respondError(c, apperrors.New(apperrors.KindInvalidSubmission, "no file to analyze"))
		return
	}

	report, err := s.analyzer.AnalyzeFile(req.Files[0], req.Language)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": analysis.Render(report),
		"report":   report,
	})
}

// SaveProject stores the submitted files and returns the new project id.
func (s *Server) SaveProject(c *gin.Context) {
	var req filesRequest
	if !s.bind(c, &req) {
		return
	}

	id, err := s.store.Save(c.Request.Context(), req.Files)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// GetProject returns the files of a saved project.
func (s *Server) GetProject(c *gin.Context) {
	p, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": p.Files})
}

// Health reports liveness.
func (*Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
