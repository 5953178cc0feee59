package ui

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"heartdash/domain/patient"
	"heartdash/internal/dashboard"
	"heartdash/internal/errors"
	"heartdash/ui/middleware"
)

// handleIndex renders the whole dashboard. A source failure aborts the page;
// section failures are shown inside their sections.
func (s *Server) handleIndex(c *gin.Context) {
	view, err := s.render(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "dashboard.html", Page{View: view})
}

// handleView returns the rendered view as JSON, without chart images
func (s *Server) handleView(c *gin.Context) {
	view, err := s.render(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleClusters returns the clustering summary for the current table
func (s *Server) handleClusters(c *gin.Context) {
	table, err := s.loadTable(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	summary, err := s.renderer.Clusters(table)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id": middleware.GetRequestID(c),
		"rows":       table.Len(),
		"clusters":   summary,
	})
}

// handleLayout returns the panel definitions
func (s *Server) handleLayout(c *gin.Context) {
	c.JSON(http.StatusOK, s.renderer.Layout())
}

// handleChart serves a single chart as SVG
func (s *Server) handleChart(c *gin.Context) {
	table, err := s.loadTable(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	chart, err := s.renderer.Chart(table, c.Param("section"), c.Param("key"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", chart.SVG)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": s.source.Describe(),
	})
}

func (s *Server) render(c *gin.Context) (*dashboard.View, error) {
	table, err := s.loadTable(c)
	if err != nil {
		return nil, err
	}

	sel := dashboard.SelectionsFromQuery(s.renderer.Layout(), c.Request.URL.Query())
	view, err := s.renderer.Render(c.Request.Context(), table, sel)
	if err != nil {
		return nil, err
	}
	view.RenderID = middleware.GetRequestID(c)
	view.Source = s.source.Describe()
	return view, nil
}

func (s *Server) loadTable(c *gin.Context) (*patient.Table, error) {
	start := time.Now()
	table, err := s.source.Load(c.Request.Context())
	if err != nil {
		log.Printf("[Dashboard] %s: failed to load %s: %v", middleware.GetRequestID(c), s.source.Describe(), err)
		return nil, err
	}
	log.Printf("[Dashboard] %s: loaded %d rows from %s in %.2fms",
		middleware.GetRequestID(c), table.Len(), s.source.Describe(), float64(time.Since(start).Nanoseconds())/1e6)
	return table, nil
}

// statusFor maps error codes to HTTP statuses
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error":      err.Error(),
		"code":       errors.GetCode(err),
		"request_id": middleware.GetRequestID(c),
	})
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	s.renderTemplate(c, status, "error.html", ErrorPage{
		Title:     s.renderer.Layout().Title,
		Status:    status,
		Code:      errors.GetCode(err),
		Message:   err.Error(),
		RequestID: middleware.GetRequestID(c).String(),
	})
	c.Abort()
}
