package web

import (
	"embed"
	"errors"
	"html/template"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ganttfmt/internal/config"
	"ganttfmt/internal/gantt"
	"ganttfmt/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// XLSXContentType is the media type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	cfg       config.ServerConfig
	processor *gantt.Processor
	palette   gantt.Palette
	engine    *gin.Engine
}

type uploadForm struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// NewServer wires the upload page, the conversion endpoint and the health
// check onto a gin engine.
func NewServer(cfg config.ServerConfig, processor *gantt.Processor, palette gantt.Palette) (*Server, error) {
	switch cfg.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	r.SetHTMLTemplate(tmpl)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	}

	s := &Server{
		cfg:       cfg,
		processor: processor,
		palette:   palette,
		engine:    r,
	}

	r.GET("/", s.index)
	r.POST("/convert", s.convert)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"time":   time.Now(),
			})
		})
	}

	return s, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Gantt-Sheets"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler exposes the engine for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until the server fails.
func (s *Server) Run() error {
	logger.Info("Server running", "address", s.cfg.Address)
	return s.engine.Run(s.cfg.Address)
}

func (s *Server) index(c *gin.Context) {
	s.renderPage(c, http.StatusOK, "")
}

func (s *Server) renderPage(c *gin.Context, status int, message string) {
	c.HTML(status, "index.html", gin.H{
		"Error":       message,
		"Palette":     s.palette,
		"MaxUploadMB": s.cfg.MaxUploadMB,
	})
}

func (s *Server) convert(c *gin.Context) {
	limit := s.cfg.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+(1<<20))

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderPage(c, http.StatusRequestEntityTooLarge, "The file is larger than "+strconv.FormatInt(s.cfg.MaxUploadMB, 10)+" MB.")
			return
		}
		s.renderPage(c, http.StatusBadRequest, "Please choose an .xlsx file to upload.")
		return
	}

	if !strings.EqualFold(filepath.Ext(form.File.Filename), ".xlsx") {
		s.renderPage(c, http.StatusBadRequest, "Only .xlsx files are supported.")
		return
	}
	if form.File.Size > limit {
		s.renderPage(c, http.StatusRequestEntityTooLarge, "The file is larger than "+strconv.FormatInt(s.cfg.MaxUploadMB, 10)+" MB.")
		return
	}

	file, err := form.File.Open()
	if err != nil {
		logger.Error("Failed to open upload", "file", form.File.Filename, "error", err)
		s.renderPage(c, http.StatusBadRequest, "The upload could not be read.")
		return
	}
	defer file.Close()

	logger.Info("Processing upload", "file", form.File.Filename, "size", form.File.Size)

	result, err := s.processor.Process(file)
	if errors.Is(err, gantt.ErrNoTimeline) {
		s.renderPage(c, http.StatusUnprocessableEntity, "No sheet contained recognizable planned/actual start and end dates.")
		return
	}
	if err != nil {
		logger.Error("Failed to process upload", "file", form.File.Filename, "error", err)
		s.renderPage(c, http.StatusBadRequest, "The file could not be read as an Excel workbook.")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.cfg.OutputFileName}))
	c.Header("X-Gantt-Sheets", strconv.Itoa(result.Annotated()))
	c.Data(http.StatusOK, XLSXContentType, result.Data)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
