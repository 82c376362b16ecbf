package server

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/username/holiday-api/internal/calendar"
	"go.uber.org/zap"
)

//go:embed static/index.html
var indexHTML []byte

// Server exposes the request-reflection and holiday endpoints
type Server struct {
	store    *calendar.Store
	resolver *calendar.Resolver
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a new Server. Dates without a zone are interpreted in loc.
func New(store *calendar.Store, resolver *calendar.Resolver, loc *time.Location, logger *zap.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}

	return &Server{
		store:    store,
		resolver: resolver,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Handler builds the HTTP routes
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(s.logger),
		corsPolicy(),
	)

	router.GET("/", s.handleIndex)
	router.GET("/healthz", handleHealth)

	// request reflection
	router.GET("/info", s.handleInfo)
	router.GET("/ip", s.handleIP)
	router.GET("/headers", s.handleHeaders)
	router.GET("/user-agent", s.handleUserAgent)
	router.POST("/echo", s.handleEcho)

	// calendar
	router.GET("/time", s.handleTime)
	router.GET("/time/:date", s.handleTimeForDate)

	holiday := router.Group("/holiday")
	holiday.GET("/years", s.handleYears)
	holiday.GET("/check/:date", s.handleCheck)
	holiday.GET("/next-workday/:date", s.handleNextWorkday)
	holiday.GET("/next-holiday/:date", s.handleNextHoliday)
	holiday.GET("/:year", s.handleYearHolidays)
	holiday.POST("/reload", s.handleReload)

	return router
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func handleHealth(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) timestamp() string {
	return s.now().In(s.location).Format("2006-01-02T15:04:05.000000")
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
