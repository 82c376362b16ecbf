package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/pkg/dateutil"
	"go.uber.org/zap"
)

// TimeSnapshot is a ResolvedDay plus wall-clock fields
type TimeSnapshot struct {
	Timestamp   string `json:"timestamp"`
	Time        string `json:"time"`
	Timezone    string `json:"timezone"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	Second      int    `json:"second"`
	Microsecond int    `json:"microsecond"`
	calendar.ResolvedDay
}

func (s *Server) snapshot(at time.Time) TimeSnapshot {
	at = at.In(s.location)
	return TimeSnapshot{
		Timestamp:   at.Format("2006-01-02T15:04:05.000000"),
		Time:        at.Format("15:04:05"),
		Timezone:    s.location.String(),
		Hour:        at.Hour(),
		Minute:      at.Minute(),
		Second:      at.Second(),
		Microsecond: at.Nanosecond() / int(time.Microsecond),
		ResolvedDay: s.resolver.Resolve(at),
	}
}

func (s *Server) handleTime(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot(s.now()))
}

func (s *Server) handleTimeForDate(c *gin.Context) {
	date, ok := s.parseDateParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.snapshot(date))
}

func (s *Server) handleCheck(c *gin.Context) {
	date, ok := s.parseDateParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.resolver.Resolve(date))
}

func (s *Server) handleYears(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"years": s.store.AvailableYears()})
}

func (s *Server) handleYearHolidays(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 || year > 9999 {
		abortWithError(c, http.StatusBadRequest, "invalid year: "+c.Param("year"))
		return
	}

	holidays := s.resolver.YearHolidays(year)
	c.JSON(http.StatusOK, gin.H{
		"year":     year,
		"total":    len(holidays),
		"holidays": holidays,
	})
}

func (s *Server) handleNextWorkday(c *gin.Context) {
	s.handleNext(c, s.resolver.NextWorkday, "no workday found within a year")
}

func (s *Server) handleNextHoliday(c *gin.Context) {
	s.handleNext(c, s.resolver.NextHoliday, "no holiday found within a year")
}

func (s *Server) handleNext(c *gin.Context, next func(time.Time) (calendar.ResolvedDay, bool), notFound string) {
	date, ok := s.parseDateParam(c)
	if !ok {
		return
	}

	day, found := next(date)
	if !found {
		abortWithError(c, http.StatusNotFound, notFound)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (s *Server) handleReload(c *gin.Context) {
	s.store.InvalidateCache()
	s.logger.Info("Holiday data reload requested", zap.String("client_ip", ClientIP(c.Request)))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) parseDateParam(c *gin.Context) (time.Time, bool) {
	date, err := dateutil.ParseISODate(c.Param("date"), s.location)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return date, true
}
