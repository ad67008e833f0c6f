package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bft-labs/fishdiary/pkg/moon"
)

const dateLayout = "2006-01-02"

type dayResponse struct {
	Date         string  `json:"date"`
	Phase        string  `json:"phase"`
	Emoji        string  `json:"emoji"`
	Illumination int     `json:"illumination"`
	Fraction     float64 `json:"fraction"`
	PhaseValue   float64 `json:"phase_value"`
}

func newDayResponse(d moon.Day) dayResponse {
	return dayResponse{
		Date:         d.Date.Format(dateLayout),
		Phase:        d.Name,
		Emoji:        d.Emoji,
		Illumination: d.Info.Percent(),
		Fraction:     d.Info.Fraction,
		PhaseValue:   d.Info.Phase,
	}
}

type monthQuery struct {
	Year  int    `form:"year" binding:"required,min=1,max=9999"`
	Month int    `form:"month" binding:"required,min=1,max=12"`
	TZ    string `form:"tz"`
}

// location resolves the tz query parameter, falling back to the zone of
// the server clock.
func (s *Server) location(c *gin.Context, tz string) (*time.Location, bool) {
	if tz == "" {
		return s.opts.Now().Location(), true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		badRequest(c, "unknown time zone "+tz)
		return nil, false
	}
	return loc, true
}

func (s *Server) moonDay(c *gin.Context) {
	loc, ok := s.location(c, c.Query("tz"))
	if !ok {
		return
	}
	day := s.opts.Now().In(loc)
	if raw := c.Query("date"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = t
	}
	c.JSON(http.StatusOK, newDayResponse(moon.ForDay(day)))
}

func (s *Server) moonMonth(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	loc, ok := s.location(c, q.TZ)
	if !ok {
		return
	}

	days := moon.Month(q.Year, time.Month(q.Month), loc)
	out := make([]dayResponse, len(days))
	for i, d := range days {
		out[i] = newDayResponse(d)
	}
	c.JSON(http.StatusOK, gin.H{"year": q.Year, "month": q.Month, "days": out})
}
