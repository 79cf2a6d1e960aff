package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shoptrends/domain/controls"
	"shoptrends/internal/api"
	"shoptrends/internal/dashboard"
	"shoptrends/internal/errors"
	"shoptrends/internal/render"
	"shoptrends/internal/table"

	"github.com/gin-gonic/gin"
)

// maxEventBytes bounds a control event body
const maxEventBytes = 16 << 10

// controlView is one sidebar widget with its default value unpacked for the template
type controlView struct {
	controls.Control
	Lo, Hi   float64
	Selected map[string]bool
	Current  string
	On       bool
}

type tabView struct {
	Name  string
	Slots []dashboard.SlotInfo
}

func (s *Server) controlViews() []controlView {
	defaults := s.board.Catalog().Defaults()
	views := make([]controlView, 0, len(s.board.Catalog().Controls))
	for _, ctl := range s.board.Catalog().Controls {
		v := controlView{Control: ctl, Selected: map[string]bool{}}
		switch val := defaults.Value(ctl.ID).(type) {
		case controls.Range:
			v.Lo, v.Hi = val.Lo, val.Hi
		case []string:
			for _, item := range val {
				v.Selected[item] = true
			}
		case string:
			v.Current = val
		case bool:
			v.On = val
		}
		views = append(views, v)
	}
	return views
}

func tabViews() []tabView {
	tabs := make([]tabView, 0, len(dashboard.Tabs))
	for _, name := range dashboard.Tabs {
		t := tabView{Name: name}
		for _, slot := range dashboard.Layout {
			if slot.Tab == name {
				t.Slots = append(t.Slots, slot)
			}
		}
		tabs = append(tabs, t)
	}
	return tabs
}

// handleIndex renders the dashboard shell; outputs arrive through the API
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "index.html", gin.H{
		"Title":    "Shopping Trends Dashboard",
		"Controls": s.controlViews(),
		"Tabs":     tabViews(),
		"Rows":     s.board.Dataset().Len(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"rows":     s.board.Dataset().Len(),
		"sessions": s.sessions.Len(),
	})
}

// handleControls returns the bound control catalog and the slot layout
func (s *Server) handleControls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"controls": s.board.Catalog().Controls,
		"defaults": s.board.Catalog().Defaults(),
		"tabs":     dashboard.Tabs,
		"layout":   dashboard.Layout,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.sessions.Create()
	snap, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID.String(), "snapshot": snap})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.sessions.Delete(sessionOf(c).ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleOutputs(c *gin.Context) {
	snap, err := sessionOf(c).Snapshot(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// handleControlEvent applies one {"control", "value"} event and returns the outputs
// that changed. The same snapshot is pushed to the session's open event streams.
func (s *Server) handleControlEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes+1))
	if err != nil {
		s.abortWithError(c, errors.InvalidInput("failed to read control event"))
		return
	}
	if len(body) > maxEventBytes {
		s.abortWithError(c, errors.InvalidInput("control event too large"))
		return
	}

	sess := sessionOf(c)
	snap, err := sess.HandleEvent(c.Request.Context(), body)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.publish(sess, api.EventOutputs, snap)
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleReset(c *gin.Context) {
	sess := sessionOf(c)
	snap, err := sess.Reset(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.publish(sess, api.EventReset, snap)
	c.JSON(http.StatusOK, snap)
}

func (s *Server) publish(sess *dashboard.Session, eventType string, snap *dashboard.Snapshot) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(api.DashboardEvent{
		SessionID: sess.ID.String(),
		EventType: eventType,
		Tick:      snap.Tick,
		Data:      snap,
	})
}

func (s *Server) handleTable(c *gin.Context) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", table.DefaultPageSize)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	view, err := sessionOf(c).View(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	page, err := table.PageOf(view, offset, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleTableCSV(c *gin.Context) {
	view, err := sessionOf(c).View(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, view); err != nil {
		s.abortWithError(c, err)
		return
	}
	name := fmt.Sprintf("shopping_trends_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// handleChartPNG serves /charts/<slot>.png rendered server-side
func (s *Server) handleChartPNG(c *gin.Context) {
	file := c.Param("file")
	if !strings.HasSuffix(file, ".png") {
		s.abortWithError(c, errors.NotFound("chart image "+file))
		return
	}
	width, err := queryInt(c, "width", render.DefaultWidth)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	height, err := queryInt(c, "height", render.DefaultHeight)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if width < 100 || width > 4000 || height < 100 || height > 4000 {
		s.abortWithError(c, errors.InvalidInput("image size must be within 100..4000"))
		return
	}

	spec, err := sessionOf(c).Chart(c.Request.Context(), strings.TrimSuffix(file, ".png"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, spec, width, height); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleEvents(c *gin.Context) {
	if s.hub == nil {
		s.abortWithError(c, errors.NotFound("event stream"))
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stop := context.AfterFunc(s.draining, cancel)
	defer stop()
	c.Request = c.Request.WithContext(ctx)

	s.hub.Stream(c, sessionOf(c).ID.String())
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}
