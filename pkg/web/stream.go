package web

import (
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/xccelera/voicegate/internal/events"
	"github.com/xccelera/voicegate/internal/jobs"
)

const (
	// writeWait is how long to wait for a websocket write to complete.
	writeWait = 10 * time.Second

	// pingPeriod keeps idle streams alive while a job works.
	pingPeriod = 30 * time.Second
)

// handleJobStream pushes status events for one job over a websocket.
// The subscription starts before the snapshot is read, so no transition is
// lost in between; events published before the client connected are not
// replayed, the snapshot carries the current state instead. The stream
// closes when the job reaches a terminal status.
func (s *Server) handleJobStream(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")

	ch, cancel := s.cfg.Events.Subscribe(jobID)
	defer cancel()

	job, err := s.cfg.Jobs.Get(jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		c.WriteJSON(map[string]string{"error": "no such job"})
		return
	}
	if err != nil {
		c.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	// Current state first; missed events are not replayed.
	snapshot := events.Event{JobID: jobID, Status: job.Status, Time: job.UpdatedAt}
	c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.WriteJSON(snapshot); err != nil {
		return
	}
	if job.Status.Terminal() {
		return
	}

	// Events buffered between Subscribe and the snapshot read describe
	// states the snapshot already superseded. Track the last status sent
	// and drop anything that does not advance past it, so the client
	// never sees a regression.
	last := job.Status

	// Read pump: we expect nothing from the client, but reading is how
	// we notice it went away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				// Terminal event delivered or idle timeout fired.
				c.SetWriteDeadline(time.Now().Add(writeWait))
				c.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if !last.CanAdvance(ev.Status) {
				continue
			}
			last = ev.Status
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
