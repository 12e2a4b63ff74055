package vizserver

import (
	"log"
	"net/http"
	"time"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/gorilla/websocket"
)

const writeWait = time.Second

// frame is one websocket message: the snapshot lines after a tick.
type frame struct {
	Type  string   `json:"type"`
	Lines []string `json:"lines"`
}

// stream sends a frame after every tick. The subscription is taken
// before the upgrade so no tick is missed between handshake and loop; the
// current snapshot is sent first.
func (s *Service) stream(w http.ResponseWriter, r *http.Request) {
	snaps, cancel := s.runner.Subscribe()
	defer cancel()

	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer c.Close()

	// Reading is mandatory to notice the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var initial []string
	s.runner.Do(func(a *arena.Arena) { initial = a.Snapshot() })
	if err := writeFrame(c, initial); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case lines, ok := <-snaps:
			if !ok {
				return
			}
			if err := writeFrame(c, lines); err != nil {
				return
			}
		}
	}
}

func writeFrame(c *websocket.Conn, lines []string) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteJSON(frame{Type: "snapshot", Lines: lines})
}
