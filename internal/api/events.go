package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/imamik/galeractl/internal/provisioning"
)

const (
	subscriberBuffer = 256
	writeWait        = 10 * time.Second
)

// hub streams provisioning events to websocket clients. Each client gets its
// own Broadcaster subscription; a client that falls behind misses events.
type hub struct {
	events   *provisioning.Broadcaster
	upgrader websocket.Upgrader
	log      logr.Logger
}

func newHub(events *provisioning.Broadcaster, allowedOrigins []string, log logr.Logger) *hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &hub{
		events: events,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser clients
				}
				if allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return u.Host == r.Host
			},
		},
	}
}

// handleConnect upgrades the request and streams events until the client
// disconnects. ?cluster=<id> limits the stream to one cluster.
func (h *hub) handleConnect(w http.ResponseWriter, r *http.Request) {
	var clusterID int64
	if v := r.URL.Query().Get("cluster"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cluster")
			return
		}
		clusterID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.V(1).Info("websocket upgrade failed", "error", err.Error())
		return
	}

	events, cancel := h.events.Subscribe(subscriberBuffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		readPump(conn)
	}()

	defer func() {
		cancel()
		_ = conn.Close()
	}()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if clusterID != 0 && ev.ClusterID != clusterID {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and returns when the connection closes.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
