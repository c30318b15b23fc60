package chatclient

import (
	"context"
	"duochat/backend/internal/models"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Stream is one realtime connection to the server.
type Stream interface {
	ReadEvent() (models.Event, error)
	Close() error
}

// Dialer opens a Stream for the given user.
type Dialer interface {
	Dial(ctx context.Context, userID string) (Stream, error)
}

// WSDialer connects to the server's /ws endpoint with a session token.
type WSDialer struct {
	URL   string
	Token string
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func (d *WSDialer) Dial(ctx context.Context, userID string) (Stream, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	if d.Token != "" {
		header.Set("Authorization", "Bearer "+d.Token)
	}

	conn, resp, err := dialer.DialContext(ctx, d.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s as %s: %w (status %d)", d.URL, userID, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s as %s: %w", d.URL, userID, err)
	}
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn      *websocket.Conn
	closeOnce sync.Once
}

func (s *wsStream) ReadEvent() (models.Event, error) {
	var ev models.Event
	err := s.conn.ReadJSON(&ev)
	return ev, err
}

// Close sends a close frame and then drops the socket.
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
