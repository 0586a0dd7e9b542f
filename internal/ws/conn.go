package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicebank/gateway/internal/session"
)

type frameResult struct {
	frame session.Frame
	err   error
}

// wsConn adapts a gorilla connection to session.ClientConn. A dedicated
// goroutine owns ReadMessage so that Read can time out without poisoning
// the underlying connection's read state.
type wsConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	frames chan frameResult
	done   chan struct{}

	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{
		conn:   conn,
		frames: make(chan frameResult),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *wsConn) readLoop() {
	for {
		msgType, data, err := c.conn.ReadMessage()
		res := frameResult{err: err}
		if err == nil {
			kind := session.FrameText
			if msgType == websocket.BinaryMessage {
				kind = session.FrameBinary
			}
			res.frame = session.Frame{Kind: kind, Data: data}
		}
		select {
		case c.frames <- res:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *wsConn) Read(timeout time.Duration) (session.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-c.frames:
		return res.frame, res.err
	case <-timer.C:
		return session.Frame{}, session.ErrReadTimeout
	}
}

func (c *wsConn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) WriteBinary(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
