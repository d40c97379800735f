package hypr

import (
	"encoding/json"
	"fmt"
	"net"
)

// Ctl issues one-shot requests over the compositor's control socket.
type Ctl struct{}

func NewCtl() *Ctl {
	return &Ctl{}
}

// ActiveWindow is the control socket's description of the focused
// window; only the fields routing cares about are decoded.
type ActiveWindow struct {
	Address string `json:"address"`
	Pid     int    `json:"pid"`
	Class   string `json:"class"`
	Title   string `json:"title"`
}

func (c *Ctl) ActiveWindow() (ActiveWindow, error) {
	conn, err := c.makeRequest("activewindow", "j")
	if err != nil {
		return ActiveWindow{}, err
	}
	defer conn.Close()

	var win ActiveWindow
	if err := json.NewDecoder(conn).Decode(&win); err != nil {
		return ActiveWindow{}, fmt.Errorf("unmarshal active window: %w", err)
	}

	return win, nil
}

func (c *Ctl) makeRequest(request string, args string) (net.Conn, error) {
	conn, err := connect(ctlSocket)
	if err != nil {
		return nil, fmt.Errorf("connect control socket: %w", err)
	}

	if _, err := conn.Write([]byte(fmt.Sprintf("%s/%s", args, request))); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write to control socket: %w", err)
	}

	return conn, nil
}
