package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/marben/buddhabrot/internal/wire"
)

// client talks to a buddhabrot server.
type client struct {
	base string // http://host:port
	http *http.Client
}

func newClient(addr string) *client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &client{base: strings.TrimSuffix(addr, "/"), http: http.DefaultClient}
}

func (c *client) status(ctx context.Context) (wire.Snapshot, error) {
	return c.call(ctx, http.MethodGet, "/status", nil)
}

// control posts one of the wire.Action* orders.
func (c *client) control(ctx context.Context, action string) (wire.Snapshot, error) {
	return c.call(ctx, http.MethodPost, "/control/"+url.PathEscape(action), nil)
}

func (c *client) call(ctx context.Context, method, path string, body io.Reader) (wire.Snapshot, error) {
	var s wire.Snapshot
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return s, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return s, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e wire.Error
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return s, fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return s, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, e.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return s, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// saveImage downloads the current density image into filename.
func (c *client) saveImage(ctx context.Context, filename string, scale float64) error {
	path := "/image.png"
	if scale != 1 {
		path += fmt.Sprintf("?scale=%g", scale)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// watch reads the snapshot stream and hands every snapshot to fn until
// ctx is done or the server closes the stream.
func (c *client) watch(ctx context.Context, fn func(wire.Snapshot)) error {
	u := "ws" + strings.TrimPrefix(c.base, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("websocket.Dial %s: %w", u, err)
	}
	defer conn.CloseNow()

	for {
		var s wire.Snapshot
		if err := wsjson.Read(ctx, conn, &s); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) != -1 {
				return nil
			}
			return fmt.Errorf("wsjson.Read: %w", err)
		}
		fn(s)
	}
}
