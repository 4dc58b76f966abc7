package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/density"
	"github.com/marben/buddhabrot/generator"
	"github.com/marben/buddhabrot/internal/wire"
)

// webServer creates the http server. Handlers, websocket streams
// included, end when ctx is done.
func webServer(ctx context.Context, addr string, h *engineHost, interval time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newMux(h, interval),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func newMux(h *engineHost, interval time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", statusHandler(h))
	mux.HandleFunc("POST /control/{action}", controlHandler(h))
	mux.HandleFunc("POST /parameters", parametersHandler(h))
	mux.HandleFunc("POST /runtime", runtimeHandler(h))
	mux.HandleFunc("POST /new", newHandler(h))
	mux.HandleFunc("GET /image.png", imageHandler(h))
	mux.HandleFunc("GET /ws", websocketHandler(h, interval))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func statusHandler(h *engineHost) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.snapshot())
	}
}

var controls = map[string]func(*generator.Engine){
	wire.ActionInitiate: (*generator.Engine).Initiate,
	wire.ActionResume:   (*generator.Engine).Resume,
	wire.ActionPause:    (*generator.Engine).Pause,
	wire.ActionFinish:   (*generator.Engine).FinishBatch,
	wire.ActionStop:     (*generator.Engine).Stop,
}

// controlHandler applies an order. Orders that make no sense in the
// current status are ignored by the engine, the reply shows the outcome.
func controlHandler(h *engineHost) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.PathValue("action")
		fn, ok := controls[action]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", action))
			return
		}
		s := h.control(fn)
		log.Printf("%s: %s", action, s.Status)
		writeJSON(w, http.StatusOK, s)
	}
}

// parametersHandler decodes the body over the current parameters, so
// fields left out keep their values.
func parametersHandler(h *engineHost) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := h.current().Parameters()
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode parameters: %w", err))
			return
		}
		s, err := h.whileStopped(func(e *generator.Engine) error { return e.SetParameters(p) })
		replyChange(w, s, err)
	}
}

func runtimeHandler(h *engineHost) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rp := h.current().RuntimeParameters()
		if err := json.NewDecoder(r.Body).Decode(&rp); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode runtime parameters: %w", err))
			return
		}
		s, err := h.whileStopped(func(e *generator.Engine) error { return e.SetRuntimeParameters(rp) })
		replyChange(w, s, err)
	}
}

func newHandler(h *engineHost) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := wire.FromProperties(h.current().Properties())
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode properties: %w", err))
			return
		}
		props, err := p.Build()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s, err := h.rebuild(props)
		replyChange(w, s, err)
	}
}

func replyChange(w http.ResponseWriter, s wire.Snapshot, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s)
	case errors.Is(err, errNotStopped):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, buddhabrot.ErrInvalidParameters),
		errors.Is(err, buddhabrot.ErrInvalidRuntime),
		errors.Is(err, buddhabrot.ErrInvalidProperties):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// imageHandler encodes the current density image, resized by the
// optional scale query parameter.
func imageHandler(h *engineHost) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scale := 1.0
		if q := r.URL.Query().Get("scale"); q != "" {
			f, err := strconv.ParseFloat(q, 64)
			if err != nil || !(f > 0 && f <= 4) {
				writeError(w, http.StatusBadRequest, fmt.Errorf("scale %q: want a number in (0, 4]", q))
				return
			}
			scale = f
		}

		img := density.Scale(h.current().Image(), scale)
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			log.Printf("png.Encode: %v", err)
		}
	}
}

// websocketHandler streams a snapshot every interval until the client
// goes away.
func websocketHandler(h *engineHost, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()

		h.incViewers()
		defer h.decViewers()

		ctx := c.CloseRead(r.Context())
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			if err := wsjson.Write(ctx, c, h.snapshot()); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case <-t.C:
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json.Encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, wire.Error{Error: err.Error()})
}
