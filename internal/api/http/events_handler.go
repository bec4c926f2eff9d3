package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/proctored-quiz/internal/integrity"
	"github.com/mind-engage/proctored-quiz/internal/session"
)

const eventFullscreenError = "fullscreenerror"

// POST /session/events
//
//	{ "type": "fullscreenchange", "fullscreen": false }
//	{ "type": "visibilitychange", "hidden": true }
//	{ "type": "keydown", "key": "Escape" }
//	{ "type": "fullscreenerror", "error": "permission denied" }
func PlatformEventHandler(sess *session.Session, platform *integrity.RemotePlatform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type       string `json:"type"`
			Fullscreen bool   `json:"fullscreen"`
			Hidden     bool   `json:"hidden"`
			Key        string `json:"key"`
			Error      string `json:"error"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		delivered := false
		switch integrity.SignalKind(req.Type) {
		case integrity.SignalFullscreenChange, integrity.SignalVisibilityChange, integrity.SignalKeyDown:
			delivered = platform.Dispatch(integrity.Signal{
				Kind:       integrity.SignalKind(req.Type),
				Fullscreen: req.Fullscreen,
				Hidden:     req.Hidden,
				Key:        req.Key,
			})
		case eventFullscreenError:
			sess.ReportFullscreenError(req.Error)
			delivered = true
		default:
			http.Error(w, "unknown event type", http.StatusBadRequest)
			return
		}

		respondJSON(w, http.StatusOK, struct {
			Delivered bool                   `json:"delivered"`
			Prompt    session.Prompt         `json:"prompt"`
			Integrity session.IntegrityState `json:"integrity"`
		}{delivered, sess.Prompt(), sess.IntegrityState()})
	}
}
