package server

import (
	_ "embed"
	"net/http"
)

//go:embed static/live.js
var liveScript []byte

//go:embed static/signup.css
var pageCSS string

func (s *Server) handleLiveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(liveScript)
}
