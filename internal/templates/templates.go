package templates

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"sync"
)

//go:embed *.html
var files embed.FS

var (
	pages = template.Must(template.ParseFS(files, "*.html"))

	mu     sync.RWMutex
	commit = "dev"
)

// SetCommit records the build commit shown in page footers.
func SetCommit(c string) {
	if c == "" {
		return
	}
	mu.Lock()
	commit = c
	mu.Unlock()
}

// Commit returns the build commit.
func Commit() string {
	mu.RLock()
	defer mu.RUnlock()
	return commit
}

// HomeData fills the landing page.
type HomeData struct {
	InvalidCode bool
	Archive     bool
	Started     int64
	Completed   int64
	Active      int64
	Rooms       int
	Commit      string
}

// GameData fills the game page.
type GameData struct {
	Code       string
	Color      string
	PlayerName string
	Commit     string
}

// WriteHomeHTML serves the home page template
func WriteHomeHTML(w http.ResponseWriter, data HomeData) {
	data.Commit = Commit()
	render(w, "home.html", data)
}

// WriteGameHTML serves the game page for one seat of a room
func WriteGameHTML(w http.ResponseWriter, data GameData) {
	data.Commit = Commit()
	render(w, "game.html", data)
}

func render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
