package server

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/export"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

const layoutMain = "layouts/main"

// updatesData feeds the public "Latest Updates" fragment.
type updatesData struct {
	Loading       bool
	Error         string
	Notifications []model.Notification
}

func newEngine(loc *time.Location) *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("datetime", func(t *time.Time) string {
		return export.FormatStamp(t, loc)
	})
	engine.AddFunc("sentAt", func(t *time.Time) string {
		if t == nil {
			return "Just now"
		}
		return export.FormatStamp(t, loc)
	})
	engine.AddFunc("longDate", func(t *time.Time) string {
		if t == nil {
			return "Sending..."
		}
		return t.In(loc).Format("January 2, 2006")
	})
	return engine
}

// renderFragment renders a partial without the layout, for event streams.
func (s *Server) renderFragment(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.engine.Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
