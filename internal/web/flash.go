package web

import (
	"encoding/gob"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const flashSession = "flash"

type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// NewFlashStore returns a signed cookie store for flash messages.
func NewFlashStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// FlashMiddleware makes the flash store available to AddFlash and TakeFlashes.
func FlashMiddleware(secret string) echo.MiddlewareFunc {
	return session.Middleware(NewFlashStore(secret))
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c echo.Context, category, message string) {
	// A cookie that fails verification still yields a fresh session, which
	// replaces it on save.
	sess, err := session.Get(flashSession, c)
	if sess == nil {
		log.Printf("[Flash] session unavailable: %v", err)
		return
	}
	sess.AddFlash(Flash{Category: category, Message: message})
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Printf("[Flash] save: %v", err)
	}
}

// TakeFlashes returns and clears all queued messages.
func TakeFlashes(c echo.Context) []Flash {
	sess, _ := session.Get(flashSession, c)
	if sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Printf("[Flash] save: %v", err)
	}

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
