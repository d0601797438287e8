package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/middleware"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

// dbTimeout bounds the database work of one request.
const dbTimeout = 5 * time.Second

// FlashSession is the name of the cookie session holding flash messages.
const FlashSession = "ll_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// View is the data handed to every page template.
type View struct {
	Title    string
	AppName  string
	Identity model.Identity
	Flashes  []Flash
	CSRF     string
	Path     string
	Data     any
}

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Kind    string
	Message string
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func actorOf(c echo.Context) model.Actor {
	return model.Actor{UserID: middleware.CurrentIdentity(c).UserID, IP: c.RealIP()}
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// formID reads a positive decimal id from a form or query value.
// Anything else, including signs, leading 0x and fractions, reads as 0.
func formID(raw string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// render builds the View for a page and executes it.
func render(c echo.Context, code int, name, title string, data any) error {
	csrf, _ := c.Get("csrf").(string)
	return c.Render(code, name, View{
		Title:    title,
		Identity: middleware.CurrentIdentity(c),
		Flashes:  takeFlashes(c),
		CSRF:     csrf,
		Path:     c.Request().URL.Path,
		Data:     data,
	})
}

// redirect answers a POST with a 303 so a reload does not resubmit it.
func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// addFlash queues msg for the next page.  Without a session store (unit
// tests) the message is dropped.
func addFlash(c echo.Context, kind, msg string) {
	sess, err := session.Get(FlashSession, c)
	if err != nil {
		return
	}
	sess.AddFlash(msg, kind)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Warn("flash save failed", zap.Error(err))
	}
}

func takeFlashes(c echo.Context) []Flash {
	sess, err := session.Get(FlashSession, c)
	if err != nil {
		return nil
	}
	var out []Flash
	for _, kind := range []string{flashSuccess, flashError} {
		for _, v := range sess.Flashes(kind) {
			if s, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: s})
			}
		}
	}
	if len(out) > 0 && !c.Response().Committed {
		_ = sess.Save(c.Request(), c.Response())
	}
	return out
}

// Pager is the pagination strip under a list.
type Pager struct {
	Page  int
	Pages int
	Total int64
	Prev  string
	Next  string
	Links []PageLink
}

// PageLink is one numbered page link.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// pageOf reads ?page= into a repository page of the given size.  The
// number is decimal and clamped to [1, repository.MaxPage].
func pageOf(c echo.Context, size int) repository.Page {
	n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("page")))
	switch {
	case n > repository.MaxPage:
		// also an out-of-range value, which Atoi saturates
		n = repository.MaxPage
	case err != nil || n < 1:
		n = 1
	}
	return repository.Page{Number: n, Size: size}
}

// newPager keeps the current query string and swaps the page number.
func newPager(c echo.Context, total int64, pg repository.Page) Pager {
	p := Pager{Page: pg.Number, Pages: repository.TotalPages(total, pg.Size), Total: total}
	link := func(n int) string {
		q := url.Values{}
		for k, vs := range c.QueryParams() {
			q[k] = append([]string(nil), vs...)
		}
		q.Set("page", strconv.Itoa(n))
		return c.Request().URL.Path + "?" + q.Encode()
	}
	if p.Pages <= 1 {
		return p
	}
	if p.Page > 1 {
		p.Prev = link(p.Page - 1)
	}
	if p.Page < p.Pages {
		p.Next = link(p.Page + 1)
	}
	lo, hi := p.Page-3, p.Page+3
	if lo < 1 {
		lo = 1
	}
	if hi > p.Pages {
		hi = p.Pages
	}
	for n := lo; n <= hi; n++ {
		p.Links = append(p.Links, PageLink{Number: n, URL: link(n), Current: n == p.Page})
	}
	return p
}

// userMessage extracts the text a repository error carries for the person
// who triggered it.  ok is false for unexpected errors.
func userMessage(err error) (msg string, ok bool) {
	var se *repository.StateError
	if errors.As(err, &se) {
		return se.Message, true
	}
	var ve *repository.ValidationError
	if errors.As(err, &ve) {
		return ve.Error(), true
	}
	return "", false
}

// flashOutcome queues success when err is nil, the error's own message
// when it has one, and a logged generic failure otherwise.
func flashOutcome(c echo.Context, err error, success, what string) {
	if err == nil {
		addFlash(c, flashSuccess, success)
		return
	}
	if msg, ok := userMessage(err); ok {
		addFlash(c, flashError, msg)
		return
	}
	zap.L().Error(what, zap.Error(err), zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
	addFlash(c, flashError, "An error occurred. Please try again later.")
}
