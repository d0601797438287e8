package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

// UsersPage is the data of admin/users.html.
type UsersPage struct {
	Filter repository.UserFilter
	Counts repository.UserCounts
	Users  []model.User
	Pager  Pager
	Self   uint64
}

// UsersIndex renders GET /admin/users.php.
func (h *AdminHandler) UsersIndex(c echo.Context) error {
	f := repository.UserFilter{
		Role:   c.QueryParam("role"),
		Status: c.QueryParam("status"),
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page := UsersPage{Filter: f, Self: actorOf(c).UserID}
	var err error
	if page.Counts, err = h.Users.Counts(ctx); err != nil {
		return serverError("user counts", err)
	}
	pg := pageOf(c, 20)
	var total int64
	if page.Users, total, err = h.Users.List(ctx, f, pg); err != nil {
		return serverError("list users", err)
	}
	page.Pager = newPager(c, total, pg)
	return render(c, http.StatusOK, "admin/users.html", "Users", page)
}

var userDone = map[model.UserAction]string{
	model.UserSuspend:  "User has been suspended.",
	model.UserActivate: "User has been activated.",
	model.UserDelete:   "User has been deleted.",
}

// ModerateUser applies POST /admin/users.php.
func (h *AdminHandler) ModerateUser(c echo.Context) error {
	action, err := model.ParseUserAction(c.FormValue("action"))
	if err != nil {
		addFlash(c, flashError, "Invalid action.")
		return redirect(c, back(c))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err = h.Users.Moderate(ctx, actorOf(c), formID(c.FormValue("user_id")), action)
	flashOutcome(c, err, userDone[action], "moderate user")
	return redirect(c, back(c))
}
