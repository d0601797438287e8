package handler

import (
	"errors"   // errors matches repository and auth sentinels
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/lankanlens/rental-marketplace/internal/auth"       // login policy and redirects
	"github.com/lankanlens/rental-marketplace/internal/config"     // app configuration
	"github.com/lankanlens/rental-marketplace/internal/middleware" // session cookies and request identity
	"github.com/lankanlens/rental-marketplace/internal/model"      // users and identities
	"github.com/lankanlens/rental-marketplace/internal/repository" // DB repositories
	"github.com/lankanlens/rental-marketplace/internal/utils"      // hashing and validation helpers
)

// AuthHandler bundles dependencies for the login, registration and
// session endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Auth     *auth.Authenticator
	Sessions *middleware.Sessions
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, a *auth.Authenticator, s *middleware.Sessions) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Auth: a, Sessions: s}
}

// ----- DTOs -----

type registerForm struct {
	FullName        string `form:"full_name" validate:"required,min=3,max=255"`
	Email           string `form:"email" validate:"required,email,max=255"`
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
	Role            string `form:"role" validate:"oneof=customer vendor"`
	ShopName        string `form:"shop_name" validate:"required_if=Role vendor,max=255"`
	Phone           string `form:"phone" validate:"max=20"`
	Terms           string `form:"terms" validate:"required"`
}

var registerMessages = map[string]string{
	"FullName.required":       "Full name is required.",
	"FullName.min":            "Full name must be between 3 and 255 characters.",
	"FullName.max":            "Full name must be between 3 and 255 characters.",
	"Email.required":          "Email is required.",
	"Email.email":             "Please enter a valid email address.",
	"Email.max":               "Please enter a valid email address.",
	"Password.required":       "Password is required.",
	"Password.min":            "Password must be at least 8 characters long.",
	"ConfirmPassword.eqfield": "Passwords do not match.",
	"Role.oneof":              "Invalid role selected.",
	"ShopName.required_if":    "Shop name is required for vendor registration.",
	"ShopName.max":            "Shop name must not exceed 255 characters.",
	"Phone.max":               "Phone number must not exceed 20 characters.",
	"Terms.required":          "You must accept the Terms & Conditions.",
}

// LoginPage is the data of login.html.
type LoginPage struct {
	Email  string
	Return string
	Errors []string
}

// RegisterPage is the data of register.html.
type RegisterPage struct {
	Form   registerForm
	Return string
	Errors []string
}

// ShowLogin renders the login form.  Signed-in users go straight home.
func (h *AuthHandler) ShowLogin(c echo.Context) error {
	if id := middleware.CurrentIdentity(c); id.Authenticated() {
		return redirect(c, landingFor(id, ""))
	}
	return render(c, http.StatusOK, "login.html", "Login", LoginPage{Return: auth.SafeReturn(c.QueryParam("return"))})
}

// Login checks the credentials, opens the session and redirects by role.
func (h *AuthHandler) Login(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	page := LoginPage{Email: email, Return: auth.SafeReturn(c.QueryParam("return"))}
	if page.Return == "" {
		page.Return = auth.SafeReturn(c.FormValue("return"))
	}

	if email == "" {
		page.Errors = append(page.Errors, "Email is required.")
	}
	if password == "" {
		page.Errors = append(page.Errors, "Password is required.")
	}
	if len(page.Errors) > 0 {
		return render(c, http.StatusOK, "login.html", "Login", page)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Login(ctx, repository.NormalizeEmail(email), password)
	if err != nil {
		msg := auth.Message(err)
		var locked *auth.LockedError
		if !errors.As(err, &locked) && !errors.Is(err, auth.ErrInvalidCredentials) &&
			!errors.Is(err, auth.ErrSuspended) && !errors.Is(err, auth.ErrRejected) {
			zap.L().Error("login failed", zap.Error(err))
			msg = "An error occurred during login. Please try again later."
		}
		page.Errors = []string{msg}
		return render(c, http.StatusOK, "login.html", "Login", page)
	}

	id := model.IdentityOf(u)
	if err := h.Sessions.Issue(c, id); err != nil {
		return serverError("issue session", err)
	}
	middleware.SetIdentity(c, id)

	if c.FormValue("remember_me") != "" {
		raw, err := utils.NewRememberToken()
		if err == nil {
			err = h.Users.SetRememberToken(ctx, u.ID, utils.HashRememberToken(raw))
		}
		if err != nil {
			zap.L().Warn("remember-me not stored", zap.Error(err), zap.Uint64("user_id", u.ID))
		} else {
			h.Sessions.Remember(c, raw)
		}
	}

	zap.L().Info("user logged in", zap.Uint64("user_id", u.ID), zap.String("role", string(u.Role)))
	return redirect(c, landingFor(id, page.Return))
}

// landingFor picks the page after login or registration.  Customers go
// back to ret when it is a safe local path.
func landingFor(id model.Identity, ret string) string {
	if id.Role == model.RoleVendor && id.Status == model.StatusPending {
		return auth.PendingPath
	}
	if id.Role == model.RoleCustomer && ret != "" {
		return ret
	}
	return auth.HomeFor(id.Role)
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c echo.Context) error {
	if id := middleware.CurrentIdentity(c); id.Authenticated() {
		return redirect(c, landingFor(id, ""))
	}
	page := RegisterPage{Form: registerForm{Role: string(model.RoleCustomer)}, Return: auth.SafeReturn(c.QueryParam("return"))}
	if r := c.QueryParam("role"); r == string(model.RoleVendor) {
		page.Form.Role = r
	}
	return render(c, http.StatusOK, "register.html", "Create an account", page)
}

// Register creates a customer (active) or vendor (pending) account and
// signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var f registerForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = repository.NormalizeEmail(f.Email)
	f.ShopName = strings.TrimSpace(f.ShopName)
	f.Phone = strings.TrimSpace(f.Phone)
	if f.Role == "" {
		f.Role = string(model.RoleCustomer)
	}
	page := RegisterPage{Form: f, Return: auth.SafeReturn(c.QueryParam("return"))}
	if page.Return == "" {
		page.Return = auth.SafeReturn(c.FormValue("return"))
	}
	page.Form.Password, page.Form.ConfirmPassword = "", ""

	if err := utils.ValidateStruct(f); err != nil {
		page.Errors = utils.Messages(err, registerMessages)
		return render(c, http.StatusOK, "register.html", "Create an account", page)
	}

	hash, err := utils.HashPassword(f.Password, h.Cfg.BcryptCost)
	if err != nil {
		return serverError("hash password", err)
	}
	role := model.Role(f.Role)
	status := model.StatusActive
	shop := ""
	if role == model.RoleVendor {
		status = model.StatusPending
		shop = f.ShopName
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	uid, err := h.Users.Create(ctx, repository.NewUser{
		FullName:     f.FullName,
		Email:        f.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		ShopName:     shop,
		Phone:        f.Phone,
	})
	if errors.Is(err, repository.ErrEmailExists) {
		page.Errors = []string{"This email is already registered. Please login or use a different email."}
		return render(c, http.StatusOK, "register.html", "Create an account", page)
	}
	if err != nil {
		zap.L().Error("registration failed", zap.Error(err))
		page.Errors = []string{"An error occurred during registration. Please try again later."}
		return render(c, http.StatusOK, "register.html", "Create an account", page)
	}

	id := model.Identity{UserID: uid, Role: role, Status: status, Email: f.Email, FullName: f.FullName}
	if err := h.Sessions.Issue(c, id); err != nil {
		return serverError("issue session", err)
	}
	middleware.SetIdentity(c, id)
	zap.L().Info("user registered", zap.Uint64("user_id", uid), zap.String("role", f.Role))
	return redirect(c, landingFor(id, page.Return))
}

// Logout clears the stored remember-me token and both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	if id := middleware.CurrentIdentity(c); id.Authenticated() {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := h.Users.SetRememberToken(ctx, id.UserID, ""); err != nil {
			zap.L().Warn("remember-me not cleared", zap.Error(err), zap.Uint64("user_id", id.UserID))
		}
	}
	h.Sessions.Clear(c)
	return redirect(c, auth.LoginPath)
}

// CheckEmail answers the registration form's availability probe.  A
// database failure reports the address as available so registration
// itself makes the final call.
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var body struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"available": false, "message": "Invalid request"})
	}
	email := repository.NormalizeEmail(body.Email)
	if !utils.IsEmail(email) {
		return c.JSON(http.StatusOK, echo.Map{"available": false, "message": "Invalid email format"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	taken, err := h.Users.EmailExists(ctx, email)
	if err != nil {
		zap.L().Error("email check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error", "available": true})
	}
	if taken {
		return c.JSON(http.StatusOK, echo.Map{"available": false, "message": "Email already registered"})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": true, "message": "Email is available"})
}

type authStatus struct {
	Authenticated bool    `json:"authenticated"`
	UserID        *uint64 `json:"user_id"`
	Email         *string `json:"email"`
	Role          *string `json:"role"`
	Status        *string `json:"status"`
	FullName      *string `json:"full_name"`
}

// CheckAuth reports the caller's session; anonymous callers get nulls.
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	if !id.Authenticated() {
		return c.JSON(http.StatusOK, authStatus{})
	}
	role, status := string(id.Role), string(id.Status)
	return c.JSON(http.StatusOK, authStatus{
		Authenticated: true,
		UserID:        &id.UserID,
		Email:         &id.Email,
		Role:          &role,
		Status:        &status,
		FullName:      &id.FullName,
	})
}
