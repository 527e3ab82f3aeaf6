package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"home-panel/internal/auth/models"
	"home-panel/internal/auth/repository"
	"home-panel/internal/auth/service"
	"home-panel/internal/common/middleware"
	dashrepo "home-panel/internal/dashboard/repository"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
)

// Workspaces закрывает открытые панели пользователей. Close сбрасывает панель,
// чтобы следующее открытие перечитало раскладку из базы.
type Workspaces interface {
	Close(userID string)
}

// ============================================================
// Auth Handler
// ============================================================

type AuthHandler struct {
	repo         *repository.Repository
	sessions     service.SessionStore
	layouts      *dashrepo.LayoutRepository
	workspaces   Workspaces
	logger       *log.Logger
	sessionTTL   time.Duration
	secureCookie bool
}

type Option func(*AuthHandler)

func WithLogger(l *log.Logger) Option {
	return func(h *AuthHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(h *AuthHandler) {
		if ttl > 0 {
			h.sessionTTL = ttl
		}
	}
}

// WithSecureCookie выставляет флаг Secure у cookie сессии (production).
func WithSecureCookie(secure bool) Option {
	return func(h *AuthHandler) {
		h.secureCookie = secure
	}
}

func NewAuthHandler(repo *repository.Repository, sessions service.SessionStore, layouts *dashrepo.LayoutRepository, workspaces Workspaces, opts ...Option) *AuthHandler {
	h := &AuthHandler{
		repo:       repo,
		sessions:   sessions,
		layouts:    layouts,
		workspaces: workspaces,
		logger:     log.Default().WithPrefix("AUTH"),
		sessionTTL: service.DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register вешает маршруты на группу /api/auth.
func (h *AuthHandler) Register(r fiber.Router) {
	auth := middleware.RequireSession(h.sessions)

	r.Post("/register", h.SignUp)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	r.Get("/dashboard-config", auth, h.GetDashboardConfig)
	r.Post("/dashboard-config", auth, h.SaveDashboardConfig)

	r.Get("/user-settings", auth, h.ListSettings)
	r.Get("/user-settings/:key", auth, h.GetSetting)
	r.Post("/user-settings", auth, h.SaveSetting)
	r.Put("/user-settings/:key", auth, h.UpdateSetting)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

type userPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SignUp регистрирует пользователя и сразу открывает сессию.
func (h *AuthHandler) SignUp(c fiber.Ctx) error {
	var req registerRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "all fields are required"})
	}
	if len(req.Password) < service.MinPasswordLength {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": service.ErrPasswordTooShort.Error()})
	}

	ctx := c.Context()
	if _, err := h.repo.GetByUsername(ctx, req.Username); err == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "username already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return h.internal(c, "lookup username", err)
	}
	if _, err := h.repo.GetByEmail(ctx, req.Email); err == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "email already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return h.internal(c, "lookup email", err)
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		return h.internal(c, "hash password", err)
	}
	user, err := h.repo.CreateUser(ctx, req.Username, req.Email, hash)
	if errors.Is(err, repository.ErrDuplicate) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "user already exists"})
	}
	if err != nil {
		return h.internal(c, "create user", err)
	}

	token, err := h.startSession(c, user.ID)
	if err != nil {
		return h.internal(c, "issue session", err)
	}
	h.logger.Info("user registered", "user", user.ID, "username", user.Username)

	return c.Status(http.StatusCreated).JSON(authResponse{
		Message: "user created successfully",
		Token:   token,
		User:    mapUser(user),
	})
}

// Login выдает токен сессии по паре username/password.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "username and password are required"})
	}

	user, err := h.repo.GetByUsername(c.Context(), req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return h.internal(c, "lookup user", err)
	}
	if user == nil || !service.VerifyPassword(user.PasswordHash, req.Password) {
		h.logger.Warn("login rejected", "username", req.Username)
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := h.startSession(c, user.ID)
	if err != nil {
		return h.internal(c, "issue session", err)
	}
	h.logger.Info("user logged in", "user", user.ID)

	return c.JSON(authResponse{
		Message: "login successful",
		Token:   token,
		User:    mapUser(user),
	})
}

// Logout закрывает сессию и панель пользователя. Без сессии тоже отвечает 200.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	userID, token, ok := middleware.Authorize(c, h.sessions)
	if ok {
		if err := h.sessions.Revoke(c.Context(), token); err != nil {
			return h.internal(c, "revoke session", err)
		}
		h.workspaces.Close(userID)
		h.logger.Info("user logged out", "user", userID)
	}
	c.ClearCookie(middleware.SessionCookie)
	return c.JSON(fiber.Map{"message": "logout successful"})
}

// Me сообщает, есть ли действующая сессия.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	userID, _, ok := middleware.Authorize(c, h.sessions)
	if !ok {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	user, err := h.repo.GetByID(c.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	if err != nil {
		return h.internal(c, "load user", err)
	}
	return c.JSON(fiber.Map{"authenticated": true, "user": mapUser(user)})
}

func (h *AuthHandler) startSession(c fiber.Ctx, userID string) (string, error) {
	token, err := h.sessions.Issue(c.Context(), userID)
	if err != nil {
		return "", err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, nil
}

func (h *AuthHandler) internal(c fiber.Ctx, op string, err error) error {
	h.logger.Error(op, "path", c.Path(), "err", err)
	return fiber.NewError(http.StatusInternalServerError, "internal server error")
}

// decodeBody возвращает *fiber.Error, который отрисует общий ErrorHandler.
func decodeBody(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	return nil
}

func mapUser(u *models.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
