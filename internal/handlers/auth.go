package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"campus-chat/internal/models"
	"campus-chat/internal/services"
	"campus-chat/internal/session"
	"campus-chat/internal/telemetry"
)

// AuthHandler serves signup, login and the account lookups.
type AuthHandler struct {
	auditor
	accounts     AccountService
	sessions     session.Store
	secureCookie bool
	cookieMaxAge int
}

// NewAuthHandler builds an AuthHandler. cookieMaxAge is in seconds.
func NewAuthHandler(accounts AccountService, sessions session.Store, audit *telemetry.Emitter, secureCookie bool, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{
		auditor:      auditor{audit: audit},
		accounts:     accounts,
		sessions:     sessions,
		secureCookie: secureCookie,
		cookieMaxAge: cookieMaxAge,
	}
}

type signupRequest struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Regno           string `json:"regno"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	AccountType     string `json:"account_type"`
	ClubDescription string `json:"club_description"`
	ClubCategory    string `json:"club_category"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.accounts.Signup(c.Request.Context(), services.SignupInput{
		Name:            req.Name,
		Username:        req.Username,
		Regno:           req.Regno,
		Email:           req.Email,
		Password:        req.Password,
		AccountType:     req.AccountType,
		ClubDescription: req.ClubDescription,
		ClubCategory:    req.ClubCategory,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !user.IsApproved {
		h.emitAudit(c, "INFO", "Club account created")
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Club account created. Awaiting admin approval.",
			"user":    user,
		})
		return
	}

	if !h.startSession(c, user) {
		return
	}
	h.emitAudit(c, "INFO", "Account created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if services.KindOf(err) == services.KindAuthRequired {
			h.emitAudit(c, "WARN", "login failed")
		}
		h.writeError(c, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// Logout handles POST /auth/logout. It succeeds without a session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
			log.Error().Err(err).Msg("session delete failed")
		}
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Check handles GET /auth/check.
func (h *AuthHandler) Check(c *gin.Context) {
	token, err := c.Cookie(session.CookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "loggedIn": false})
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error().Err(err).Msg("session lookup failed")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "loggedIn": false})
		return
	}

	user, err := h.accounts.CurrentUser(c.Request.Context(), sess.UserID)
	if err != nil {
		if services.KindOf(err) == services.KindAuthRequired {
			c.JSON(http.StatusOK, gin.H{"success": true, "loggedIn": false})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "loggedIn": true, "user": user})
}

// GetUser handles GET /users/:id.
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "User ID required")
	if !ok {
		return
	}
	profile, err := h.accounts.GetProfile(c.Request.Context(), currentUserID(c), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// SearchUsers handles GET /users/search?q=.
func (h *AuthHandler) SearchUsers(c *gin.Context) {
	users, err := h.accounts.SearchUsers(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Query("q")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// PendingClubs handles GET /admin/clubs/pending.
func (h *AuthHandler) PendingClubs(c *gin.Context) {
	clubs, err := h.accounts.PendingClubs(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if clubs == nil {
		clubs = []models.PendingClub{}
	}
	c.JSON(http.StatusOK, gin.H{"clubs": clubs})
}

// ApproveClub handles POST /admin/clubs/:id/approve.
func (h *AuthHandler) ApproveClub(c *gin.Context) {
	clubID, ok := parseIDParam(c, "id", "Club ID required")
	if !ok {
		return
	}
	if err := h.accounts.ApproveClub(c.Request.Context(), currentUserID(c), clubID); err != nil {
		h.writeError(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Club approved")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Club approved"})
}

func (h *AuthHandler) startSession(c *gin.Context, user models.User) bool {
	sess, err := h.sessions.Create(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return false
	}
	c.Set("userID", user.ID)
	h.setCookie(c, sess.Token, h.cookieMaxAge)
	return true
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", h.secureCookie, true)
}
