package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	authsvc "villabook/internal/app/services/auth"
	domainuser "villabook/internal/domain/user"
)

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

type lineLoginRequest struct {
	UserID            string `json:"userId"`
	DisplayName       string `json:"displayName"`
	PictureURL        string `json:"pictureUrl"`
	StatusMessage     string `json:"statusMessage"`
	IsFriend          *bool  `json:"isFriend"`
	FriendshipChanged *bool  `json:"friendshipChanged"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string    `json:"id"`
	LineID      string    `json:"lineId"`
	DisplayName string    `json:"displayName,omitempty"`
	PictureURL  string    `json:"pictureUrl,omitempty"`
	IsFriend    bool      `json:"isFriend"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// LineLogin upserts the guest identity from a LINE login profile and
// returns a signed session token.
func (h AuthHandler) LineLogin(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req lineLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	user, token, err := h.Service.LineLogin(c.Request.Context(), domainuser.LineProfile{
		UserID:            req.UserID,
		DisplayName:       req.DisplayName,
		PictureURL:        req.PictureURL,
		StatusMessage:     req.StatusMessage,
		IsFriend:          req.IsFriend,
		FriendshipChanged: req.FriendshipChanged,
	})
	if err != nil {
		if errors.Is(err, domainuser.ErrLineIDRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("line login failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user), "token": token})
}

func (h AuthHandler) AdminLogin(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	session, err := h.Service.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("admin login failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     session.Token,
		"username":  session.Username,
		"expiresAt": session.ExpiresAt,
	})
}

func (h AuthHandler) AdminLogout(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	p, ok := currentPrincipal(c)
	if !ok || p.Token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	if err := h.Service.AdminLogout(c.Request.Context(), p.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me echoes the resolved principal so the frontend can restore state.
func (h AuthHandler) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":      p.UserID,
		"lineId":      p.LineID,
		"displayName": p.DisplayName,
		"admin":       p.Admin,
	})
}

func toUserResponse(u *domainuser.User) userResponse {
	return userResponse{
		ID:          string(u.ID),
		LineID:      u.LineID,
		DisplayName: u.DisplayName,
		PictureURL:  u.PictureURL,
		IsFriend:    u.IsFriend,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

var _ AuthHTTP = AuthHandler{}
