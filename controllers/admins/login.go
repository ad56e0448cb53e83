package admins

import (
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/middleware"
	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

// AuthController handles dashboard sign-in and sign-out.
type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,nameok"`
	Password string `json:"password" validate:"required"`
}

// POST /v1/admin/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	username := strings.TrimSpace(req.Username)
	if locked, wait := middleware.IsAccountLocked(username); locked {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Account temporarily locked, try again later",
			Data:    map[string]interface{}{"retry_after_seconds": int(wait.Seconds())},
		})
		return
	}

	var admin models.Admin
	err := c.DB.WithContext(r.Context()).
		Where("username = ? AND is_active = ?", username, true).
		First(&admin).Error
	if err != nil || !admin.ValidatePassword(req.Password) {
		middleware.RecordFailedLogin(username)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}
	middleware.ResetFailedLogin(username)

	token, err := utils.GenerateAdminToken(admin.ID, admin.Username)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"token": token,
			"admin": admin,
		},
	})
}

// POST /v1/admin/logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenStr == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "No token provided",
		})
		return
	}

	claims, err := utils.ValidateAdminToken(tokenStr)
	if err != nil {
		// Already invalid; nothing to revoke.
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
		return
	}

	if jti, ok := claims["jti"].(string); ok && jti != "" {
		ttl := 6 * time.Hour
		if expRaw, ok := claims["exp"].(float64); ok {
			if remain := time.Until(time.Unix(int64(expRaw), 0)); remain > 0 {
				ttl = remain
			}
		}
		_ = utils.RevokeJTI(jti, ttl)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
