package handler

import (
	"net/http"

	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	stateCookie    = "oauth_state"
	referralCookie = "oauth_ref"
)

type AuthHandler struct {
	svc    *service.AuthService
	google *service.GoogleOAuth
	secure bool
}

func NewAuthHandler(svc *service.AuthService, google *service.GoogleOAuth, secureCookies bool) *AuthHandler {
	return &AuthHandler{svc: svc, google: google, secure: secureCookies}
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name" binding:"required,max=100"`
	LastName     string `json:"last_name" binding:"max=100"`
	Phone        string `json:"phone" binding:"max=32"`
	Country      string `json:"country" binding:"max=64"`
	ReferralCode string `json:"referral_code"` // optional: referrer's code
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	OTP      string `json:"otp"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type OTPRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Country:      req.Country,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, res, "Registration successful")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// ForgotPassword answers the same way whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "If the email is registered, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Password has been reset")
}

// GoogleRedirect sends the browser to the Google consent screen. ?ref= is kept for new accounts.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	state := uuid.NewString()
	url, err := h.google.AuthURL(state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", h.secure, true)
	if ref := c.Query("ref"); ref != "" {
		c.SetCookie(referralCookie, ref, 600, "/", "", h.secure, true)
	}
	c.Redirect(http.StatusFound, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, _ := c.Cookie(stateCookie)
	if state == "" || state != c.Query("state") {
		badRequest(c, "Invalid OAuth state")
		return
	}
	code := c.Query("code")
	if code == "" {
		badRequest(c, "Missing code")
		return
	}
	profile, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	ref, _ := c.Cookie(referralCookie)
	c.SetCookie(stateCookie, "", -1, "/", "", h.secure, true)
	c.SetCookie(referralCookie, "", -1, "/", "", h.secure, true)
	h.finishGoogle(c, profile, ref)
}

// GoogleToken accepts an ID token from a mobile Google sign-in.
func (h *AuthHandler) GoogleToken(c *gin.Context) {
	var req struct {
		IDToken      string `json:"id_token" binding:"required"`
		ReferralCode string `json:"referral_code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.google.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, err)
		return
	}
	h.finishGoogle(c, profile, req.ReferralCode)
}

func (h *AuthHandler) finishGoogle(c *gin.Context, profile *service.GoogleProfile, ref string) {
	res, isNew, err := h.svc.LoginWithGoogle(c.Request.Context(), profile, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": res, "is_new": isNew})
}

func (h *AuthHandler) Setup2FA(c *gin.Context) {
	enrollment, err := h.svc.Setup2FA(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, enrollment)
}

func (h *AuthHandler) Enable2FA(c *gin.Context) {
	var req OTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Enable2FA(c.Request.Context(), middleware.GetUserID(c), req.Code); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Two-factor authentication enabled")
}

func (h *AuthHandler) Disable2FA(c *gin.Context) {
	var req OTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Disable2FA(c.Request.Context(), middleware.GetUserID(c), req.Code); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Two-factor authentication disabled")
}
