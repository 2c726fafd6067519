package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"teashop/middleware"
	"teashop/models"
	"teashop/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

type userStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByToken(ctx context.Context, field, token string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u *models.User) error
	Set(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type accountMailer interface {
	SendVerificationEmail(toEmail, name, token string) error
	SendPasswordResetEmail(toEmail, name, token string) error
}

// UserController handles authentication and user accounts
type UserController struct {
	Users        userStore
	EmailService accountMailer
	Sessions     *middleware.Sessions
}

// NewUserController creates a new UserController
func NewUserController(users userStore, emailService accountMailer, sessions *middleware.Sessions) *UserController {
	return &UserController{Users: users, EmailService: emailService, Sessions: sessions}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,aumobile"`
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type profileRequest struct {
	Name    string          `json:"name" validate:"required,max=80"`
	Phone   string          `json:"phone" validate:"omitempty,aumobile"`
	Address *models.Address `json:"address" validate:"omitempty"`
}

type adminUserRequest struct {
	Name       string `json:"name" validate:"required,max=80"`
	IsAdmin    bool   `json:"is_admin"`
	IsVerified bool   `json:"is_verified"`
	Membership string `json:"membership" validate:"required,oneof=standard member vip"`
}

type message struct {
	Message string `json:"message"`
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	_, err := uc.Users.FindByEmail(ctx, req.Email)
	if err == nil {
		return utils.Conflict("an account with this email already exists")
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             req.Email,
		Password:          string(hashed),
		Phone:             utils.NormalizeMobile(req.Phone),
		Membership:        models.MembershipStandard,
		VerificationToken: uuid.NewString(),
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		return err
	}

	if err := uc.EmailService.SendVerificationEmail(user.Email, user.Name, user.VerificationToken); err != nil {
		utils.Log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("verification email failed")
	}
	return writeJSON(w, http.StatusCreated, message{"Registered. Please check your email to verify your account."})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) error {
	token := r.URL.Query().Get("token")
	if token == "" {
		return utils.BadRequest("verification token missing")
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user, err := uc.Users.FindByToken(ctx, "verification_token", token)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.BadRequest("invalid or already used verification link")
	}
	if err != nil {
		return err
	}
	if err := uc.Users.Set(ctx, user.ID, bson.M{"is_verified": true, "verification_token": ""}); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, message{"Email verified. You can now log in."})
}

// ResendVerification always answers the same way so it cannot be used to enumerate accounts.
func (uc *UserController) ResendVerification(w http.ResponseWriter, r *http.Request) error {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, req.Email)
	if err == nil && !user.IsVerified {
		token := uuid.NewString()
		if err := uc.Users.Set(ctx, user.ID, bson.M{"verification_token": token}); err != nil {
			return err
		}
		if err := uc.EmailService.SendVerificationEmail(user.Email, user.Name, token); err != nil {
			utils.Log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("verification email failed")
		}
	} else if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return err
	}
	return writeJSON(w, http.StatusOK, message{"If the account exists and is unverified, a new link has been sent."})
}

// Login checks credentials and sets the session cookie
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) error {
	var creds credentials
	if err := decode(r, &creds); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, creds.Email)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.Unauthorized("invalid email or password")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		return utils.Unauthorized("invalid email or password")
	}
	if !user.IsVerified {
		return &utils.AppError{Status: http.StatusForbidden, Code: "unverified", Message: "please verify your email before logging in"}
	}

	if err := uc.Sessions.SetCookie(w, utils.ClaimsFor(user)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) error {
	uc.Sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// RequestPasswordReset emails a one-hour reset link.
func (uc *UserController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) error {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		token := uuid.NewString()
		expires := time.Now().UTC().Add(resetTokenTTL)
		if err := uc.Users.Set(ctx, user.ID, bson.M{"reset_token": token, "reset_expires_at": expires}); err != nil {
			return err
		}
		if err := uc.EmailService.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
			utils.Log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("reset email failed")
		}
	case !errors.Is(err, utils.ErrNotFound):
		return err
	}
	return writeJSON(w, http.StatusOK, message{"If the account exists, a reset link has been sent."})
}

func (uc *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	var req resetRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user, err := uc.Users.FindByToken(ctx, "reset_token", req.Token)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.BadRequest("invalid or expired reset link")
	}
	if err != nil {
		return err
	}
	if user.ResetExpiresAt == nil || time.Now().After(*user.ResetExpiresAt) {
		return utils.BadRequest("invalid or expired reset link")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uc.Users.Set(ctx, user.ID, bson.M{"password": string(hashed), "reset_token": "", "reset_expires_at": nil}); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, message{"Password updated. You can now log in."})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := uc.currentUser(r)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

// UpdateProfile lets a user change their own name, phone and address.
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := uc.currentUser(r)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user.Name = strings.TrimSpace(req.Name)
	user.Phone = utils.NormalizeMobile(req.Phone)
	user.Address = req.Address
	if err := uc.Users.Set(ctx, user.ID, bson.M{"name": user.Name, "phone": user.Phone, "address": user.Address}); err != nil {
		return err
	}
	if err := uc.Sessions.SetCookie(w, utils.ClaimsFor(user)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

func (uc *UserController) currentUser(r *http.Request) (*models.User, error) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return nil, utils.NotFound("not found")
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, utils.NotFound("not found")
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()
	return uc.Users.FindByID(ctx, id)
}

func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	users, err := uc.Users.List(ctx)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, users)
}

func (uc *UserController) GetUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	user, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

// UpdateUser lets an admin change role, tier and verification.
func (uc *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req adminUserRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	err = uc.Users.Set(ctx, id, bson.M{
		"name":        strings.TrimSpace(req.Name),
		"is_admin":    req.IsAdmin,
		"is_verified": req.IsVerified,
		"membership":  req.Membership,
	})
	if err != nil {
		return err
	}
	user, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

func (uc *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok && claims.ID == id.Hex() {
		return utils.BadRequest("you cannot delete your own account")
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	if err := uc.Users.Delete(ctx, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
