package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/mail/templates"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

const avatarBaseURL = "https://api.dicebear.com/5.x/initials/svg?seed="

// SignupInput carries the fields of a signup request.
type SignupInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	AccountType     types.AccountType
	ContactNumber   string
	Code            string
}

// CodeRequest is the result of issuing a verification code. Code is only
// populated in bypass mode, where nothing is mailed.
type CodeRequest struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	Code      string    `json:"otp,omitempty"`
}

// Session is a logged-in user and the token identifying them.
type Session struct {
	User      types.UserView `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithClock replaces the time source used for code expiry.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithCodeSource replaces the random verification code generator.
func WithCodeSource(next func() (string, error)) AuthOption {
	return func(s *AuthService) { s.nextCode = next }
}

// WithPasswordCost sets the bcrypt cost for new password hashes.
func WithPasswordCost(cost int) AuthOption {
	return func(s *AuthService) { s.passwordCost = cost }
}

// AuthService handles signup verification, login and password changes.
type AuthService struct {
	store        Store
	notifier     Notifier
	tokens       *TokenIssuer
	otp          config.OTPConfig
	log          *logger.Logger
	now          func() time.Time
	nextCode     func() (string, error)
	passwordCost int
}

func NewAuthService(st Store, notifier Notifier, tokens *TokenIssuer, otp config.OTPConfig, log *logger.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		store:        st,
		notifier:     notifier,
		tokens:       tokens,
		otp:          otp,
		log:          log,
		now:          time.Now,
		nextCode:     generateCode,
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestCode issues a verification code for an unregistered email. Any
// previous code for the email is replaced.
func (s *AuthService) RequestCode(ctx context.Context, email string) (CodeRequest, error) {
	email = normalizeEmail(email)
	if email == "" {
		return CodeRequest{}, ErrMissingFields
	}

	repos := s.store.Repos()
	if err := s.ensureUnregistered(ctx, repos, email); err != nil {
		return CodeRequest{}, err
	}

	now := s.now()
	slot := types.OneTimeCode{
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otp.TTL),
	}

	if s.otp.BypassEnabled {
		slot.Code = s.otp.BypassCode
		if err := repos.Codes.Upsert(ctx, slot); err != nil {
			return CodeRequest{}, err
		}
		s.log.Warn("verification code bypass in use", "email", email)
		return CodeRequest{Email: email, ExpiresAt: slot.ExpiresAt, Code: slot.Code}, nil
	}

	code, err := s.nextCode()
	if err != nil {
		return CodeRequest{}, err
	}
	body, err := templates.Verification(code, nameFromEmail(email), s.otp.TTL.String())
	if err != nil {
		return CodeRequest{}, err
	}

	previous, err := repos.Codes.Get(ctx, email)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return CodeRequest{}, err
	}

	slot.Code = code
	if err := repos.Codes.Upsert(ctx, slot); err != nil {
		return CodeRequest{}, err
	}

	msg := Notification{To: email, Subject: templates.VerificationSubject, HTML: body}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.restoreCode(ctx, repos, email, previous, hadPrevious)
		return CodeRequest{}, apperr.UpstreamError("Could not send verification email", err)
	}

	return CodeRequest{Email: email, ExpiresAt: slot.ExpiresAt}, nil
}

// Signup creates the account once the verification code checks out. The
// caller logs in separately.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (types.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.Code = strings.TrimSpace(in.Code)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" ||
		in.ConfirmPassword == "" || in.AccountType == "" || in.Code == "" {
		return types.User{}, ErrMissingFields
	}
	if !in.AccountType.Valid() {
		return types.User{}, ErrInvalidRole
	}
	if in.Password != in.ConfirmPassword {
		return types.User{}, ErrPasswordMismatch
	}

	repos := s.store.Repos()
	if err := s.ensureUnregistered(ctx, repos, in.Email); err != nil {
		return types.User{}, err
	}
	if err := s.verifyCode(ctx, repos, in.Email, in.Code); err != nil {
		return types.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return types.User{}, err
	}

	var created types.User
	err = s.store.InTx(ctx, func(tx Repos) error {
		profile := types.Profile{}
		if in.ContactNumber != "" {
			contact := in.ContactNumber
			profile.ContactNumber = &contact
		}
		profile, err := tx.Profiles.Create(ctx, profile)
		if err != nil {
			return err
		}

		created, err = tx.Users.Create(ctx, types.User{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: string(hash),
			AccountType:  in.AccountType,
			Approved:     in.AccountType != types.AccountInstructor,
			ProfileID:    profile.ID,
			Courses:      []int{},
			Image:        avatarURL(in.FirstName, in.LastName),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Wrap(ErrAlreadyRegistered, err)
			}
			return err
		}

		if err := tx.Codes.Delete(ctx, in.Email); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return types.User{}, err
	}

	s.log.Info("user registered", "user_id", created.ID, "account_type", created.AccountType)
	return created, nil
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	repos := s.store.Repos()
	user, err := repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, apperr.Wrap(ErrNotRegistered, err)
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, apperr.Wrap(ErrBadCredentials, err)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}

	view, err := userView(ctx, repos, user)
	if err != nil {
		return Session{}, err
	}

	return Session{User: view, Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword replaces the user's password after checking the old one.
// The confirmation mail is best effort.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrMissingFields
	}

	repos := s.store.Repos()
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperr.Wrap(ErrBadCredentials, err)
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.passwordCost)
	if err != nil {
		return err
	}
	if err := repos.Users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return notFound(err, ErrUserNotFound)
	}

	body, err := templates.PasswordUpdated(user.Email, user.FirstName+" "+user.LastName)
	if err != nil {
		s.log.Error("render password update mail", "user_id", user.ID, "error", err)
		return nil
	}
	msg := Notification{To: user.Email, Subject: templates.PasswordUpdatedSubject, HTML: body}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.Error("send password update mail", "user_id", user.ID, "error", err)
	}
	return nil
}

// Tokens exposes the issuer so transport code can verify sessions.
func (s *AuthService) Tokens() *TokenIssuer {
	return s.tokens
}

func (s *AuthService) ensureUnregistered(ctx context.Context, repos Repos, email string) error {
	_, err := repos.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrAlreadyRegistered
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

// restoreCode puts back the slot that was in place before an undelivered
// code replaced it, so the code the user already holds keeps working.
func (s *AuthService) restoreCode(ctx context.Context, repos Repos, email string, previous types.OneTimeCode, hadPrevious bool) {
	var err error
	if hadPrevious {
		err = repos.Codes.Upsert(ctx, previous)
	} else {
		err = repos.Codes.Delete(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			err = nil
		}
	}
	if err != nil {
		s.log.Error("restore verification code", "email", email, "error", err)
	}
}

func (s *AuthService) verifyCode(ctx context.Context, repos Repos, email, code string) error {
	if s.otp.BypassEnabled && code == s.otp.BypassCode {
		return nil
	}

	slot, err := repos.Codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Wrap(ErrInvalidCode, err)
		}
		return err
	}
	if slot.Expired(s.now()) {
		return ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(slot.Code), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

func userView(ctx context.Context, repos Repos, user types.User) (types.UserView, error) {
	view := types.UserView{User: user}
	if user.ProfileID == 0 {
		return view, nil
	}
	profile, err := repos.Profiles.Get(ctx, user.ProfileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return view, nil
		}
		return types.UserView{}, err
	}
	view.AdditionalDetails = &profile
	return view, nil
}

// generateCode returns a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameFromEmail turns "jane.doe42@x.com" into "jane doe" for mail greetings.
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, part := range parts {
		parts[i] = strings.TrimFunc(part, unicode.IsDigit)
	}
	name := strings.TrimSpace(strings.Join(parts, " "))
	if name == "" {
		return local
	}
	return name
}

func avatarURL(firstName, lastName string) string {
	return avatarBaseURL + url.QueryEscape(firstName+" "+lastName)
}
