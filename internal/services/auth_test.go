package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/internal/store/memstore"
	"github.com/studynotion/apiserver/types"
)

func signupInput(email, code string) services.SignupInput {
	return services.SignupInput{
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		AccountType:     types.AccountStudent,
		Code:            code,
	}
}

func TestRequestCodeRejectsRegisteredEmail(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	notifier := &recordingNotifier{}
	auth := newAuthService(db, notifier, otpConfig())
	seedUser(t, db, "a@x.com", types.AccountStudent)

	_, err := auth.RequestCode(ctx, "a@x.com")
	require.ErrorIs(t, err, services.ErrAlreadyRegistered)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	_, err = db.Repos().Codes.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, notifier.messages())
}

func TestRequestCodeMailsCode(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	notifier := &recordingNotifier{}
	auth := newAuthService(db, notifier, otpConfig(), services.WithCodeSource(codeSequence("482913")))

	res, err := auth.RequestCode(ctx, " A@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.Email)
	assert.Empty(t, res.Code)

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a@x.com", msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "482913")

	slot, err := db.Repos().Codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "482913", slot.Code)
	assert.WithinDuration(t, slot.CreatedAt.Add(5*time.Minute), slot.ExpiresAt, time.Second)
}

func TestRequestCodeMailFailureIsUpstream(t *testing.T) {
	db := memstore.New()
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	auth := newAuthService(db, notifier, otpConfig())

	_, err := auth.RequestCode(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))

	_, err = db.Repos().Codes.Get(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRequestCodeMailFailureKeepsDeliveredCode(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	notifier := &recordingNotifier{}
	auth := newAuthService(db, notifier, otpConfig(), services.WithCodeSource(codeSequence("482913", "111111")))

	_, err := auth.RequestCode(ctx, "a@x.com")
	require.NoError(t, err)

	notifier.err = errors.New("smtp down")
	_, err = auth.RequestCode(ctx, "a@x.com")
	require.Error(t, err)

	slot, err := db.Repos().Codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "482913", slot.Code)

	_, err = auth.Signup(ctx, signupInput("a@x.com", "482913"))
	assert.NoError(t, err)
}

func TestSignupExampleScenario(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	auth := newAuthService(db, &recordingNotifier{}, otpConfig(), services.WithCodeSource(codeSequence("482913")))

	_, err := auth.RequestCode(ctx, "a@x.com")
	require.NoError(t, err)

	user, err := auth.Signup(ctx, signupInput("a@x.com", "482913"))
	require.NoError(t, err)
	assert.True(t, user.Approved)
	assert.Equal(t, types.AccountStudent, user.AccountType)
	assert.NotZero(t, user.ProfileID)
	assert.Contains(t, user.Image, "api.dicebear.com")

	_, err = db.Repos().Codes.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound, "code slot is consumed")

	_, err = auth.Signup(ctx, signupInput("a@x.com", "482913"))
	require.ErrorIs(t, err, services.ErrAlreadyRegistered)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestSignupInstructorStartsUnapproved(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	auth := newAuthService(db, &recordingNotifier{}, otpConfig(), services.WithCodeSource(codeSequence("111111")))

	_, err := auth.RequestCode(ctx, "t@x.com")
	require.NoError(t, err)

	in := signupInput("t@x.com", "111111")
	in.AccountType = types.AccountInstructor
	user, err := auth.Signup(ctx, in)
	require.NoError(t, err)
	assert.False(t, user.Approved)
}

func TestSignupOnlyLatestCodeIsValid(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	auth := newAuthService(db, &recordingNotifier{}, otpConfig(), services.WithCodeSource(codeSequence("111111", "222222")))

	_, err := auth.RequestCode(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = auth.RequestCode(ctx, "a@x.com")
	require.NoError(t, err)

	_, err = auth.Signup(ctx, signupInput("a@x.com", "111111"))
	require.ErrorIs(t, err, services.ErrInvalidCode)

	_, err = auth.Signup(ctx, signupInput("a@x.com", "222222"))
	require.NoError(t, err)
}

func TestSignupRejectsExpiredCode(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	auth := newAuthService(db, &recordingNotifier{}, otpConfig(),
		services.WithCodeSource(codeSequence("333333")), services.WithClock(clock))

	_, err := auth.RequestCode(ctx, "a@x.com")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	_, err = auth.Signup(ctx, signupInput("a@x.com", "333333"))
	require.ErrorIs(t, err, services.ErrInvalidCode)
}

func TestSignupPasswordMismatchWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	auth := newAuthService(db, &recordingNotifier{}, otpConfig(), services.WithCodeSource(codeSequence("482913")))

	_, err := auth.RequestCode(ctx, "a@x.com")
	require.NoError(t, err)

	in := signupInput("a@x.com", "482913")
	in.ConfirmPassword = "different"
	_, err = auth.Signup(ctx, in)
	require.ErrorIs(t, err, services.ErrPasswordMismatch)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = db.Repos().Users.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = db.Repos().Codes.Get(ctx, "a@x.com")
	assert.NoError(t, err, "code slot is untouched")
}

func TestSignupValidation(t *testing.T) {
	auth := newAuthService(memstore.New(), &recordingNotifier{}, otpConfig())

	missing := signupInput("a@x.com", "")
	_, err := auth.Signup(context.Background(), missing)
	assert.ErrorIs(t, err, services.ErrMissingFields)

	badRole := signupInput("a@x.com", "123456")
	badRole.AccountType = "Guest"
	_, err = auth.Signup(context.Background(), badRole)
	assert.ErrorIs(t, err, services.ErrInvalidRole)
}

func TestBypassCode(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		db := memstore.New()
		auth := newAuthService(db, &recordingNotifier{}, otpConfig(), services.WithCodeSource(codeSequence("482913")))
		_, err := auth.RequestCode(ctx, "a@x.com")
		require.NoError(t, err)

		_, err = auth.Signup(ctx, signupInput("a@x.com", "123456"))
		require.ErrorIs(t, err, services.ErrInvalidCode)
	})

	t.Run("enabled", func(t *testing.T) {
		db := memstore.New()
		notifier := &recordingNotifier{}
		cfg := otpConfig()
		cfg.BypassEnabled = true
		auth := newAuthService(db, notifier, cfg)

		res, err := auth.RequestCode(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "123456", res.Code)
		assert.Empty(t, notifier.messages())

		_, err = auth.Signup(ctx, signupInput("a@x.com", "123456"))
		require.NoError(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	auth := newAuthService(db, &recordingNotifier{}, otpConfig())
	user := seedUser(t, db, "a@x.com", types.AccountInstructor)

	_, err := auth.Login(ctx, "nobody@x.com", "secret123")
	require.ErrorIs(t, err, services.ErrNotRegistered)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	session, err := auth.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, services.ErrBadCredentials)
	assert.Empty(t, session.Token)

	session, err = auth.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.NotNil(t, session.User.AdditionalDetails)

	claims, err := auth.Tokens().Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, types.AccountInstructor, claims.AccountType)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	notifier := &recordingNotifier{}
	auth := newAuthService(db, notifier, otpConfig())
	user := seedUser(t, db, "a@x.com", types.AccountStudent)

	err := auth.ChangePassword(ctx, user.ID, "wrong", "newpass1", "newpass1")
	require.ErrorIs(t, err, services.ErrBadCredentials)

	err = auth.ChangePassword(ctx, user.ID, "secret123", "newpass1", "newpass2")
	require.ErrorIs(t, err, services.ErrPasswordMismatch)

	err = auth.ChangePassword(ctx, user.ID, "secret123", "newpass1", "newpass1")
	require.NoError(t, err)
	require.Len(t, notifier.messages(), 1)

	_, err = auth.Login(ctx, "a@x.com", "newpass1")
	require.NoError(t, err)
}

func TestChangePasswordMailFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	auth := newAuthService(db, &recordingNotifier{err: errors.New("smtp down")}, otpConfig())
	user := seedUser(t, db, "a@x.com", types.AccountStudent)

	require.NoError(t, auth.ChangePassword(ctx, user.ID, "secret123", "newpass1", "newpass1"))

	_, err := auth.Login(ctx, "a@x.com", "newpass1")
	require.NoError(t, err)
}
