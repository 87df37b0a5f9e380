package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/store/memstore"
	"github.com/studynotion/apiserver/types"
)

const testSecret = "test-secret"

// fakeMedia keeps uploaded objects in memory.
type fakeMedia struct {
	mu         sync.Mutex
	seq        int
	objects    map[string]string
	uploads    int
	failDelete bool
	failUpload bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string]string)}
}

func (m *fakeMedia) Upload(ctx context.Context, file services.Upload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpload {
		return "", errors.New("media host unavailable")
	}
	body, err := io.ReadAll(file.Body)
	if err != nil {
		return "", err
	}
	m.seq++
	m.uploads++
	url := fmt.Sprintf("https://media.test/%d-%s", m.seq, file.Filename)
	m.objects[url] = string(body)
	return url, nil
}

func (m *fakeMedia) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !strings.HasPrefix(url, "https://media.test/") {
		return services.ErrForeignMedia
	}
	if m.failDelete {
		return errors.New("media host unavailable")
	}
	delete(m.objects, url)
	return nil
}

func (m *fakeMedia) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

func (m *fakeMedia) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *fakeMedia) setFailDelete(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDelete = fail
}

// recordingNotifier captures every notification it is asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []services.Notification
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, msg services.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) messages() []services.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]services.Notification(nil), n.sent...)
}

// codeSequence hands out the given codes in order.
func codeSequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return "", errors.New("no more codes")
		}
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
}

func otpConfig() config.OTPConfig {
	return config.OTPConfig{TTL: 5 * time.Minute, BypassCode: "123456"}
}

func newAuthService(db *memstore.DB, notifier services.Notifier, otp config.OTPConfig, opts ...services.AuthOption) *services.AuthService {
	opts = append([]services.AuthOption{services.WithPasswordCost(bcrypt.MinCost)}, opts...)
	tokens := services.NewTokenIssuer(testSecret, 24*time.Hour)
	return services.NewAuthService(db, notifier, tokens, otp, logger.Nop(), opts...)
}

func seedUser(t *testing.T, db *memstore.DB, email string, role types.AccountType) types.User {
	t.Helper()
	ctx := context.Background()
	repos := db.Repos()

	profile, err := repos.Profiles.Create(ctx, types.Profile{})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := repos.Users.Create(ctx, types.User{
		FirstName:    "Test",
		LastName:     strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: string(hash),
		AccountType:  role,
		Approved:     true,
		ProfileID:    profile.ID,
	})
	require.NoError(t, err)
	return user
}

func seedCategory(t *testing.T, db *memstore.DB, name string) types.Category {
	t.Helper()
	category, err := db.Repos().Categories.Create(context.Background(), types.Category{Name: name, Description: name + " courses"})
	require.NoError(t, err)
	return category
}

func upload(name, body string) *services.Upload {
	return &services.Upload{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func price(v float64) *float64 { return &v }

func newCourseInput(categoryID int) services.NewCourse {
	return services.NewCourse{
		Name:             "Go in Practice",
		Description:      "Build services in Go",
		WhatYouWillLearn: "Concurrency, testing, HTTP",
		Price:            price(499),
		CategoryID:       categoryID,
		Tags:             `["go","backend"]`,
		Instructions:     `["Install Go","Bring a laptop"]`,
	}
}

// courseFixture wires the course services over an in-memory store.
type courseFixture struct {
	db         *memstore.DB
	media      *fakeMedia
	courses    *services.CourseService
	content    *services.ContentService
	instructor types.User
	category   types.Category
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	db := memstore.New()
	media := newFakeMedia()
	courses := services.NewCourseService(db, media, logger.Nop())
	return &courseFixture{
		db:         db,
		media:      media,
		courses:    courses,
		content:    services.NewContentService(db, courses, media, logger.Nop()),
		instructor: seedUser(t, db, "instructor@x.com", types.AccountInstructor),
		category:   seedCategory(t, db, "Programming"),
	}
}

func (f *courseFixture) createCourse(t *testing.T) types.Course {
	t.Helper()
	course, err := f.courses.Create(context.Background(), f.instructor.ID, newCourseInput(f.category.ID), upload("thumb.png", "png"))
	require.NoError(t, err)
	return course
}

// addLecture creates a section holding one lecture of the given length.
func (f *courseFixture) addLecture(t *testing.T, courseID int, seconds int) types.SectionView {
	t.Helper()
	ctx := context.Background()
	view, err := f.content.CreateSection(ctx, f.instructor.ID, courseID, fmt.Sprintf("Part %d", seconds))
	require.NoError(t, err)
	sectionID := view.CourseContent[len(view.CourseContent)-1].ID

	section, err := f.content.CreateSubSection(ctx, f.instructor.ID, sectionID, services.NewSubSection{
		Title:        "Lecture",
		Description:  "Watch this",
		TimeDuration: seconds,
	}, upload("lecture.mp4", "video"))
	require.NoError(t, err)
	return section
}

// enrolledStudent registers a student and enrolls them in the course.
func (f *courseFixture) enrolledStudent(t *testing.T, email string, courseID int) types.User {
	t.Helper()
	student := seedUser(t, f.db, email, types.AccountStudent)
	_, err := f.courses.Enroll(context.Background(), student.ID, courseID)
	require.NoError(t, err)
	return student
}
