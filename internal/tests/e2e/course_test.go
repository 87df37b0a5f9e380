//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/db"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/server"
)

const (
	serverPort = 18080
	bypassCode = "424242"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	setTestEnv()

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestCourseLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	adminToken := signupAndLogin(t, baseURL, fmt.Sprintf("admin_%d@example.com", suffix), "Admin")
	instructorToken := signupAndLogin(t, baseURL, fmt.Sprintf("instructor_%d@example.com", suffix), "Instructor")
	studentToken := signupAndLogin(t, baseURL, fmt.Sprintf("student_%d@example.com", suffix), "Student")

	var category struct {
		ID int `json:"id"`
	}
	status := postJSON(t, baseURL+"/api/v1/course/createCategory", adminToken, map[string]any{
		"name":        fmt.Sprintf("Go %d", suffix),
		"description": "Systems programming",
	}, &category)
	if status != http.StatusOK || category.ID == 0 {
		t.Fatalf("create category status %d", status)
	}

	course, err := createCourse(t, baseURL, instructorToken, category.ID)
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if course.ID == 0 || course.Thumbnail == "" {
		t.Fatalf("unexpected course: %+v", course)
	}

	var section struct {
		CourseContent []struct {
			ID int `json:"id"`
		} `json:"courseContent"`
	}
	status = postJSON(t, baseURL+"/api/v1/course/addSection", instructorToken, map[string]any{
		"sectionName": "Basics",
		"courseId":    course.ID,
	}, &section)
	if status != http.StatusOK || len(section.CourseContent) != 1 {
		t.Fatalf("add section status %d", status)
	}

	status = postJSON(t, baseURL+"/api/v1/course/enrollCourse", studentToken, map[string]any{"courseId": course.ID}, nil)
	if status != http.StatusOK {
		t.Fatalf("enroll status %d", status)
	}

	var details struct {
		TotalDuration string `json:"totalDuration"`
	}
	status = postJSON(t, baseURL+"/api/v1/course/getCourseDetails", "", map[string]any{"courseId": course.ID}, &details)
	if status != http.StatusOK {
		t.Fatalf("course details status %d", status)
	}
	if details.TotalDuration != "0s" {
		t.Fatalf("unexpected total duration: %q", details.TotalDuration)
	}

	status = doJSON(t, http.MethodDelete, baseURL+"/api/v1/course/deleteCourse", instructorToken, map[string]any{"courseId": course.ID}, nil)
	if status != http.StatusOK {
		t.Fatalf("delete course status %d", status)
	}

	status = postJSON(t, baseURL+"/api/v1/course/getCourseDetails", "", map[string]any{"courseId": course.ID}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected deleted course to be missing, got %d", status)
	}

	if n := countRows(t, "SELECT COUNT(1) FROM sections WHERE course_id = $1", course.ID); n != 0 {
		t.Fatalf("expected sections to be deleted, found %d", n)
	}
	if n := countRows(t, "SELECT COUNT(1) FROM course_progress WHERE course_id = $1", course.ID); n != 0 {
		t.Fatalf("expected progress to be deleted, found %d", n)
	}
	if n := countRows(t, "SELECT COUNT(1) FROM user_courses WHERE course_id = $1", course.ID); n != 0 {
		t.Fatalf("expected enrollments to be deleted, found %d", n)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type courseResponse struct {
	ID        int    `json:"id"`
	Thumbnail string `json:"thumbnail"`
}

func signupAndLogin(t *testing.T, baseURL, email, accountType string) string {
	t.Helper()

	if status := postJSON(t, baseURL+"/api/v1/auth/sendOTP", "", map[string]any{"email": email}, nil); status != http.StatusOK {
		t.Fatalf("send otp status %d", status)
	}

	status := postJSON(t, baseURL+"/api/v1/auth/signup", "", map[string]any{
		"firstName":       "E2E",
		"lastName":        accountType,
		"email":           email,
		"password":        "testpass123!",
		"confirmPassword": "testpass123!",
		"accountType":     accountType,
		"otp":             bypassCode,
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("signup status %d", status)
	}

	var session struct {
		Token string `json:"token"`
	}
	status = postJSON(t, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "testpass123!",
	}, &session)
	if status != http.StatusOK || session.Token == "" {
		t.Fatalf("login status %d", status)
	}
	return session.Token
}

func createCourse(t *testing.T, baseURL, token string, categoryID int) (courseResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("courseName", "E2E Course")
	_ = writer.WriteField("courseDescription", "Created by the end to end suite.")
	_ = writer.WriteField("whatYouWillLearn", "Everything")
	_ = writer.WriteField("price", "199")
	_ = writer.WriteField("category", fmt.Sprint(categoryID))
	_ = writer.WriteField("tag", `["e2e","go"]`)
	_ = writer.WriteField("instructions", `["run docker"]`)

	part, err := writer.CreateFormFile("thumbnailImage", "thumb.png")
	if err != nil {
		return courseResponse{}, err
	}
	if _, err := part.Write([]byte("\x89PNG fake thumbnail")); err != nil {
		return courseResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return courseResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/course/createCourse", &body)
	if err != nil {
		return courseResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed courseResponse
	status, err := send(req, &parsed)
	if err != nil {
		return courseResponse{}, err
	}
	if status != http.StatusOK {
		return courseResponse{}, fmt.Errorf("create course status %d", status)
	}
	return parsed, nil
}

func postJSON(t *testing.T, url, token string, payload, out any) int {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, payload, out)
}

func doJSON(t *testing.T, method, url, token string, payload, out any) int {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	status, err := send(req, out)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return status
}

// send performs req and decodes the envelope data into out on success.
func send(req *http.Request, out any) (int, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode envelope: %w: %s", err, strings.TrimSpace(string(raw)))
	}
	if resp.StatusCode == http.StatusOK && out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func countRows(t *testing.T, query string, args ...any) int {
	t.Helper()

	conn, err := sql.Open("postgres", db.DSN(config.LoadConfig().Database))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	var n int
	if err := conn.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func setTestEnv() {
	_ = os.Setenv("APP_ENV", "test")
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("STORE_BACKEND", "postgres")
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "studynotion")
	_ = os.Setenv("DB_PASSWORD", "studynotion")
	_ = os.Setenv("DB_NAME", "studynotion")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "minio")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "studynotion")
	_ = os.Setenv("MAIL_BACKEND", "log")
	_ = os.Setenv("DEV_BYPASS_OTP", "true")
	_ = os.Setenv("DEV_BYPASS_OTP_CODE", bypassCode)
}

func waitForPostgres(ctx context.Context) error {
	conn, err := sql.Open("postgres", db.DSN(config.LoadConfig().Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.DSN(config.LoadConfig().Database))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer(ctx context.Context) (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(ctx, cfg, logger.Nop())
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
