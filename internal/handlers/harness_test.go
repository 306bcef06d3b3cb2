package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"taskboard/internal/auth"
	dom "taskboard/internal/domain"
	"taskboard/internal/repo"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory stand-ins for Postgres and Redis so handler tests can drive
// the real router end to end.

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]dom.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]dom.User)}
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) Create(_ context.Context, username, passwordHash string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			// Same shape Postgres raises for the unique index on username.
			return dom.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	r.nextID++
	u := dom.User{ID: r.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[u.ID] = u
	return u, nil
}

type memTaskRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]dom.Task
	users  *memUserRepo // owner username echo, like the LEFT JOIN in SQL
}

func newMemTaskRepo(users *memUserRepo) *memTaskRepo {
	return &memTaskRepo{tasks: make(map[int64]dom.Task), users: users}
}

func (r *memTaskRepo) resolveName(t dom.Task) dom.Task {
	if t.UserID != nil {
		r.users.mu.Lock()
		u, ok := r.users.users[*t.UserID]
		r.users.mu.Unlock()
		if ok {
			name := u.Username
			t.Username = &name
		}
	}
	return t
}

func (r *memTaskRepo) matches(t dom.Task, f repo.TaskFilter) bool {
	if f.Owner != nil && (t.UserID == nil || *t.UserID != *f.Owner) {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	return true
}

func (r *memTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = t
	return r.resolveName(t), nil
}

func (r *memTaskRepo) List(_ context.Context, f repo.TaskFilter) ([]dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []dom.Task
	for _, t := range r.tasks {
		if r.matches(t, f) {
			all = append(all, r.resolveName(t))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *memTaskRepo) Count(_ context.Context, f repo.TaskFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tasks {
		if r.matches(t, f) {
			n++
		}
	}
	return n, nil
}

func (r *memTaskRepo) GetOwned(_ context.Context, ownerID, id int64) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID == nil || *t.UserID != ownerID {
		return dom.Task{}, pgx.ErrNoRows
	}
	return r.resolveName(t), nil
}

func (r *memTaskRepo) Update(_ context.Context, ownerID, id int64, patch dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID == nil || *t.UserID != ownerID {
		return dom.Task{}, pgx.ErrNoRows
	}
	t.Title = patch.Title
	t.Description = patch.Description
	t.Completed = patch.Completed
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return r.resolveName(t), nil
}

func (r *memTaskRepo) Delete(_ context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID == nil || *t.UserID != ownerID {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

type memSessions struct {
	mu   sync.Mutex
	next int
	m    map[string]int64
}

func newMemSessions() *memSessions {
	return &memSessions{m: make(map[string]int64)}
}

func (s *memSessions) Create(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := "sess-" + strconv.Itoa(s.next)
	s.m[id] = userID
	return id, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func (s *memSessions) GetUserID(_ context.Context, id string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.m[id]
	return userID, ok
}

// env bundles the router and its fakes for one test.
type env struct {
	router   *gin.Engine
	users    *memUserRepo
	tasks    *memTaskRepo
	sessions *memSessions
	userSvc  *service.UserService
	taskSvc  *service.TaskService
}

func newEnv() *env {
	gin.SetMode(gin.TestMode)

	e := &env{
		users:    newMemUserRepo(),
		sessions: newMemSessions(),
	}
	e.tasks = newMemTaskRepo(e.users)
	e.userSvc = service.NewUserService(e.users)
	e.taskSvc = service.NewTaskService(e.tasks, nil)

	r := gin.New()
	api := r.Group("/api/v1")

	authHandler := NewAuthHandler(e.sessions, e.userSvc, 24*time.Hour)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/logout", auth.RequireSession(e.sessions), authHandler.Logout)

	taskHandler := NewTaskHandler(e.taskSvc, 10)
	collection := api.Group("/tasks", auth.OptionalSession(e.sessions))
	collection.GET("", taskHandler.List)
	collection.POST("", taskHandler.Create)
	detail := api.Group("/tasks", auth.RequireSession(e.sessions))
	detail.GET("/:id", taskHandler.GetByID)
	detail.PUT("/:id", taskHandler.Replace)
	detail.PATCH("/:id", taskHandler.Patch)
	detail.DELETE("/:id", taskHandler.Delete)

	e.router = r
	return e
}

// seedUser registers a user through the service (real bcrypt hash).
func (e *env) seedUser(username, password string) dom.User {
	u, err := e.userSvc.Register(context.Background(), username, password)
	if err != nil {
		panic(err)
	}
	return u
}

// seedTask inserts a task directly into the fake repo.
func (e *env) seedTask(owner *int64, title, desc string, completed bool) dom.Task {
	t, err := e.tasks.Create(context.Background(), dom.Task{
		Title:       title,
		Description: desc,
		Completed:   completed,
		UserID:      owner,
	})
	if err != nil {
		panic(err)
	}
	return t
}

// sessionFor opens a session for the user and returns the cookie value.
func (e *env) sessionFor(userID int64) string {
	id, err := e.sessions.Create(context.Background(), userID)
	if err != nil {
		panic(err)
	}
	return id
}

// do performs a request against the router. An empty session means anonymous.
func (e *env) do(method, path, session string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: session})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// sessionCookie extracts the session cookie value from a login response.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("no session cookie in response")
	return ""
}
