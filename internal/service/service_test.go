package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/db"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
)

type testEnv struct {
	db       *sqlx.DB
	registry *capability.Registry
	store    *memoryStore

	users     repository.UserRepository
	stories   repository.StoryRepository
	tags      repository.TagRepository
	badgeRepo repository.BadgeRepository
	tx        repository.TxRunner

	files      *FileService
	badges     *BadgeService
	social     *SocialService
	submission *SubmissionService
	story      *StoryService
}

// newTestEnv wires services against a migrated sqlite database and an empty capability registry.
// Tests register the capabilities they need before calling services.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "storyloom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	env := &testEnv{
		db:        conn,
		registry:  capability.NewRegistry(),
		store:     newMemoryStore(),
		users:     repository.NewUserRepository(conn),
		stories:   repository.NewStoryRepository(conn),
		tags:      repository.NewTagRepository(conn),
		badgeRepo: repository.NewBadgeRepository(conn),
		tx:        repository.NewTxRunner(conn),
	}

	email := NewEmailService("", "noreply@example.com", "http://localhost:8090", "Storyloom", true)
	env.files = NewFileService(repository.NewFileRepository(conn), env.store)
	env.badges = NewBadgeService(env.badgeRepo, env.stories, env.users, env.tx, email)
	env.social = NewSocialService(
		env.stories,
		repository.NewLikeRepository(conn),
		repository.NewReactionRepository(conn),
		repository.NewCommentRepository(conn),
		env.badges,
	)
	env.submission = NewSubmissionService(env.registry, env.stories, env.tags, env.tx, env.files, env.badges)
	env.story = NewStoryService(env.stories, env.tags, env.files, env.submission, env.registry, markdown.NewParser())

	_, err = env.badges.InitializeDefaultBadges()
	require.NoError(t, err)

	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, e.users.Create(user))
	return user
}

// submit publishes a plain story without enhancements.
func (e *testEnv) submit(t *testing.T, userID, title string) *SubmissionResult {
	t.Helper()

	result, err := e.submission.Submit(context.Background(), SubmissionInput{
		UserID:  userID,
		Title:   title,
		Content: "Lamps are lit along the river at dusk.",
		Region:  "Asia",
		Theme:   "Festivals",
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) useStorage() {
	store := e.store
	e.registry.Register(context.Background(), capability.Storage, func(context.Context) (capability.Capability, error) {
		return adapter.NewStorageAdapter(store, capability.NoRetry(0)), nil
	})
}

type fakeInvoker[In, Out any] struct {
	capability.Base
	fn func(ctx context.Context, in In) capability.Result[Out]
}

func (f *fakeInvoker[In, Out]) Invoke(ctx context.Context, in In) capability.Result[Out] {
	return f.fn(ctx, in)
}

func registerFake[In, Out any](r *capability.Registry, name capability.Name, fn func(ctx context.Context, in In) capability.Result[Out]) {
	r.Register(context.Background(), name, func(context.Context) (capability.Capability, error) {
		return &fakeInvoker[In, Out]{Base: capability.NewBase(name, true), fn: fn}, nil
	})
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Save(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) URL(key string) string {
	return fmt.Sprintf("https://cdn.example.com/%s?signed=1", key)
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
