// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

type memoryRepo struct {
	users  map[int64]*User
	nextID int64
	err    error
}

func newMemoryRepo(users ...*User) *memoryRepo {
	r := &memoryRepo{users: make(map[int64]*User), nextID: 1}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *memoryRepo) Create(_ context.Context, u *User) error {
	if r.err != nil {
		return r.err
	}
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = repoTestTime
	r.users[u.ID] = u
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (r *memoryRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *memoryRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *memoryRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memoryRepo) CountByRole(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, u := range r.users {
		counts[u.Role]++
	}
	return counts, nil
}

func profileRequest(identity *middleware.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	return req
}

func TestGetProfileReturnsSafeProjection(t *testing.T) {
	lastLogin := repoTestTime.Add(time.Hour)
	repo := newMemoryRepo(&User{
		ID:           7,
		Name:         "Ada",
		Email:        "a@x.com",
		PasswordHash: "$argon2id$secret-digest",
		Role:         RoleAdmin,
		Status:       StatusActive,
		LastLogin:    &lastLogin,
		CreatedAt:    repoTestTime,
	})
	h := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, profileRequest(&middleware.Identity{ID: 7, Role: RoleAdmin}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{
		"id":7,"name":"Ada","email":"a@x.com","role":"admin","status":"active",
		"lastLogin":"2026-02-01T13:00:00Z","createdAt":"2026-02-01T12:00:00Z"
	}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestGetProfileWithoutIdentity(t *testing.T) {
	h := NewHandler(NewService(newMemoryRepo()))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, profileRequest(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
}

func TestGetProfileDeletedUserLooksUnauthenticated(t *testing.T) {
	h := NewHandler(NewService(newMemoryRepo()))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, profileRequest(&middleware.Identity{ID: 404}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
}

func TestGetProfileDirectoryFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("too many connections")
	h := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, profileRequest(&middleware.Identity{ID: 7}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to load profile"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "too many connections")
}
