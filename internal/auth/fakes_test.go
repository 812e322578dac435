// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
)

type fakeDirectory struct {
	mu sync.Mutex

	users   map[string]*UserInfo
	nextID  int64
	findErr error

	touchErr  error
	createErr error

	findCalls int
	touched   map[int64]time.Time
	rehashed  map[int64]string
}

func newFakeDirectory(users ...*UserInfo) *fakeDirectory {
	d := &fakeDirectory{
		users:    make(map[string]*UserInfo),
		nextID:   100,
		touched:  make(map[int64]time.Time),
		rehashed: make(map[int64]string),
	}
	for _, u := range users {
		d.users[strings.ToLower(u.Email)] = u
	}
	return d
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*UserInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.findCalls++
	if d.findErr != nil {
		return nil, d.findErr
	}
	u, ok := d.users[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (d *fakeDirectory) TouchLastLogin(_ context.Context, userID int64, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.touched[userID] = at
	return d.touchErr
}

func (d *fakeDirectory) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rehashed[userID] = passwordHash
	return nil
}

func (d *fakeDirectory) Create(_ context.Context, name, email, passwordHash string) (*UserInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.createErr != nil {
		return nil, d.createErr
	}
	d.nextID++
	u := &UserInfo{
		ID:           d.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Status:       StatusActive,
	}
	d.users[strings.ToLower(email)] = u
	return u, nil
}

func (d *fakeDirectory) touchedAt(userID int64) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	at, ok := d.touched[userID]
	return at, ok
}

func (d *fakeDirectory) rehashFor(userID int64) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rehashed[userID]
}

func (d *fakeDirectory) finds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findCalls
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Time)}
}

func (r *fakeRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *fakeRevoker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}
