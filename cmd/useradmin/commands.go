// AngelaMos | 2026
// commands.go

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/user"
)

const minSecretBytes = 32

type userStore interface {
	AddUser(ctx context.Context, params user.AddUserParams) (*user.User, error)
	SetPassword(ctx context.Context, email, password string) error
	CheckPassword(ctx context.Context, email, password string) (bool, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

type commands struct {
	store        userStore
	out          io.Writer
	readPassword func(prompt string) (string, error)
}

func (c *commands) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "password, prompted when empty")
	role := fs.String("role", user.RoleUser, "user, vip_user or admin")
	status := fs.String("status", user.StatusActive, "active or inactive")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" || *email == "" {
		return errors.New("add: -name and -email are required")
	}

	pw, err := c.passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	created, err := c.store.AddUser(ctx, user.AddUserParams{
		Name:     *name,
		Email:    *email,
		Password: pw,
		Role:     *role,
		Status:   *status,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return fmt.Errorf("add: a user with email %s already exists", *email)
		}
		return fmt.Errorf("add: %w", err)
	}

	fmt.Fprintf(c.out, "created user %d: %s <%s> role=%s status=%s\n",
		created.ID, created.Name, created.Email, created.Role, created.Status)
	return nil
}

func (c *commands) setPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("set-password")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "new password, prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return errors.New("set-password: -email is required")
	}

	pw, err := c.passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	if err := c.store.SetPassword(ctx, *email, pw); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("set-password: no user with email %s", *email)
		}
		return fmt.Errorf("set-password: %w", err)
	}

	fmt.Fprintf(c.out, "password updated for %s\n", *email)
	return nil
}

func (c *commands) checkPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("check-password")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "password to test, prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return errors.New("check-password: -email is required")
	}

	pw, err := c.passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	ok, err := c.store.CheckPassword(ctx, *email, pw)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("check-password: no user with email %s", *email)
		}
		return fmt.Errorf("check-password: %w", err)
	}

	if ok {
		fmt.Fprintf(c.out, "password matches for %s\n", *email)
	} else {
		fmt.Fprintf(c.out, "password does NOT match for %s\n", *email)
	}
	return nil
}

func (c *commands) list(ctx context.Context) error {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Name, u.Email, u.Role, u.Status, lastLogin)
	}
	return tw.Flush()
}

func (c *commands) passwordOrPrompt(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	pw, err := c.readPassword("Enter password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}

// runGenSecret prints a random value suitable for JWT_SECRET.
func runGenSecret(out io.Writer, args []string) error {
	fs := newFlagSet("gen-secret")
	size := fs.Int("bytes", 48, "number of random bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *size < minSecretBytes {
		return fmt.Errorf("gen-secret: -bytes must be at least %d", minSecretBytes)
	}

	raw := make([]byte, *size)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("gen-secret: %w", err)
	}

	fmt.Fprintln(out, base64.RawURLEncoding.EncodeToString(raw))
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
