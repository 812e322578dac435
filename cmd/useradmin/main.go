// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/templates/storefront-auth/internal/config"
	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/user"
)

var errShowUsage = errors.New("show usage")

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, openStore)
	if errors.Is(err, errShowUsage) {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// storeOpener connects to the user directory. It is swapped out in tests.
type storeOpener func(ctx context.Context, configPath string) (userStore, func(), error)

func run(ctx context.Context, args []string, out io.Writer, open storeOpener) error {
	global := flag.NewFlagSet("useradmin", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configPath := global.String("config", "", "path to an optional YAML config file")
	if err := global.Parse(args); err != nil {
		return errShowUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		return errShowUsage
	}
	command, cmdArgs := rest[0], rest[1:]

	switch command {
	case "gen-secret":
		return runGenSecret(out, cmdArgs)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	case "add", "set-password", "check-password", "list":
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	store, closeStore, err := open(ctx, *configPath)
	if err != nil {
		return err
	}
	defer closeStore()

	cmd := &commands{store: store, out: out, readPassword: promptPassword}

	switch command {
	case "add":
		return cmd.add(ctx, cmdArgs)
	case "set-password":
		return cmd.setPassword(ctx, cmdArgs)
	case "check-password":
		return cmd.checkPassword(ctx, cmdArgs)
	default:
		return cmd.list(ctx)
	}
}

func openStore(ctx context.Context, configPath string) (userStore, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() {
		//nolint:errcheck // process is exiting
		_ = db.Close()
	}

	return user.NewService(user.NewRepository(db.DB)), closeDB, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: useradmin [-config file] <command> [flags]

commands:
  add             -name -email [-password] [-role user|vip_user|admin] [-status active|inactive]
  set-password    -email [-password]
  check-password  -email [-password]
  list
  gen-secret      [-bytes 48]

Omitting -password prompts for it without echo.
`)
}
