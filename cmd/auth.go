package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// readPassword returns the --password flag, or the first line of input.
func (r *Runner) readPassword(cmd *cli.Command) (string, error) {
	if pw := cmd.String("password"); pw != "" {
		return pw, nil
	}

	if r.isTerminal() {
		r.writePlain("Password: ")
	}
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return pw, nil
}

// AuthLogin exchanges email and password for an access token and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password, err := r.readPassword(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "email", email)
	if res := r.auth.Login(ctx, email, password); !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}

	if user := r.auth.User(); user != nil {
		return r.writePlain("✓ Logged in as %s <%s>\n", user.Name, user.Email)
	}
	return r.writePlain("✓ Logged in\n")
}

// AuthRegister creates an account, then signs in with the same credentials.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	email := cmd.String("email")
	password, err := r.readPassword(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("registering account", "email", email)
	if res := r.auth.Register(ctx, name, email, password); !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}
	r.writePlain("✓ Account created for %s\n", email)

	if res := r.auth.Login(ctx, email, password); !res.Success {
		r.logger.Warn("automatic login after registration failed", "error", res.Error)
		return r.writePlain("Run 'roomsync auth login --email %s' to sign in\n", email)
	}
	return r.writePlain("✓ Logged in\n")
}

// AuthLogout forgets the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.auth.Logout()
	return r.writePlain("✓ Logged out\n")
}

// AuthWhoami refreshes and prints the signed-in user's profile.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	r.auth.FetchUser(ctx)
	user := r.auth.User()
	if user == nil {
		return fmt.Errorf("%w: failed to load profile", shared.ErrAuthFailed)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Name:  %s\n", user.Name)
	r.writePlain("Email: %s\n", user.Email)
	r.writePlain("ID:    %s\n", user.ID)
	return nil
}
