package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/client/client"
	"github.com/dmitrijs2005/trackmeta/internal/client/session"
	"github.com/dmitrijs2005/trackmeta/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage: log <info|warn|error|debug> <message>")

// Signup prompts for a username, an email and a password and creates the
// account. On success the user is sent to the login view.
func (a *App) Signup(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Signup(ctx, username, email, string(password))
	if err != nil {
		a.printError("Signup failed", err)
		return err
	}

	a.println(okStyle.Render(fmt.Sprintf("%s (%s, %s)", res.Message, res.Username, res.Email)))
	a.logRemote(ctx, common.LogLevelInfo, "User signed up: "+res.Username)
	a.Navigate("/login")
	return nil
}

// Login prompts for credentials, starts a session with the issued token and
// opens the dashboard.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		a.printError("Login failed", err)
		a.logRemote(ctx, common.LogLevelWarn, "Login failed for user: "+username)
		return err
	}

	if err := a.session.LogIn(ctx, strings.ToLower(username), res.Token, res.ExpiresAt); err != nil {
		a.printError("Could not store the session", err)
		return err
	}

	a.println(okStyle.Render(res.Message))
	a.logRemote(ctx, common.LogLevelInfo, "User logged in: "+strings.ToLower(username))
	a.Navigate(session.PathDashboard)
	return nil
}

// Extend renews the session. A failed renewal ends the session; the
// lifecycle takes care of the navigation.
func (a *App) Extend(ctx context.Context) error {
	if err := a.session.ExtendSession(ctx); err != nil {
		if errors.Is(err, common.ErrNotLoggedIn) {
			a.println(errorStyle.Render("You are not logged in."))
			return err
		}
		a.printError("Could not extend the session", err)
		a.logRemote(ctx, common.LogLevelError, "Session extension failed")
		return err
	}

	snap := a.session.Snapshot()
	a.println(okStyle.Render("Session extended until " + snap.ExpiresAt.Local().Format(time.DateTime)))
	a.logRemote(ctx, common.LogLevelInfo, "Session extended")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	user := a.session.Snapshot().Username
	a.session.LogOut(ctx)
	a.println(okStyle.Render("Logged out."))
	a.logRemote(ctx, common.LogLevelInfo, "User logged out: "+user)
	return nil
}

// Status prints the current session state.
func (a *App) Status(ctx context.Context) error {
	snap := a.session.Snapshot()

	lines := []string{fmt.Sprintf("state:    %s", snap.State)}
	if snap.IsLoggedIn {
		remaining := time.Until(snap.ExpiresAt).Truncate(time.Second)
		lines = append(lines,
			fmt.Sprintf("user:     %s", snap.Username),
			fmt.Sprintf("expires:  %s (in %s)", snap.ExpiresAt.Local().Format(time.DateTime), remaining),
		)
	}
	if snap.WarningVisible {
		lines = append(lines, warningStyle.Render("warning:  session about to expire, type 'extend'"))
	}
	if m := a.currentMode(); m != "" {
		lines = append(lines, fmt.Sprintf("server:   %s", m))
	}
	lines = append(lines, fmt.Sprintf("view:     %s", a.currentView()))

	a.println(strings.Join(lines, "\n"))
	return nil
}

// Log ships a line to the server log, e.g. "log warn disk almost full".
func (a *App) Log(ctx context.Context, args []string) error {
	if len(args) < 2 || !levelValid(args[0]) {
		a.println(mutedStyle.Render(errUsage.Error()))
		return errUsage
	}
	a.logRemote(ctx, args[0], strings.Join(args[1:], " "))
	a.println(mutedStyle.Render("queued"))
	return nil
}

// Home opens the dashboard, subject to the credential guard.
func (a *App) Home(ctx context.Context) error {
	a.Navigate(session.PathDashboard)
	return nil
}

func (a *App) printError(prefix string, err error) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		a.println(errorStyle.Render(prefix + ": " + apiErr.Message))
	case errors.Is(err, client.ErrUnavailable):
		a.println(errorStyle.Render(prefix + ": server unavailable"))
	default:
		a.println(errorStyle.Render(prefix + ": " + err.Error()))
	}
}

func levelValid(level string) bool {
	switch level {
	case common.LogLevelInfo, common.LogLevelWarn, common.LogLevelError, common.LogLevelDebug:
		return true
	}
	return false
}
