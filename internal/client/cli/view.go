package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/client/session"
	"github.com/dmitrijs2005/trackmeta/internal/common"
)

var (
	_ session.Notifier  = (*App)(nil)
	_ session.Navigator = (*App)(nil)
)

// Navigate switches the current view. The dashboard is guarded by the
// credential cookie; without it the user lands on the home view instead.
func (a *App) Navigate(path string) {
	if path == session.PathDashboard {
		if tok, ok := a.cookies.Read(context.Background(), common.AuthCookieName); !ok || tok == "" {
			path = session.PathHome
		}
	}

	a.mu.Lock()
	a.view = path
	a.mu.Unlock()

	a.println(navStyle.Render("-> " + path))
}

func (a *App) SessionWarning(s session.Snapshot, closeIn time.Duration) {
	msg := fmt.Sprintf("Your session expires at %s. Type 'extend' within %s to stay signed in.",
		s.ExpiresAt.Local().Format(time.TimeOnly), closeIn)
	a.println(warningStyle.Render(msg))
	a.logRemote(context.Background(), common.LogLevelWarn, "Session expiry warning shown")
}

func (a *App) SessionExpired(session.Snapshot) {
	a.println(errorStyle.Render("Your session has expired. Please log in again."))
	a.logRemote(context.Background(), common.LogLevelInfo, "Session expired")
}
