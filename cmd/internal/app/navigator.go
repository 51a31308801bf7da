package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// cliNavigator is the CLI's stand-in for a redirect to the login screen:
// it tells the user, once per invocation, that they must sign in again.
type cliNavigator struct {
	w        io.Writer
	loginURL string
	once     sync.Once
}

func (n *cliNavigator) ToLogin(_ context.Context, reason string) {
	n.once.Do(func() {
		fmt.Fprintf(n.w, "Your session has ended (%s). Sign in again with: helpdesk login\n", strings.ReplaceAll(reason, "_", " "))
		if strings.HasPrefix(n.loginURL, "http://") || strings.HasPrefix(n.loginURL, "https://") {
			fmt.Fprintf(n.w, "Or open %s\n", n.loginURL)
		}
	})
}
