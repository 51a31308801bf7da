package client

import "context"

// Navigator sends the user back to the login entry point after the session ends.
type Navigator interface {
	ToLogin(ctx context.Context, reason string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, reason string)

func (f NavigatorFunc) ToLogin(ctx context.Context, reason string) { f(ctx, reason) }

type nopNavigator struct{}

func (nopNavigator) ToLogin(context.Context, string) {}
