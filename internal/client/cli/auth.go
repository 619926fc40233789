package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/client/client"
)

// Register asks for the account details and creates the account. The
// master password is typed twice.
func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Master password", a.out)
	if err != nil {
		return err
	}
	again, err := GetPassword(a.reader, "Repeat master password", a.out)
	if err != nil {
		return err
	}
	if password != again {
		return errors.New("passwords do not match")
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	user, err := a.client.Register(ctx, email, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. Log in to continue.\n", user.Username)
	return nil
}

// Login authenticates and remembers the session. A second factor is asked
// for only when the server says the account needs one.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Master password", a.out)
	if err != nil {
		return err
	}

	callCtx, cancel := a.rpc(ctx)
	resp, err := a.client.Login(callCtx, email, password, nil)
	cancel()

	if errors.Is(err, client.ErrMfaRequired) {
		code, cerr := GetSimpleText(a.reader, "Authenticator code", a.out)
		if cerr != nil {
			return cerr
		}
		callCtx, cancel := a.rpc(ctx)
		resp, err = a.client.Login(callCtx, email, password, &code)
		cancel()
	}
	if err != nil {
		return err
	}

	a.saveSession(ctx, resp.User.Email, resp)
	fmt.Fprintf(a.out, "Welcome, %s\n", resp.User.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	callCtx, cancel := a.rpc(ctx)
	err := a.client.Logout(callCtx)
	cancel()

	a.forgetSession(ctx)
	if err != nil && !errors.Is(err, client.ErrUnavailable) && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	ctx, cancel := a.rpc(ctx)
	defer cancel()

	me, err := a.client.Me(ctx)
	if err != nil {
		return a.check(ctx, err)
	}
	state, err := a.client.MfaStatus(ctx)
	if err != nil {
		return a.check(ctx, err)
	}

	fmt.Fprintf(a.out, "%s <%s>\n", me.Username, me.Email)
	fmt.Fprintf(a.out, "member since %s, two-factor %s\n", me.CreatedAt.Format("2006-01-02"), state)
	if me.LastLoginAt != nil {
		fmt.Fprintf(a.out, "last login %s\n", me.LastLoginAt.Format("2006-01-02 15:04"))
	}
	return nil
}
