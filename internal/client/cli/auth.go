package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/stayonbrand/gatekeeper/internal/client/api"
	"github.com/stayonbrand/gatekeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and authenticates. On success the session
// state receives the token first and the user second, so enrichment observes
// an authenticated session.
func (a *App) Login(ctx context.Context) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	rememberMe, err := GetYesNo(a.reader, "Remember me?", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	res, err := a.auth.Login(ctx, email, string(password), rememberMe)
	if err != nil {
		a.printAuthError(err)
		return
	}

	a.session.SetToken(res.AccessToken)
	a.session.SetUser(ctx, res.User)
	fmt.Fprintln(a.out, "Login successful")
}

// Signup prompts for email, username and password and creates an account.
func (a *App) Signup(ctx context.Context) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	res, err := a.auth.Signup(ctx, email, string(password), username)
	if err != nil {
		a.printAuthError(err)
		return
	}

	if res.Message != "" {
		fmt.Fprintln(a.out, res.Message)
	} else {
		fmt.Fprintln(a.out, "Success! Check your inbox to verify your address.")
	}
}

// ForgotPassword requests a reset email.
func (a *App) ForgotPassword(ctx context.Context) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	res, err := a.auth.ForgotPassword(ctx, email)
	if err != nil {
		a.printAuthError(err)
		return
	}
	fmt.Fprintln(a.out, res.Message)
}

// ResetPassword confirms a new password with the emailed code.
func (a *App) ResetPassword(ctx context.Context) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	code, err := getSimpleText(a.reader, "Enter reset code", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}

	password, err := getPassword("Enter new password", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	res, err := a.auth.ResetPassword(ctx, email, code, string(password))
	if err != nil {
		a.printAuthError(err)
		return
	}
	fmt.Fprintln(a.out, res.Message)
}

// Logout clears the in-memory session and the persisted record.
func (a *App) Logout(ctx context.Context) {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
}

// Status prints the current session snapshot.
func (a *App) Status(ctx context.Context) {
	snap := a.session.Snapshot()
	if !snap.Authenticated {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", snap.User.Email)
	if snap.Username != nil {
		fmt.Fprintf(a.out, "  username:     %s\n", *snap.Username)
	}
	if snap.ActiveTier != nil {
		fmt.Fprintf(a.out, "  tier:         %s\n", *snap.ActiveTier)
	}
	if snap.SubscriptionStatus != nil {
		fmt.Fprintf(a.out, "  subscription: %s\n", *snap.SubscriptionStatus)
	}
	if snap.TierExpiresAt != nil {
		fmt.Fprintf(a.out, "  tier expires: %s\n", snap.TierExpiresAt.Format("2006-01-02"))
	}
	if snap.MemberSince != nil {
		fmt.Fprintf(a.out, "  member since: %s\n", snap.MemberSince.Format("2006-01-02"))
	}
}

// Refresh re-fetches the profile record for the current user.
func (a *App) Refresh(ctx context.Context) {
	if err := a.session.RefreshUserData(ctx); err != nil {
		fmt.Fprintf(a.out, "Refresh failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Profile refreshed")
}

func (a *App) printAuthError(err error) {
	if errors.Is(err, api.ErrUnavailable) {
		fmt.Fprintln(a.out, "Cannot connect to auth server. Please ensure the backend is running.")
		return
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
}
