package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/accounts/internal/client/client"
)

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	name, err := GetSimpleText(a.reader, "-Enter full name (optional)", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.fail(err)
	}

	var fullName *string
	if name != "" {
		fullName = &name
	}
	if err := a.api.Register(ctx, email, password, fullName); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Registered and logged in")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.fail(err)
	}
	if err := a.api.Login(ctx, email, password); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return a.fail(err)
	}
	name := "-"
	if u.FullName != nil {
		name = *u.FullName
	}
	fmt.Fprintf(a.out, "id:        %s\nemail:     %s\nname:      %s\nactive:    %t\nsuperuser: %t\ncreated:   %s\n",
		u.ID, u.Email, name, u.IsActive, u.IsSuperuser, u.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Users(ctx context.Context) error {
	list, err := a.api.ListUsers(ctx)
	if err != nil {
		return a.fail(err)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tACTIVE\tSUPERUSER")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", u.ID, u.Email, u.IsActive, u.IsSuperuser)
	}
	return tw.Flush()
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// fail reports err to the user and returns it.
func (a *App) fail(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		fmt.Fprintf(a.out, "error: %s\n", apiErr.Detail)
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "error: please log in first")
	default:
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}
