package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophvault/internal/api"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (a *App) List(ctx context.Context) error {
	pw, err := a.masterPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	entries, err := a.client.ListEntries(ctx, pw)
	if err != nil {
		return a.check(ctx, err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Vault is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tCATEGORY\tFAV\tSTRENGTH")
	for _, e := range entries {
		fav := ""
		if e.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", e.ID, e.Title, deref(e.Username), deref(e.Category), fav, e.Strength)
	}
	return tw.Flush()
}

func (a *App) Add(ctx context.Context) error {
	var (
		req api.AddEntryRequest
		err error
	)

	if req.Title, err = GetSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if req.Username, err = GetOptionalText(a.reader, "Username", a.out); err != nil {
		return err
	}
	if req.Password, err = GetPassword(a.reader, "Entry password", a.out); err != nil {
		return err
	}
	if req.URL, err = GetOptionalText(a.reader, "URL", a.out); err != nil {
		return err
	}
	if req.Notes, err = GetOptionalText(a.reader, "Notes", a.out); err != nil {
		return err
	}
	if req.Category, err = GetOptionalText(a.reader, "Category", a.out); err != nil {
		return err
	}
	if req.Favorite, err = GetConfirm(a.reader, "Favorite", a.out); err != nil {
		return err
	}

	pw, err := a.masterPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	e, err := a.client.AddEntry(ctx, pw, &req)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Added %s (strength %d)\n", e.ID, e.Strength)
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	id, err := a.entryID(id)
	if err != nil {
		return err
	}
	pw, err := a.masterPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	e, err := a.client.GetEntry(ctx, pw, id)
	if err != nil {
		return a.check(ctx, err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", e.Title)
	fmt.Fprintf(tw, "Username:\t%s\n", deref(e.Username))
	fmt.Fprintf(tw, "Password:\t%s\n", e.Password)
	fmt.Fprintf(tw, "URL:\t%s\n", deref(e.URL))
	fmt.Fprintf(tw, "Notes:\t%s\n", deref(e.Notes))
	fmt.Fprintf(tw, "Category:\t%s\n", deref(e.Category))
	fmt.Fprintf(tw, "Favorite:\t%t\n", e.Favorite)
	fmt.Fprintf(tw, "Strength:\t%d\n", e.Strength)
	fmt.Fprintf(tw, "Updated:\t%s\n", e.UpdatedAt.Format("2006-01-02 15:04"))
	return tw.Flush()
}

// keepOrChange reads an update for one field: empty keeps the value, "-"
// clears it.
func (a *App) keepOrChange(prompt string) (*string, error) {
	s, err := GetSimpleText(a.reader, prompt+" (enter to keep, - to clear)", a.out)
	if err != nil || s == "" {
		return nil, err
	}
	if s == "-" {
		s = ""
	}
	return &s, nil
}

func (a *App) Edit(ctx context.Context, id string) error {
	id, err := a.entryID(id)
	if err != nil {
		return err
	}

	req := api.UpdateEntryRequest{ID: id}
	if req.Title, err = a.keepOrChange("Title"); err != nil {
		return err
	}
	if req.Username, err = a.keepOrChange("Username"); err != nil {
		return err
	}
	newPw, err := GetPassword(a.reader, "New entry password (enter to keep)", a.out)
	if err != nil {
		return err
	}
	if newPw != "" {
		req.Password = &newPw
	}
	if req.URL, err = a.keepOrChange("URL"); err != nil {
		return err
	}
	if req.Notes, err = a.keepOrChange("Notes"); err != nil {
		return err
	}
	if req.Category, err = a.keepOrChange("Category"); err != nil {
		return err
	}

	pw, err := a.masterPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	e, err := a.client.UpdateEntry(ctx, pw, &req)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Updated %s (strength %d)\n", e.ID, e.Strength)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	id, err := a.entryID(id)
	if err != nil {
		return err
	}
	ok, err := GetConfirm(a.reader, "Delete entry "+id+"?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("cancelled")
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.DeleteEntry(ctx, id); err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintln(a.out, "Deleted", id)
	return nil
}
