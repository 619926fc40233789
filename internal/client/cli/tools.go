package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const activityLimit = 20

func (a *App) Strength(ctx context.Context) error {
	pw, err := GetPassword(a.reader, "Password to rate", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	r, err := a.client.CheckStrength(ctx, pw)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Score %d/100 (%s)\n", r.Score, r.Label)
	if r.CrackTime != "" {
		fmt.Fprintln(a.out, "Estimated crack time:", r.CrackTime)
	}
	for _, s := range r.Suggestions {
		fmt.Fprintln(a.out, " -", s)
	}
	return nil
}

func (a *App) Breach(ctx context.Context) error {
	pw, err := GetPassword(a.reader, "Password to check", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	r, err := a.client.CheckBreach(ctx, pw)
	if err != nil {
		return err
	}

	if r.Breached {
		fmt.Fprintf(a.out, "Found in %d breaches. Do not use it.\n", r.Count)
	} else {
		fmt.Fprintln(a.out, "Not found in known breaches")
	}
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	pw, err := a.masterPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	d, err := a.client.Analytics(ctx, pw)
	if err != nil {
		return a.check(ctx, err)
	}

	fmt.Fprintf(a.out, "Passwords: %d  weak: %d  reused: %d  old: %d\n",
		d.TotalPasswords, d.WeakPasswords, d.ReusedPasswords, d.OldPasswords)
	fmt.Fprintf(a.out, "Average strength: %.1f\n", d.AverageStrength)

	if len(d.CategoryBreakdown) > 0 {
		names := make([]string, 0, len(d.CategoryBreakdown))
		for name := range d.CategoryBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, d.CategoryBreakdown[name]))
		}
		fmt.Fprintln(a.out, "Categories:", strings.Join(parts, " "))
	}
	return nil
}

func (a *App) Backup(ctx context.Context) error {
	ctx, cancel := a.rpc(ctx)
	defer cancel()

	b, err := a.client.ExportBackup(ctx)
	if err != nil {
		return a.check(ctx, err)
	}

	fmt.Fprintf(a.out, "Exported %d entries to %s\n", b.Items, b.Key)
	fmt.Fprintf(a.out, "Download (until %s):\n%s\n", b.ExpiresAt.Local().Format("2006-01-02 15:04"), b.URL)
	return nil
}

func (a *App) Activity(ctx context.Context) error {
	ctx, cancel := a.rpc(ctx)
	defer cancel()

	events, err := a.client.Activity(ctx, activityLimit)
	if err != nil {
		return a.check(ctx, err)
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No activity")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(a.out, "%s  %-18s %s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Action, e.IPAddress, e.Details)
	}
	return nil
}
