package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App implements it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	MfaSetup(ctx context.Context) error
	MfaEnable(ctx context.Context) error
	MfaDisable(ctx context.Context) error
	Strength(ctx context.Context) error
	Breach(ctx context.Context) error
	Stats(ctx context.Context) error
	Backup(ctx context.Context) error
	Activity(ctx context.Context) error
}

type command struct {
	name   string
	usage  string
	authed bool
	run    func(ctx context.Context, a execIface, arg string) error
}

func noArg(fn func(execIface, context.Context) error) func(context.Context, execIface, string) error {
	return func(ctx context.Context, a execIface, _ string) error { return fn(a, ctx) }
}

var commands = []command{
	{name: "register", usage: "create an account", run: noArg(execIface.Register)},
	{name: "login", usage: "log in", run: noArg(execIface.Login)},
	{name: "strength", usage: "rate a password", run: noArg(execIface.Strength)},
	{name: "breach", usage: "look a password up in known breaches", run: noArg(execIface.Breach)},
	{name: "whoami", usage: "show the current account", authed: true, run: noArg(execIface.WhoAmI)},
	{name: "list", usage: "list entries", authed: true, run: noArg(execIface.List)},
	{name: "add", usage: "add an entry", authed: true, run: noArg(execIface.Add)},
	{name: "show", usage: "show <id>: reveal an entry", authed: true,
		run: func(ctx context.Context, a execIface, id string) error { return a.Show(ctx, id) }},
	{name: "edit", usage: "edit <id>: change an entry", authed: true,
		run: func(ctx context.Context, a execIface, id string) error { return a.Edit(ctx, id) }},
	{name: "delete", usage: "delete <id>: remove an entry", authed: true,
		run: func(ctx context.Context, a execIface, id string) error { return a.Delete(ctx, id) }},
	{name: "stats", usage: "password health overview", authed: true, run: noArg(execIface.Stats)},
	{name: "mfa-setup", usage: "start two-factor enrollment", authed: true, run: noArg(execIface.MfaSetup)},
	{name: "mfa-enable", usage: "confirm two-factor enrollment", authed: true, run: noArg(execIface.MfaEnable)},
	{name: "mfa-disable", usage: "turn two-factor off", authed: true, run: noArg(execIface.MfaDisable)},
	{name: "backup", usage: "export an encrypted backup", authed: true, run: noArg(execIface.Backup)},
	{name: "activity", usage: "recent account activity", authed: true, run: noArg(execIface.Activity)},
	{name: "logout", usage: "log out", authed: true, run: noArg(execIface.Logout)},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(out io.Writer, loggedIn bool) {
	fmt.Fprintln(out, "Available commands:")
	for _, c := range commands {
		if c.authed && !loggedIn {
			continue
		}
		fmt.Fprintf(out, "  %-12s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(out, "  %-12s %s\n", "exit", "leave the program")
}

// runREPL reads commands from reader until EOF or exit/quit. Errors from
// command handlers are reported and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "gv%s> ", statusFn())

		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				fmt.Fprintln(out)
				return
			}
			continue
		}

		name, arg := parts[0], ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch name {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		case "help":
			printHelp(out, a.isLoggedIn())
		default:
			cmd, ok := findCommand(name)
			switch {
			case !ok:
				fmt.Fprintln(out, "Unknown command:", name)
			case cmd.authed && !a.isLoggedIn():
				fmt.Fprintln(out, "Please log in first")
			default:
				if err := cmd.run(ctx, a, arg); err != nil {
					fmt.Fprintln(out, "Error:", err)
				}
			}
		}

		if err != nil {
			return
		}
	}
}
