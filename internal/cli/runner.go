package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Makepad-fr/amped/internal/auth"
	"github.com/Makepad-fr/amped/internal/config"
	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/datastore/jsonstore"
	"github.com/Makepad-fr/amped/internal/datastore/sqlstore"
	"github.com/Makepad-fr/amped/internal/logging"
	"github.com/Makepad-fr/amped/internal/model"
	"github.com/Makepad-fr/amped/internal/screen"
	"github.com/Makepad-fr/amped/internal/store/liststore"
	"github.com/Makepad-fr/amped/internal/ui"
)

// Options tune behavior from root flags.
type Options struct {
	ConfigPath string // overrides AMPED_CONFIG
	Theme      string // overrides ui.theme
}

// stdin is where prompts read from; swapped in tests.
var stdin io.Reader = os.Stdin

// env is what every subcommand needs.
type env struct {
	cfg  config.Config
	log  *logging.Logger
	auth *auth.Manager
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	cmd, a := "ui", []string(nil)
	if len(args) > 0 {
		cmd, a = args[0], args[1:]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	cfg, err := config.Load(opt.ConfigPath)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	theme := cfg.UI.Theme
	if opt.Theme != "" {
		theme = opt.Theme
	}
	ui.SetTheme(theme)

	log, err := logging.Open(cfg.Log.File, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		// keep going; logs are for developers only
		ui.Hint("logging disabled: " + err.Error())
		log = logging.Discard()
	}
	defer log.Close()

	e := &env{cfg: cfg, log: log, auth: auth.NewManager(cfg.Auth.Dir, cfg.Auth.SessionTTL)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "ui":
		return e.doUI(ctx)

	case "ls":
		return e.doList(ctx)

	case "add":
		name, desc := splitAddArgs(a)
		if name == "" {
			ui.Fail("usage: amped add <name> -- <description...>")
			return 2
		}
		return e.doAdd(ctx, name, desc)

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: amped rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return e.doRemove(ctx, n)

	case "clear":
		return e.doClear(ctx)

	case "config":
		switch {
		case len(a) == 1 && a[0] == "path":
			fmt.Fprintln(ui.Stdout, config.Resolve(opt.ConfigPath))
			return 0
		case len(a) >= 1 && a[0] == "init":
			force := len(a) == 2 && (a[1] == "-force" || a[1] == "--force")
			if len(a) > 2 || (len(a) == 2 && !force) {
				ui.Fail("usage: amped config init [--force]")
				return 2
			}
			return e.doConfigInit(opt, force)
		default:
			ui.Fail("usage: amped config <init [--force]|path>")
			return 2
		}

	case "auth":
		if len(a) == 0 {
			ui.Fail("usage: amped auth <register|login|logout|status|whoami>")
			return 2
		}
		switch a[0] {
		case "register", "login":
			if len(a) != 2 {
				ui.Fail(fmt.Sprintf("usage: amped auth %s <email>", a[0]))
				return 2
			}
			if a[0] == "register" {
				return e.doAuthRegister(a[1])
			}
			return e.doAuthLogin(a[1])
		case "logout":
			return e.doAuthLogout(ctx)
		case "status":
			return e.doAuthStatus()
		case "whoami":
			return e.doAuthWhoAmI()
		default:
			ui.Fail("usage: amped auth <register|login|logout|status|whoami>")
			return 2
		}
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprintf(ui.Stdout, `amped - todos, in sync

Usage:
  amped [flags] [subcommand] [args]

Subcommands:
  ui                          Interactive screen (default)
  ls                          List todos
  add <name> -- <description> Add a todo
  rm <index>                  Delete the todo at 1-based index
  clear                       Wipe the local cache
  auth register <email>       Create a local account
  auth login <email>          Sign in
  auth <logout|status|whoami> Session management
  config init [--force]       Write the effective config to the config file
  config path                 Print the config file location

Flags:
  -config <path>              Config file (default %s, or $%s)
  -theme <classic|neon|mono>  Color theme

Examples:
  amped auth register ada@example.com
  amped add "Buy milk" -- "2 liters, oat"
  amped ls
  amped rm 2
`, config.DefaultPath(), config.ConfigEnv)
}

// openDatastore picks the driver named in config.
func openDatastore(cfg config.Config) (datastore.Service, error) {
	switch strings.ToLower(cfg.Datastore.Driver) {
	case "json":
		return jsonstore.Open(cfg.Datastore.Path)
	default:
		return sqlstore.Open(cfg.Datastore.Path)
	}
}

func (e *env) withDatastore(fn func(ds datastore.Service) int) int {
	ds, err := openDatastore(e.cfg)
	if err != nil {
		e.log.Error("open datastore: %v", err)
		ui.Fail("open datastore: " + err.Error())
		return 1
	}
	defer ds.Close()
	return fn(ds)
}

// requireSession is the gate for every data command.
func (e *env) requireSession() (*auth.Session, int) {
	s, err := e.auth.Require()
	switch {
	case err == nil:
		return s, 0
	case errors.Is(err, auth.ErrSessionExpired):
		ui.Fail("session expired. Run: amped auth login <email>")
	case errors.Is(err, auth.ErrNotSignedIn):
		ui.Fail("not signed in. Set " + auth.TokenEnv + " or run `amped auth login <email>`")
	default:
		ui.Fail("session: " + err.Error())
		return nil, 1
	}
	return nil, 2
}

// -------------- subcommand impls ----------------

func (e *env) doUI(ctx context.Context) int {
	return e.withDatastore(func(ds datastore.Service) int {
		if err := screen.Run(ctx, ds, e.auth, e.log); err != nil {
			e.log.Error("tui: %v", err)
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	})
}

func (e *env) doList(ctx context.Context) int {
	s, code := e.requireSession()
	if s == nil {
		return code
	}
	return e.withDatastore(func(ds datastore.Service) int {
		items, err := ds.List(ctx)
		if err != nil {
			ui.Fail("load: " + err.Error())
			return 1
		}
		t := ui.Current()
		lines := []string{
			fmt.Sprintf("%s  %s %d", t.Title.Render("Todos"), t.Accent.Render("Total"), len(items)),
			t.Muted.Render("signed in as " + s.Label()),
			"",
		}
		lines = append(lines, itemLines(items)...)
		lines = append(lines, "", t.Muted.Render("Tip: add with `amped add \"Buy milk\" -- \"2 liters\"`"))
		ui.Panel(lines)
		return 0
	})
}

func (e *env) doAdd(ctx context.Context, name, desc string) int {
	if s, code := e.requireSession(); s == nil {
		return code
	}
	item, err := screen.FormState{Name: name, Description: desc}.Validate()
	if err != nil {
		ui.Fail("add: " + err.Error())
		return 2
	}
	return e.withDatastore(func(ds datastore.Service) int {
		if _, err := ds.Save(ctx, item); err != nil {
			e.log.Error("error creating todo: %v", err)
			ui.Fail("save: " + err.Error())
			return 1
		}
		ui.OK("added")
		return 0
	})
}

func (e *env) doRemove(ctx context.Context, userIndex int) int {
	if s, code := e.requireSession(); s == nil {
		return code
	}
	return e.withDatastore(func(ds datastore.Service) int {
		items, err := ds.List(ctx)
		if err != nil {
			ui.Fail("load: " + err.Error())
			return 1
		}
		if userIndex < 1 || userIndex > len(items) {
			ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
			ui.Hint("Hint: run `amped ls` to see valid indexes")
			return 2
		}
		ctrl := screen.NewController(liststore.New(), ds, e.auth, e.log)
		if err := ctrl.Delete(ctx, items[userIndex-1].ID); err != nil {
			ui.Fail("rm: " + err.Error())
			return 1
		}
		ui.OK("removed")
		return 0
	})
}

func (e *env) doClear(ctx context.Context) int {
	return e.withDatastore(func(ds datastore.Service) int {
		if err := ds.Clear(ctx); err != nil {
			ui.Fail("clear: " + err.Error())
			return 1
		}
		ui.OK("local cache cleared")
		return 0
	})
}

// doConfigInit writes the effective config (file, env and flags merged) so
// it can be edited by hand. An existing file is kept unless force is set.
func (e *env) doConfigInit(opt Options, force bool) int {
	path := config.Resolve(opt.ConfigPath)
	if _, err := os.Stat(path); err == nil && !force {
		ui.Fail("config already exists: " + path)
		ui.Hint("Hint: pass --force to overwrite it")
		return 1
	}
	cfg := e.cfg
	if opt.Theme != "" {
		cfg.UI.Theme = opt.Theme
	}
	if err := config.Save(path, cfg); err != nil {
		e.log.Error("save config: %v", err)
		ui.Fail(err.Error())
		return 1
	}
	ui.OK("wrote " + path)
	return 0
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func (e *env) doAuthRegister(email string) int {
	password, err := prompt("Choose a password: ")
	if err != nil {
		ui.Fail("read password: " + err.Error())
		return 1
	}
	if err := e.auth.Register(email, password); err != nil {
		ui.Fail("register: " + err.Error())
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return 2
		}
		return 1
	}
	ui.OK("account created; run `amped auth login " + strings.TrimSpace(email) + "`")
	return 0
}

func (e *env) doAuthLogin(email string) int {
	password, err := prompt("Password: ")
	if err != nil {
		ui.Fail("read password: " + err.Error())
		return 1
	}
	s, err := e.auth.SignIn(email, password)
	if err != nil {
		e.log.Warn("sign in failed for %s: %v", email, err)
		ui.Fail("login: " + err.Error())
		return 1
	}
	ui.OK("signed in as " + s.Label())
	return 0
}

func (e *env) doAuthLogout(ctx context.Context) int {
	return e.withDatastore(func(ds datastore.Service) int {
		removed, err := e.auth.SignOut(ctx, ds)
		if err != nil {
			ui.Fail("logout: " + err.Error())
			return 1
		}
		if !removed {
			ui.OK("local cache cleared; token is provided by " + auth.TokenEnv + " env var (nothing to delete)")
			return 0
		}
		ui.OK("signed out")
		return 0
	})
}

func (e *env) doAuthStatus() int {
	s, err := e.auth.Current()
	if err != nil {
		ui.Fail("session: " + err.Error())
		return 1
	}
	if s == nil {
		fmt.Fprintln(ui.Stdout, ui.Current().Muted.Render("not signed in"))
		fmt.Fprintln(ui.Stdout, "Run: amped auth login <email>")
		return 0
	}
	fmt.Fprintf(ui.Stdout, "user: %s\n", s.Label())
	fmt.Fprintf(ui.Stdout, "source: %s\n", s.Source)
	if s.ExpiresAt != nil {
		fmt.Fprintf(ui.Stdout, "expires: %s\n", s.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(ui.Stdout, "expires: (never)")
	}
	fmt.Fprintln(ui.Stdout, "env override: "+auth.TokenEnv)
	return 0
}

// whoami decodes a JWT locally (unverified); opaque tokens print basic info.
func (e *env) doAuthWhoAmI() int {
	s, code := e.requireSession()
	if s == nil {
		return code
	}
	if p, ok := auth.DecodeJWTPayload(s.Token); ok {
		fmt.Fprintln(ui.Stdout, "JWT payload:")
		fmt.Fprintln(ui.Stdout, p)
		return 0
	}
	fmt.Fprintln(ui.Stdout, s.Label())
	fmt.Fprintln(ui.Stdout, "source:", s.Source)
	return 0
}

// -------------- helpers --------------

// splitAddArgs reads `<name...> -- <description...>`; without a separator
// the first arg is the name and the rest is the description.
func splitAddArgs(a []string) (name, desc string) {
	for i, s := range a {
		if s == "--" {
			return strings.Join(a[:i], " "), strings.Join(a[i+1:], " ")
		}
	}
	if len(a) == 0 {
		return "", ""
	}
	return a[0], strings.Join(a[1:], " ")
}

func prompt(label string) (string, error) {
	fmt.Fprint(ui.Stdout, label)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func itemLines(items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		out = append(out, fmt.Sprintf("%s %s %s  %s",
			t.Muted.Render(idx), t.Accent.Render(t.SymItem),
			ui.Truncate(it.Name, 40), t.Muted.Render(ui.Truncate(it.Description, 60))))
	}
	return out
}
