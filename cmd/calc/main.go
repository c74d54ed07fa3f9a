// Command calc is a terminal keypad over one persisted calculator session.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/store"
	"go-chi-calculator/internal/theme"
	"go-chi-calculator/internal/widget"
)

const prompt = "calc> "

// terminalSession is stable across runs so a sqlite store restores the
// last session. CALC_SESSION overrides it.
var terminalSession = uuid.NewSHA1(uuid.NameSpaceURL, []byte("go-chi-calculator:terminal")).String()

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "calc:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load("", os.Getenv)
	if err != nil {
		return err
	}
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	defer observability.SyncLogger()

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := widget.NewRegistry(st, cfg.DefaultTheme(), observability.Logger)
	if cfg.Theme.SignalFile != "" {
		src, err := theme.NewFileSource(cfg.Theme.SignalFile, observability.Logger)
		if err != nil {
			return err
		}
		go src.Run(ctx)
		go registry.FollowSystemTheme(ctx, src)
	}

	id := terminalSession
	if v := os.Getenv("CALC_SESSION"); v != "" {
		id = v
	}
	session, err := registry.Get(ctx, id)
	if err != nil {
		return err
	}

	return repl(ctx, session, os.Stdout)
}

func repl(ctx context.Context, session *widget.Session, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), ".calc_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "Keys: 0-9 . + - * / = c (clear) n (sign). Commands: :theme light|dark|toggle, :quit")
	render(out, session.View())

	for ctx.Err() == nil {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if dispatch(ctx, session, input, out) {
			return nil
		}
	}
	return nil
}

// dispatch handles one input line and reports whether the user asked to
// quit. Key sequences stop at the first failing key; the view rendered is
// the session state after it.
func dispatch(ctx context.Context, session *widget.Session, input string, out io.Writer) bool {
	if strings.HasPrefix(input, ":") {
		quit, err := command(ctx, session, input, out)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		return quit
	}

	keys, err := widget.ParseKeys(input)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return false
	}
	view := session.View()
	for _, k := range keys {
		view, err = session.Press(ctx, k)
		if err != nil {
			observability.Logger.Debug("key failed", zap.String("key", k.String()), zap.Error(err))
			fmt.Fprintln(out, "error:", err)
			break
		}
	}
	render(out, view)
	return false
}

func command(ctx context.Context, session *widget.Session, input string, out io.Writer) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":quit", ":q":
		return true, nil
	case ":theme":
		if len(fields) != 2 {
			return false, errors.New("usage: :theme light|dark|toggle")
		}
		var (
			view widget.View
			err  error
		)
		if fields[1] == "toggle" {
			view, err = session.ToggleTheme(ctx)
		} else {
			t, perr := theme.ParseTheme(fields[1])
			if perr != nil {
				return false, perr
			}
			view, err = session.SetTheme(ctx, t)
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, "theme:", view.Theme)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

func render(out io.Writer, v widget.View) {
	fmt.Fprintf(out, "%s | %s\n", v.Equation, v.Display)
}
