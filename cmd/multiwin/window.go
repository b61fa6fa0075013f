package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/multiwin/internal/channel"
	"github.com/1broseidon/multiwin/internal/ipc"
)

// simpleOps are methods that take only a window id.
var simpleOps = map[string]bool{
	"show":       true,
	"hide":       true,
	"focus":      true,
	"center":     true,
	"maximize":   true,
	"unmaximize": true,
	"minimize":   true,
}

func printWindowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  multiwin window new [--prompt] [arguments]")
	fmt.Fprintln(w, "  multiwin window list [--json]")
	fmt.Fprintln(w, "  multiwin window invoke [--arg key=value ...] <id> <method>")
	fmt.Fprintln(w, "  multiwin window close <id>")
	fmt.Fprintln(w, "  multiwin window show|hide|focus|center|maximize|unmaximize|minimize <id>")
	fmt.Fprintln(w, "  multiwin window title <id> <title>")
	fmt.Fprintln(w, "  multiwin window frame <id> [x y width height]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "frame <id> prints the getFrame result; frame <id> x y width height calls setFrame.")
	fmt.Fprintln(w, channel.FrameOrigins)
	fmt.Fprintln(w, "Methods: "+strings.Join(channel.Methods(), ", "))
}

// windowClient is the slice of the IPC client the window commands use.
type windowClient interface {
	CreateWindow(arguments string) (*ipc.CreateWindowData, error)
	Invoke(windowID int64, method string, args map[string]any) (json.RawMessage, error)
	CloseWindow(windowID int64) error
}

func runWindow(args []string) int {
	if len(args) == 0 {
		printWindowUsage(os.Stderr)
		return 2
	}
	if isHelp(args) {
		printWindowUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "new":
		return runWindowNew(client, args[1:])
	case "list":
		return runWindowList(client, args[1:])
	case "invoke":
		return runWindowInvoke(client, args[1:])
	case "close":
		id, ok := windowIDArg("close", args[1:])
		if !ok {
			return 2
		}
		if err := client.CloseWindow(id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	case "title":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "window title requires <id> <title>")
			return 2
		}
		id, ok := windowIDArg("title", args[1:2])
		if !ok {
			return 2
		}
		return printInvoke(client, id, "setTitle", map[string]any{"title": args[2]})
	case "frame":
		return runWindowFrame(client, args[1:])
	}

	if simpleOps[args[0]] {
		id, ok := windowIDArg(args[0], args[1:])
		if !ok {
			return 2
		}
		return printInvoke(client, id, args[0], nil)
	}

	fmt.Fprintf(os.Stderr, "Unknown window command: %s\n\n", args[0])
	printWindowUsage(os.Stderr)
	return 2
}

func runWindowNew(client windowClient, args []string) int {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin window new [--prompt] [arguments]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Create a window. Arguments are handed to the window's engine entrypoint.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	prompt := fs.Bool("prompt", false, "Prompt for the engine arguments")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	arguments := strings.Join(fs.Args(), " ")
	if *prompt {
		err := huh.NewInput().
			Title("Engine arguments").
			Description("Passed to the new window's engine entrypoint").
			Value(&arguments).
			Run()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	data, err := client.CreateWindow(arguments)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("window_id: %d\n", data.WindowID)
	fmt.Printf("channel:   %s\n", data.Channel)
	return 0
}

func runWindowList(client *ipc.Client, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output window details as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	windows, err := client.ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	for _, w := range windows {
		x, y, width, height := w.Frame.Ints()
		flags := w.State
		if w.Maximized {
			flags += ",maximized"
		}
		fmt.Printf("%d\t%s\t%dx%d+%d+%d\t%q\n", w.ID, flags, width, height, x, y, w.Title)
	}
	return 0
}

// argList collects repeated --arg key=value flags.
type argList []string

func (a *argList) String() string     { return strings.Join(*a, ",") }
func (a *argList) Set(v string) error { *a = append(*a, v); return nil }

func runWindowInvoke(client windowClient, args []string) int {
	fs := flag.NewFlagSet("invoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin window invoke [--arg key=value ...] <id> <method>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Values are decoded as JSON when possible, otherwise passed as strings.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	var kv argList
	fs.Var(&kv, "arg", "Method argument as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "window invoke requires <id> <method>")
		fs.Usage()
		return 2
	}
	id, ok := windowIDArg("invoke", fs.Args()[:1])
	if !ok {
		return 2
	}
	methodArgs, err := parseMethodArgs(kv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return printInvoke(client, id, fs.Arg(1), methodArgs)
}

func runWindowFrame(client windowClient, args []string) int {
	switch len(args) {
	case 1:
		id, ok := windowIDArg("frame", args)
		if !ok {
			return 2
		}
		return printInvoke(client, id, "getFrame", nil)
	case 5:
		id, ok := windowIDArg("frame", args[:1])
		if !ok {
			return 2
		}
		frame, err := parseFrame(args[1:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return printInvoke(client, id, "setFrame", frame)
	default:
		fmt.Fprintln(os.Stderr, "window frame requires <id> or <id> <x> <y> <width> <height>")
		return 2
	}
}

func printInvoke(client windowClient, id int64, method string, args map[string]any) int {
	result, err := client.Invoke(id, method, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(result) > 0 && string(result) != "null" {
		fmt.Println(string(result))
	}
	return 0
}

func windowIDArg(cmd string, args []string) (int64, bool) {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "window %s requires <id>\n", cmd)
		return 0, false
	}
	id, err := parseWindowID(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 0, false
	}
	return id, true
}

func parseWindowID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return id, nil
}

// parseMethodArgs turns key=value pairs into an argument map. Values that
// parse as JSON keep their type.
func parseMethodArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q (want key=value)", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

func parseFrame(fields []string) (map[string]any, error) {
	names := []string{"x", "y", "width", "height"}
	out := make(map[string]any, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", name, fields[i])
		}
		out[name] = v
	}
	return out, nil
}
