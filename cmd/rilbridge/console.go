package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/spf13/cast"
	"github.com/younglifestyle/rilbridge/common"
	"github.com/younglifestyle/rilbridge/ril"
	"go.uber.org/atomic"
)

var errUsage = errors.New("usage")

// consoleFramework stands in for the telephony framework: completions and
// unsolicited events are printed.
type consoleFramework struct {
	mu     sync.Mutex
	out    io.Writer
	logger common.Logger
}

func newConsoleFramework(out io.Writer, logger common.Logger) *consoleFramework {
	return &consoleFramework{out: out, logger: common.OrNop(logger)}
}

func (f *consoleFramework) setOutput(out io.Writer) {
	f.mu.Lock()
	f.out = out
	f.mu.Unlock()
}

func (f *consoleFramework) OnRequestComplete(token ril.Token, status ril.Status, payload interface{}) {
	f.logger.Debug("request complete", "token", token, "status", status)
	f.printf("< [%d] %s %s\n", token, status, formatPayload(payload))
}

func (f *consoleFramework) OnUnsolicitedResponse(event ril.Unsolicited, payload interface{}) {
	f.logger.Debug("unsolicited", "event", event)
	f.printf("< %s %s\n", event, formatPayload(payload))
}

func (f *consoleFramework) printf(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.out, format, args...)
}

func formatPayload(payload interface{}) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case []ril.DataCall:
		parts := make([]string, 0, len(v))
		for _, c := range v {
			parts = append(parts, formatDataCall(c))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case ril.DataCall:
		return formatDataCall(v)
	case []string:
		return strings.Join(v, " ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatDataCall(c ril.DataCall) string {
	return fmt.Sprintf("{cid=%d active=%d apn=%s if=%s addr=%s gw=%s dns=%s}",
		c.CID, c.Active, c.APN, c.Interface, c.Address, c.Gateway, strings.Join(c.DNS, ","))
}

// consoleCommand is one parsed console line.
type consoleCommand struct {
	request ril.RequestID
	data    interface{}
	cancel  bool
	token   ril.Token
}

type commandEntry struct {
	usage string
	parse func(args []string) (consoleCommand, error)
}

var commands = map[string]commandEntry{
	"setup": {
		usage: "setup <apn> [user] [password]",
		parse: func(args []string) (consoleCommand, error) {
			if len(args) < 1 {
				return consoleCommand{}, errUsage
			}
			data := []string{"1", "0", args[0], "", "", "0", "IP"}
			if len(args) > 1 {
				data[3] = args[1]
			}
			if len(args) > 2 {
				data[4] = args[2]
			}
			return consoleCommand{request: ril.RequestSetupDataCall, data: data}, nil
		},
	},
	"deactivate": {
		usage: "deactivate <cid>",
		parse: func(args []string) (consoleCommand, error) {
			if len(args) != 1 {
				return consoleCommand{}, errUsage
			}
			return consoleCommand{request: ril.RequestDeactivateDataCall, data: []string{args[0]}}, nil
		},
	},
	"list": {
		usage: "list",
		parse: noArgs(ril.RequestDataCallList),
	},
	"failcause": {
		usage: "failcause",
		parse: noArgs(ril.RequestLastDataCallFailCause),
	},
	"baseband": {
		usage: "baseband",
		parse: noArgs(ril.RequestBasebandVersion),
	},
	"pin": {
		usage: "pin <code>",
		parse: func(args []string) (consoleCommand, error) {
			if len(args) != 1 {
				return consoleCommand{}, errUsage
			}
			return consoleCommand{request: ril.RequestEnterSimPin, data: []string{args[0]}}, nil
		},
	},
	"ussd": {
		usage: "ussd <text>",
		parse: func(args []string) (consoleCommand, error) {
			if len(args) == 0 {
				return consoleCommand{}, errUsage
			}
			return consoleCommand{request: ril.RequestSendUSSD, data: strings.Join(args, " ")}, nil
		},
	},
	"power": {
		usage: "power on|off",
		parse: func(args []string) (consoleCommand, error) {
			if len(args) != 1 {
				return consoleCommand{}, errUsage
			}
			switch strings.ToLower(args[0]) {
			case "on":
				return consoleCommand{request: ril.RequestRadioPower, data: []string{"1"}}, nil
			case "off":
				return consoleCommand{request: ril.RequestRadioPower, data: []string{"0"}}, nil
			}
			return consoleCommand{}, errUsage
		},
	},
	"cancel": {
		usage: "cancel <token>",
		parse: func(args []string) (consoleCommand, error) {
			if len(args) != 1 {
				return consoleCommand{}, errUsage
			}
			token, err := cast.ToUint64E(args[0])
			if err != nil {
				return consoleCommand{}, fmt.Errorf("token %q: %w", args[0], err)
			}
			return consoleCommand{cancel: true, token: ril.Token(token)}, nil
		},
	},
}

func noArgs(request ril.RequestID) func([]string) (consoleCommand, error) {
	return func(args []string) (consoleCommand, error) {
		if len(args) != 0 {
			return consoleCommand{}, errUsage
		}
		return consoleCommand{request: request}, nil
	}
}

func parseCommand(line string) (consoleCommand, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return consoleCommand{}, errUsage
	}
	entry, ok := commands[strings.ToLower(fields[0])]
	if !ok {
		return consoleCommand{}, fmt.Errorf("unknown command %q", fields[0])
	}
	cmd, err := entry.parse(fields[1:])
	if errors.Is(err, errUsage) {
		return cmd, fmt.Errorf("%w: %s", errUsage, entry.usage)
	}
	return cmd, err
}

// console reads commands and forwards them to the bridge as framework
// requests with increasing tokens.
type console struct {
	bridge    *ril.Bridge
	framework *consoleFramework
	logger    common.Logger
	tokens    *atomic.Uint64
	rl        *readline.Instance
}

func newConsole(bridge *ril.Bridge, framework *consoleFramework, logger common.Logger) (*console, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands)+2)
	for name := range commands {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("quit"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ril> ",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	framework.setOutput(rl.Stdout())
	return &console{
		bridge:    bridge,
		framework: framework,
		logger:    common.WithFields(common.OrNop(logger), "component", "console"),
		tokens:    atomic.NewUint64(0),
		rl:        rl,
	}, nil
}

// Run reads lines until EOF, quit or ctx ends.
func (c *console) Run(ctx context.Context) error {
	defer c.rl.Close()
	go func() {
		<-ctx.Done()
		_ = c.rl.Close()
	}()

	for {
		line, err := c.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			c.help()
			continue
		}

		if err := c.execute(line); err != nil {
			fmt.Fprintln(c.rl.Stdout(), err)
		}
	}
}

func (c *console) execute(line string) error {
	cmd, err := parseCommand(line)
	if err != nil {
		return err
	}
	if cmd.cancel {
		c.logger.Debug("cancel", "token", cmd.token)
		return c.bridge.Cancel(cmd.token)
	}
	token := ril.Token(c.tokens.Inc())
	fmt.Fprintf(c.rl.Stdout(), "> [%d] %s\n", token, cmd.request)
	return c.bridge.Request(token, cmd.request, cmd.data)
}

func (c *console) help() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	w := c.rl.Stdout()
	for _, name := range names {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
	fmt.Fprintln(w, "  help")
	fmt.Fprintln(w, "  quit")
}
