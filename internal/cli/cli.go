package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandParty      Command = "party"
	CommandStatus     Command = "status"
	CommandExtinguish Command = "extinguish"
	CommandBlow       Command = "blow"
	CommandRelight    Command = "relight"
	CommandMic        Command = "mic"
	CommandCandles    Command = "candles"
	CommandMessage    Command = "message"
	CommandDismiss    Command = "dismiss"
	CommandFlower     Command = "flower"
	CommandReplay     Command = "replay"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

type arity struct {
	min, max int
}

var validCommands = map[Command]arity{
	CommandParty:      {},
	CommandStatus:     {},
	CommandExtinguish: {1, 1},
	CommandBlow:       {},
	CommandRelight:    {},
	CommandMic:        {1, 1},
	CommandCandles:    {1, 1},
	CommandMessage:    {1, -1},
	CommandDismiss:    {},
	CommandFlower:     {0, 1},
	CommandReplay:     {1, 1},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	Headless   bool
	// Arg is the command argument; for extinguish, Index holds it zero-based.
	Arg   string
	Index int
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			want, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			return parseOperands(parsed, want, args[i+1:])
		}
	}

	return parsed, nil
}

func parseOperands(parsed Parsed, want arity, rest []string) (Parsed, error) {
	if parsed.Command == CommandParty {
		for _, arg := range rest {
			if arg != "--headless" {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}
			parsed.Headless = true
		}
		return parsed, nil
	}

	if len(rest) < want.min {
		return Parsed{}, fmt.Errorf("command %q requires an argument", parsed.Command)
	}
	if want.max >= 0 && len(rest) > want.max {
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
	}
	parsed.Arg = strings.Join(rest, " ")

	switch parsed.Command {
	case CommandExtinguish:
		n, err := strconv.Atoi(parsed.Arg)
		if err != nil || n < 1 {
			return Parsed{}, fmt.Errorf("candle must be a number starting at 1, got %q", parsed.Arg)
		}
		parsed.Index = n - 1
	case CommandCandles:
		if _, err := strconv.Atoi(parsed.Arg); err != nil {
			return Parsed{}, fmt.Errorf("candle count must be a number, got %q", parsed.Arg)
		}
	case CommandMic:
		switch parsed.Arg {
		case "on", "off", "toggle":
		default:
			return Parsed{}, fmt.Errorf("mic expects on, off, or toggle, got %q", parsed.Arg)
		}
	case CommandFlower:
		if parsed.Arg != "" && parsed.Arg != "reset" {
			return Parsed{}, fmt.Errorf("flower expects no argument or reset, got %q", parsed.Arg)
		}
	}
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [argument]

Commands:
  party [--headless]   Light the cake and run the party (owns the control socket)
  status               Print the running party's state
  extinguish <n>       Blow out candle n (counting from 1)
  blow                 Blow, as if into the microphone
  relight              Relight every candle
  mic <on|off|toggle>  Turn microphone blow detection on or off
  candles <n>          Rebuild the cake with n candles (1-20)
  message <text>       Set the celebration message
  dismiss              Close the celebration overlay
  flower [reset]       Reveal the next bouquet flower, or hide them all
  replay <file.wav>    Run blow detection over a recording and print events
  devices              List available input devices
  doctor               Run configuration and environment checks
  version              Print version information
  help                 Show this help

Flags:
  --config PATH   Config file, JSONC or YAML by extension
                  (default: $XDG_CONFIG_HOME/cakemic/config.{jsonc,yaml,yml})
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
