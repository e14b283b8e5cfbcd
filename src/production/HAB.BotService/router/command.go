package router

import (
	"strings"

	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

// Command is a menu action the bot can perform
type Command int

const (
	CommandUnknown Command = iota
	CommandStart
	CommandSystemInfo
	CommandTunnels
	CommandSolar
	CommandMenu
)

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandSystemInfo:
		return "system_info"
	case CommandTunnels:
		return "tunnels"
	case CommandSolar:
		return "solar"
	case CommandMenu:
		return "menu"
	default:
		return "unknown"
	}
}

// Callback data emitted by the inline keyboards
const (
	DataSystemInfo = "sys_info"
	DataTunnels    = "ng_info"
	DataSolar      = "sol_info"
	DataMenu       = "menu"
)

var slashCommands = map[string]Command{
	"start": CommandStart,
}

// callbackPrefixes is matched in order against callback data
var callbackPrefixes = []struct {
	prefix  string
	command Command
}{
	{DataSystemInfo, CommandSystemInfo},
	{DataTunnels, CommandTunnels},
	{DataSolar, CommandSolar},
	{DataMenu, CommandMenu},
}

// ParseCommand resolves an interaction to a Command, or CommandUnknown
func ParseCommand(in habmodels.Inbound) Command {
	switch in.Kind {
	case habmodels.InboundCommand:
		if cmd, ok := slashCommands[in.Command]; ok {
			return cmd
		}
	case habmodels.InboundCallback:
		for _, p := range callbackPrefixes {
			if strings.HasPrefix(in.Data, p.prefix) {
				return p.command
			}
		}
	}
	return CommandUnknown
}

// MainMenu is the keyboard shown with the Home-Ant menu
func MainMenu() habmodels.Keyboard {
	return habmodels.Keyboard{
		{{Text: "⛰️ Ngrok", Data: DataTunnels}},
		{{Text: "🖥️ System Info", Data: DataSystemInfo}},
		{{Text: "☀️ Solar Status", Data: DataSolar}},
	}
}

// BackKeyboard is attached to every report view
func BackKeyboard() habmodels.Keyboard {
	return habmodels.Keyboard{{{Text: "🔙 Menu", Data: DataMenu}}}
}
