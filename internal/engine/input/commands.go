package input

import "github.com/veandco/go-sdl2/sdl"

// Command is a viewer action bound to a key.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandNextClip
	CommandNoClip
	CommandRestart
	CommandResetCamera
	CommandScreenshot
)

var commandNames = map[Command]string{
	CommandNone:        "none",
	CommandQuit:        "quit",
	CommandNextClip:    "next-clip",
	CommandNoClip:      "no-clip",
	CommandRestart:     "restart",
	CommandResetCamera: "reset-camera",
	CommandScreenshot:  "screenshot",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Bindings maps scancodes to commands.
var Bindings = map[sdl.Scancode]Command{
	sdl.SCANCODE_ESCAPE: CommandQuit,
	sdl.SCANCODE_SPACE:  CommandNextClip,
	sdl.SCANCODE_N:      CommandNoClip,
	sdl.SCANCODE_R:      CommandRestart,
	sdl.SCANCODE_C:      CommandResetCamera,
	sdl.SCANCODE_P:      CommandScreenshot,
}

// CommandFor returns the command bound to key.
func CommandFor(key sdl.Scancode) Command {
	return Bindings[key]
}
