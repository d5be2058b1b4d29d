package tui

const (
	keyQuit    = "ctrl+c"
	keySubmit  = "enter"
	keyClear   = "esc"
	keyReplay  = "ctrl+r"
	keyToggle  = "ctrl+t"
	keyRetry   = "ctrl+y"
	keyEnd     = "ctrl+e"
	keyNext    = "ctrl+n"
	keyUp      = "up"
	keyDown    = "down"
	keyAltQuit = "q"
)

const helpLine = "enter submit · esc clear · ctrl+r replay · ctrl+t mic on/off · ctrl+y retry mic · ctrl+n refetch question · ctrl+e end · ctrl+c quit"
