package tui

// Tab titles and their one-letter hotkeys, used both for direct-jump key
// handling and for rendering the tab header.
const (
	tabPeers = "Peers"
	tabDevice = "Device"
	tabDebug  = "Debug"
)

var tabOrder = []string{tabPeers, tabDevice, tabDebug}

var tabHotkeys = map[rune]string{
	'p': tabPeers,
	'd': tabDevice,
	'g': tabDebug,
}

const helpText = `
 Surrogate TUI

 Tab / Shift+Tab   switch tabs
 p                 jump to Peers
 d                 jump to Device
 g                 jump to Debug log
 t                 cycle color theme
 ?                 toggle this help
 q / Ctrl+C        quit
`

func boxTitle(label string) string {
	return " " + label + " "
}
