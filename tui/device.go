package tui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/padl/surrogate/engine"
)

// DeviceTab shows the emulated device's identity and registry state.
type DeviceTab struct {
	view       *tview.TextView
	controller *engine.Controller
}

func NewDeviceTab(c *engine.Controller) *DeviceTab {
	t := &DeviceTab{controller: c}
	t.view = tview.NewTextView().SetDynamicColors(true)
	t.view.SetBorder(true).SetTitle(boxTitle(tabDevice))
	t.Refresh()
	return t
}

func (t *DeviceTab) Refresh() {
	t.view.Clear()
	if t.controller == nil {
		return
	}
	opts := t.controller.GetOptions()
	reg := t.controller.Registry

	masterName := "none"
	if reg != nil {
		if m := reg.Master(); m != nil {
			masterName = m.Name
		}
	}
	peerCount := 0
	aliveTime := 0
	if reg != nil {
		peerCount = len(reg.Peers())
		aliveTime = reg.AliveTime()
	}

	fmt.Fprintf(t.view, "%sDevice ID%s      %d\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.DeviceID)
	fmt.Fprintf(t.view, "%sDevice Name%s    %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.DeviceName)
	fmt.Fprintf(t.view, "%sModel%s          %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.ModelID)
	fmt.Fprintf(t.view, "%sSerial%s         %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.SerialNumber)
	fmt.Fprintf(t.view, "%sSystem/Version%s %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.SystemTypeAndVersion)
	fmt.Fprintf(t.view, "%sCPU FW%s         %s %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.CPUFirmwareTag, opts.CPUFirmwareVersion)
	fmt.Fprintf(t.view, "%sRecovery FW%s    %s %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, opts.RecoveryFirmwareTag, opts.RecoveryFirmwareVersion)
	fmt.Fprintf(t.view, "\n")
	fmt.Fprintf(t.view, "%sPeers%s          %d\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, peerCount)
	fmt.Fprintf(t.view, "%sMaster%s         %s\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, masterName)
	fmt.Fprintf(t.view, "%sAlive Time%s     %ds\n", CurrentTheme.TagAccent, CurrentTheme.TagReset, aliveTime)
}

func (t *DeviceTab) GetPrimitive() tview.Primitive { return t.view }
func (t *DeviceTab) GetFocusable() tview.Primitive { return t.view }
