// Package tui implements the interactive terminal front end for
// surrogatetui: a tview application giving an operator a live look at
// connected peers, the emulated device's identity, and a scrolling debug
// log, without needing to watch raw protocol traffic on a terminal.
package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/padl/surrogate/engine"
)

type tab interface {
	GetPrimitive() tview.Primitive
	GetFocusable() tview.Primitive
}

// App is the root tview application wiring the controller's live state to
// the Peers, Device, and Debug tabs.
type App struct {
	controller *engine.Controller
	store      *DebugLogStore

	app       *tview.Application
	pages     *tview.Pages
	header    *tview.TextView
	statusBar *tview.TextView

	peersTab  *PeersTab
	deviceTab *DeviceTab
	debugTab  *DebugTab

	current  int
	showHelp bool

	stop chan struct{}
}

// New builds the application around a live controller. store may be nil,
// in which case a private log store with no external writers is used.
func New(c *engine.Controller, store *DebugLogStore) *App {
	if store == nil {
		store = NewDebugLogStore(500)
	}

	a := &App{
		controller: c,
		store:      store,
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		header:     tview.NewTextView().SetDynamicColors(true),
		statusBar:  tview.NewTextView().SetDynamicColors(true),
		stop:       make(chan struct{}),
	}

	a.peersTab = NewPeersTab(c)
	a.deviceTab = NewDeviceTab(c)
	a.debugTab = NewDebugTab(store)

	a.pages.AddPage(tabPeers, a.peersTab.GetPrimitive(), true, true)
	a.pages.AddPage(tabDevice, a.deviceTab.GetPrimitive(), true, false)
	a.pages.AddPage(tabDebug, a.debugTab.GetPrimitive(), true, false)

	a.renderHeader()
	a.renderStatus("ready")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(layout, true)
	a.app.SetInputCapture(a.handleKey)

	return a
}

func (a *App) tabs() []tab {
	return []tab{a.peersTab, a.deviceTab, a.debugTab}
}

func (a *App) renderHeader() {
	a.header.Clear()
	for i, name := range tabOrder {
		tag := CurrentTheme.TagTextDim
		if i == a.current {
			tag = CurrentTheme.TagAccent
		}
		fmt.Fprintf(a.header, " %s%s%s ", tag, name, CurrentTheme.TagReset)
	}
}

func (a *App) renderStatus(msg string) {
	a.statusBar.Clear()
	fmt.Fprintf(a.statusBar, "%s%s%s  [?] help  [q] quit", CurrentTheme.TagTextDim, msg, CurrentTheme.TagReset)
}

func (a *App) switchTo(index int) {
	if index < 0 || index >= len(tabOrder) {
		return
	}
	a.current = index
	a.pages.SwitchToPage(tabOrder[index])
	a.renderHeader()
	a.app.SetFocus(a.tabs()[index].GetFocusable())
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		a.switchTo((a.current + 1) % len(tabOrder))
		return nil
	case tcell.KeyBacktab:
		a.switchTo((a.current - 1 + len(tabOrder)) % len(tabOrder))
		return nil
	case tcell.KeyCtrlC:
		a.Stop()
		return nil
	}

	switch event.Rune() {
	case 'q':
		a.Stop()
		return nil
	case 't':
		name := NextTheme()
		a.renderHeader()
		a.renderStatus("theme: " + name)
		return nil
	case '?':
		a.toggleHelp()
		return nil
	}

	if name, ok := tabHotkeys[event.Rune()]; ok {
		for i, n := range tabOrder {
			if n == name {
				a.switchTo(i)
				return nil
			}
		}
	}

	return event
}

func (a *App) toggleHelp() {
	a.showHelp = !a.showHelp
	if !a.showHelp {
		a.pages.RemovePage("help")
		return
	}
	modal := tview.NewModal().
		SetText(helpText).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(int, string) {
			a.showHelp = false
			a.pages.RemovePage("help")
		})
	a.pages.AddPage("help", modal, true, true)
}

// Run starts the refresh loop and blocks until Stop is called or the
// application exits.
func (a *App) Run() error {
	go a.refreshLoop()
	return a.app.Run()
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.peersTab.Refresh()
				a.deviceTab.Refresh()
				a.debugTab.Refresh()
			})
		}
	}
}

// Stop shuts the application down cleanly.
func (a *App) Stop() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.debugTab.Close()
	a.app.Stop()
}
