package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/padl/surrogate/engine"
)

// PeersTab lists connected peers and their port status, refreshed on a
// timer from the controller's registry.
type PeersTab struct {
	view       *tview.Table
	controller *engine.Controller
}

func NewPeersTab(c *engine.Controller) *PeersTab {
	t := &PeersTab{controller: c}

	t.view = tview.NewTable().SetBorders(false).SetFixed(1, 0)
	t.view.SetBorder(true).SetTitle(boxTitle(tabPeers))
	t.setHeader()
	t.Refresh()

	return t
}

func (t *PeersTab) setHeader() {
	headers := []string{"Address", "Status", "Master", "Last Activity"}
	for col, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(CurrentTheme.Accent).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold)
		t.view.SetCell(0, col, cell)
	}
}

func (t *PeersTab) Refresh() {
	if t.controller == nil || t.controller.Registry == nil {
		return
	}
	peers := t.controller.Registry.Peers()

	for t.view.GetRowCount() > 1 {
		t.view.RemoveRow(t.view.GetRowCount() - 1)
	}

	row := 1
	for _, p := range peers {
		isMaster := "-"
		if t.controller.Registry.IsMaster(p) {
			isMaster = "yes"
		}
		last := "-"
		if !p.LastActivity.IsZero() {
			last = p.LastActivity.Format(time.RFC3339)
		}
		t.view.SetCell(row, 0, tview.NewTableCell(p.Name))
		t.view.SetCell(row, 1, tview.NewTableCell(p.Status.String()))
		t.view.SetCell(row, 2, tview.NewTableCell(isMaster))
		t.view.SetCell(row, 3, tview.NewTableCell(last))
		row++
	}
	if row == 1 {
		t.view.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%sno peers connected%s", CurrentTheme.TagTextDim, CurrentTheme.TagReset)))
	}
}

func (t *PeersTab) GetPrimitive() tview.Primitive { return t.view }
func (t *PeersTab) GetFocusable() tview.Primitive { return t.view }
