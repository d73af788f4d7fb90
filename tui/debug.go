package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// DebugTab shows a scrolling feed of log lines drawn from a DebugLogStore.
// New entries are buffered as they arrive and only rendered into the
// TextView from Refresh, which the owning App calls on the UI goroutine via
// QueueUpdateDraw; this keeps the background subscriber goroutine from
// touching tview widgets directly.
type DebugTab struct {
	view   *tview.TextView
	store  *DebugLogStore
	cancel func()

	mu       sync.Mutex
	lines    []string
	maxLines int
}

func NewDebugTab(store *DebugLogStore) *DebugTab {
	t := &DebugTab{store: store, maxLines: 1000}

	t.view = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	t.view.SetBorder(true).SetTitle(boxTitle(tabDebug))

	for _, e := range store.Snapshot() {
		t.append(e)
	}
	t.Refresh()

	ch, cancel := store.Subscribe()
	t.cancel = cancel
	go func() {
		for e := range ch {
			t.append(e)
		}
	}()

	t.view.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'c':
			t.clear()
			return nil
		case 'G':
			t.view.ScrollToEnd()
			return nil
		case 'g':
			t.view.ScrollToBeginning()
			return nil
		}
		return event
	})

	return t
}

func (t *DebugTab) append(e LogEntry) {
	tag := CurrentTheme.TagText
	if e.IsErr {
		tag = CurrentTheme.TagError
	}
	line := fmt.Sprintf("%s%s%s [%s] %s", CurrentTheme.TagTextDim, time.Now().Format("15:04:05.000"), CurrentTheme.TagReset,
		e.Source, tag+e.Text+CurrentTheme.TagReset)

	t.mu.Lock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.maxLines {
		t.lines = t.lines[len(t.lines)-t.maxLines:]
	}
	t.mu.Unlock()
}

func (t *DebugTab) clear() {
	t.mu.Lock()
	t.lines = nil
	t.mu.Unlock()
	t.view.Clear()
}

// Refresh redraws the view from the buffered lines. Must be called from the
// UI goroutine (e.g. via Application.QueueUpdateDraw).
func (t *DebugTab) Refresh() {
	t.mu.Lock()
	text := ""
	for _, l := range t.lines {
		text += l + "\n"
	}
	t.mu.Unlock()

	t.view.SetText(text)
	t.view.ScrollToEnd()
}

func (t *DebugTab) GetPrimitive() tview.Primitive { return t.view }
func (t *DebugTab) GetFocusable() tview.Primitive { return t.view }

func (t *DebugTab) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}
