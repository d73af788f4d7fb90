package redis

import "testing"

func TestManagerStartAllSkipsDisabled(t *testing.T) {
	m := NewManager()
	m.Add(NewPublisher(Config{Name: "disabled", Enabled: false}))
	if started := m.StartAll(); started != 0 {
		t.Errorf("started = %d, want 0", started)
	}
}

func TestNameReturnsConfiguredName(t *testing.T) {
	p := NewPublisher(Config{Name: "primary"})
	if got := p.Name(); got != "primary" {
		t.Errorf("Name() = %q, want %q", got, "primary")
	}
}
