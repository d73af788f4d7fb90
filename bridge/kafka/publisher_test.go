package kafka

import "testing"

func TestManagerStartAllSkipsDisabled(t *testing.T) {
	m := NewManager()
	m.Add(NewPublisher(Config{Name: "disabled", Enabled: false}))
	if started := m.StartAll(); started != 0 {
		t.Errorf("started = %d, want 0", started)
	}
}

func TestNameReturnsConfiguredName(t *testing.T) {
	p := NewPublisher(Config{Name: "primary", Topic: "surrogate.events"})
	if got := p.Name(); got != "primary" {
		t.Errorf("Name() = %q, want %q", got, "primary")
	}
}

func TestForwardNoOpWhenNotRunning(t *testing.T) {
	p := NewPublisher(Config{Name: "idle", Topic: "surrogate.events"})
	p.Forward(0, nil)
	if p.IsRunning() {
		t.Errorf("IsRunning() = true, want false")
	}
}
