package stream

import "testing"

func TestManagerStartAllSkipsDisabled(t *testing.T) {
	m := NewManager()
	m.Add(NewPublisher(Config{Name: "disabled", Enabled: false}))
	if started := m.StartAll(); started != 0 {
		t.Errorf("started = %d, want 0", started)
	}
}

func TestForwardNoOpWhenNotRunning(t *testing.T) {
	s := NewPublisher(Config{Name: "idle", ListenAddr: "127.0.0.1:0"})
	s.Forward(0, nil)
	if s.HasClients() {
		t.Errorf("HasClients() = true, want false")
	}
}

func TestNameReturnsConfiguredName(t *testing.T) {
	s := NewPublisher(Config{Name: "notify"})
	if got := s.Name(); got != "notify" {
		t.Errorf("Name() = %q, want %q", got, "notify")
	}
}
