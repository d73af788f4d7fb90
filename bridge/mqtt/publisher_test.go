package mqtt

import "testing"

func TestAddressFormatsSchemeByTLS(t *testing.T) {
	p := NewPublisher(Config{Broker: "broker.example", Port: 1883})
	if got, want := p.Address(), "tcp://broker.example:1883"; got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}

	tp := NewPublisher(Config{Broker: "broker.example", Port: 8883, UseTLS: true})
	if got, want := tp.Address(), "ssl://broker.example:8883"; got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}
}

func TestManagerStartAllSkipsDisabled(t *testing.T) {
	m := NewManager()
	m.Add(NewPublisher(Config{Name: "disabled", Enabled: false}))
	if started := m.StartAll(); started != 0 {
		t.Errorf("started = %d, want 0", started)
	}
}
