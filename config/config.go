// Package config handles option persistence for the Surrogate emulator:
// the string-keyed configuration mapping described by the protocol design
// (device identity, firmware tags, host restriction, local interface), its
// defaults, and YAML load/save.
package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ListenerID identifies a registered change listener, returned by OnChange
// so the caller can later Remove it.
type ListenerID uint64

// Options is the controller's configuration mapping (§3). Keys not present
// in the Defaults table but recognized below carry the spec's default
// value until explicitly set.
type Options struct {
	DeviceID                 int32  `yaml:"device_id"`
	DeviceName               string `yaml:"device_name"`
	ModelID                  string `yaml:"model_id"`
	SerialNumber             string `yaml:"serial_number"`
	SystemTypeAndVersion     string `yaml:"system_type_and_version"`
	CPUFirmwareTag           string `yaml:"cpu_firmware_tag"`
	CPUFirmwareVersion       string `yaml:"cpu_firmware_version"`
	RecoveryFirmwareTag      string `yaml:"recovery_firmware_tag"`
	RecoveryFirmwareVersion  string `yaml:"recovery_firmware_version"`
	RestrictToSpecifiedHost  string `yaml:"restrict_to_specified_host,omitempty"`
	LocalInterfaceAddress    string `yaml:"local_interface_address,omitempty"`

	mu              sync.Mutex                 `yaml:"-"`
	listeners       map[ListenerID]func()      `yaml:"-"`
	listenerCounter uint64                     `yaml:"-"`
}

// Defaults returns a fresh Options populated with the exact values named
// in §3: device_id=10, device_name="MOM", model_id="710",
// serial_number="71000000000", system_type_and_version left at the
// original's 16-character firmware tag, and the two firmware tag/version
// pairs. restrict_to_specified_host and local_interface_address are
// intentionally left empty (unset is the default, per
// setDefaultOptionString treating an unset default as "remove the key").
func Defaults() *Options {
	return &Options{
		DeviceID:                10,
		DeviceName:              "MOM",
		ModelID:                 "710",
		SerialNumber:            "71000000000",
		SystemTypeAndVersion:    "710100A   171127",
		CPUFirmwareTag:          "cpufw",
		CPUFirmwareVersion:      "1.0.0.2",
		RecoveryFirmwareTag:     "recovery",
		RecoveryFirmwareVersion: "1.0.0.2",
		listeners:               make(map[ListenerID]func()),
	}
}

// LoadFile reads a YAML options file on top of Defaults, so any field the
// file omits keeps its default. A field the file sets explicitly, even to
// an empty string or zero, keeps the file's value.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	o := Defaults()
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if o.listeners == nil {
		o.listeners = make(map[ListenerID]func())
	}
	return o, nil
}

// Save persists the options to path as YAML. Lock()/UnlockAndNotify()
// bracket mutation by callers; Save acquires the lock itself, so it must
// not be called while the caller already holds it.
func (o *Options) Save(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.saveLocked(path)
}

func (o *Options) saveLocked(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Lock acquires the options mutex for a read-modify-write sequence ending
// in UnlockAndNotify.
func (o *Options) Lock() { o.mu.Lock() }

// UnlockAndNotify releases the mutex and fires every registered listener.
// Listeners run synchronously and must not themselves call back into
// Options methods that take the lock.
func (o *Options) UnlockAndNotify() {
	o.mu.Unlock()
	o.listenersSnapshot()
}

func (o *Options) listenersSnapshot() {
	for _, fn := range o.listeners {
		fn()
	}
}

// OnChange registers fn to run after every UnlockAndNotify.
func (o *Options) OnChange(fn func()) ListenerID {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listenerCounter++
	id := ListenerID(o.listenerCounter)
	if o.listeners == nil {
		o.listeners = make(map[ListenerID]func())
	}
	o.listeners[id] = fn
	return id
}

// RemoveListener unregisters a listener added with OnChange.
func (o *Options) RemoveListener(id ListenerID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.listeners, id)
}

// SetDeviceID updates device_id/device_name under lock and notifies
// listeners, mirroring the SetDeviceID built-in handler's effect on the
// configuration mapping (§4.G).
func (o *Options) SetDeviceID(id int32, name string) {
	o.Lock()
	o.DeviceID = id
	o.DeviceName = name
	o.UnlockAndNotify()
}
