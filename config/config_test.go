package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	o := Defaults()
	cases := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"device_id", o.DeviceID, int32(10)},
		{"device_name", o.DeviceName, "MOM"},
		{"model_id", o.ModelID, "710"},
		{"serial_number", o.SerialNumber, "71000000000"},
		{"system_type_and_version", o.SystemTypeAndVersion, "710100A   171127"},
		{"cpu_firmware_tag", o.CPUFirmwareTag, "cpufw"},
		{"cpu_firmware_version", o.CPUFirmwareVersion, "1.0.0.2"},
		{"recovery_firmware_tag", o.RecoveryFirmwareTag, "recovery"},
		{"recovery_firmware_version", o.RecoveryFirmwareVersion, "1.0.0.2"},
		{"restrict_to_specified_host", o.RestrictToSpecifiedHost, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "surrogate.yaml")

	o := Defaults()
	o.DeviceName = "STUDIO-A"
	o.RestrictToSpecifiedHost = "192.0.2.10"
	if err := o.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.DeviceName != "STUDIO-A" {
		t.Errorf("DeviceName = %q, want STUDIO-A", loaded.DeviceName)
	}
	if loaded.RestrictToSpecifiedHost != "192.0.2.10" {
		t.Errorf("RestrictToSpecifiedHost = %q, want 192.0.2.10", loaded.RestrictToSpecifiedHost)
	}
	if loaded.ModelID != "710" {
		t.Errorf("ModelID = %q, want 710 (default)", loaded.ModelID)
	}
}

func TestOnChangeNotifiesOnUnlock(t *testing.T) {
	o := Defaults()
	fired := 0
	o.OnChange(func() { fired++ })

	o.Lock()
	o.DeviceID = 42
	o.UnlockAndNotify()

	if fired != 1 {
		t.Errorf("listener fired %d times, want 1", fired)
	}
}

func TestRemoveListener(t *testing.T) {
	o := Defaults()
	fired := 0
	id := o.OnChange(func() { fired++ })
	o.RemoveListener(id)

	o.Lock()
	o.UnlockAndNotify()

	if fired != 0 {
		t.Errorf("listener fired after removal, want 0 calls")
	}
}

func TestSetDeviceID(t *testing.T) {
	o := Defaults()
	o.SetDeviceID(99, "CONSOLE-1")
	if o.DeviceID != 99 || o.DeviceName != "CONSOLE-1" {
		t.Errorf("got (%d, %q), want (99, CONSOLE-1)", o.DeviceID, o.DeviceName)
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Fatal("LoadFile must not create the file")
	}
}
