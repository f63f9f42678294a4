package audio

import (
	"context"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestPickSource(t *testing.T) {
	elgato := Device{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true}
	sony := Device{ID: "bluez_input.sony", Description: "Sony WH-1000XM6", Available: true}
	muted := elgato
	muted.Muted = true
	unplugged := sony
	unplugged.Available = false

	tests := []struct {
		name     string
		devices  []Device
		input    string
		fallback string
		wantID   string
		switched bool
		errPart  string
	}{
		{name: "default source", devices: []Device{elgato, sony}, input: "default", wantID: elgato.ID},
		{name: "empty means default", devices: []Device{elgato, sony}, wantID: elgato.ID},
		{name: "match by description", devices: []Device{elgato, sony}, input: "WH-1000", wantID: sony.ID},
		{name: "muted primary uses fallback", devices: []Device{muted, sony}, input: "elgato", fallback: "sony", wantID: sony.ID, switched: true},
		{name: "unplugged primary uses default", devices: []Device{elgato, unplugged}, input: "sony", fallback: "default", wantID: elgato.ID, switched: true},
		{name: "muted default with no alternative", devices: []Device{muted}, input: "default", fallback: "default", errPart: "muted"},
		{name: "unknown input", devices: []Device{elgato}, input: "missing", errPart: "did not match"},
		{name: "near miss names closest", devices: []Device{elgato, sony}, input: "wav3", errPart: `closest: "Elgato Wave 3 Mono"`},
		{name: "unknown fallback", devices: []Device{muted}, input: "elgato", fallback: "missing", errPart: "audio.fallback"},
		{name: "no devices", errPart: "no microphones"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selection, err := pickSource(tt.devices, tt.input, tt.fallback)
			if tt.errPart != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.errPart)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, selection.Device.ID)
			require.Equal(t, tt.switched, selection.Fallback)
			if tt.switched {
				require.NotEmpty(t, selection.Warning)
			} else {
				require.Empty(t, selection.Warning)
			}
		})
	}
}

func TestDeviceMatches(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono"}
	require.True(t, dev.matches("elgato"))
	require.True(t, dev.matches("wave 3"))
	require.False(t, dev.matches("missing"))
	require.False(t, dev.matches(""))
}

func TestDevicesFailWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	_, err := ListDevices(context.Background())
	require.Error(t, err)
	_, err = SelectDevice(context.Background(), "default", "default")
	require.Error(t, err)
	_, err = OpenCapture(context.Background(), Device{ID: "mic"})
	require.Error(t, err)
}

func TestStateName(t *testing.T) {
	require.Equal(t, "running", stateName(0))
	require.Equal(t, "suspended", stateName(2))
	require.Equal(t, "unknown(7)", stateName(7))
}

func TestActivePortAvailable(t *testing.T) {
	require.False(t, activePortAvailable(nil))
	require.True(t, activePortAvailable(&pulseproto.GetSourceInfoReply{}))

	plugged := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	withPorts(plugged, map[string]uint32{"mic": 2, "line": 1})
	require.True(t, activePortAvailable(plugged))

	unplugged := &pulseproto.GetSourceInfoReply{ActivePortName: "line"}
	withPorts(unplugged, map[string]uint32{"mic": 2, "line": 1})
	require.False(t, activePortAvailable(unplugged))
}

// withPorts fills the reply's anonymous port slice by reflection.
func withPorts(info *pulseproto.GetSourceInfoReply, ports map[string]uint32) {
	field := reflect.ValueOf(info).Elem().FieldByName("Ports")
	slice := reflect.MakeSlice(field.Type(), 0, len(ports))
	for name, available := range ports {
		port := reflect.New(field.Type().Elem()).Elem()
		port.FieldByName("Name").SetString(name)
		port.FieldByName("Available").SetUint(uint64(available))
		slice = reflect.Append(slice, port)
	}
	field.Set(slice)
}

func TestClosestDevice(t *testing.T) {
	devices := []Device{
		{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono"},
		{ID: "bluez_input.sony", Description: "Sony WH-1000XM6"},
	}
	require.Equal(t, "Sony WH-1000XM6", closestDevice("whxm", devices))
	require.Empty(t, closestDevice("zzz", devices))
	require.Empty(t, closestDevice("sony", nil))
}
