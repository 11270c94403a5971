package gpudevice

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/hg/hgtest"
)

func TestDeviceInfo(t *testing.T) {
	props := hg.Properties{
		APIVersion:       "1.3.280",
		Vendor:           "AMD",
		Renderer:         "Radeon RX 7800",
		DriverVersion:    "2.0.301",
		MaxTexture2DSize: 16384,
		UBOAlignment:     64,
		MaxAnisotropy:    8,
	}
	d, _ := newTestDeviceOn(t, hgtest.NewDevice(hgtest.WithProperties(props)), WithBackendName("vulkan"))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ImplementationInformation", d.ImplementationInformation(), "vulkan, 1.3.280, Radeon RX 7800"},
		{"BackendName", d.BackendName(), "vulkan"},
		{"Vendor", d.Vendor(), "AMD"},
		{"Version", d.Version(), "1.3.280"},
		{"Renderer", d.Renderer(), "Radeon RX 7800 2.0.301"},
		{"MaxTextureSize", d.MaxTextureSize(), 16384},
		{"UniformOffsetAlignment", d.UniformOffsetAlignment(), 64},
		{"MaxSupportedAnisotropy", d.MaxSupportedAnisotropy(), float32(8)},
		{"IsZZeroToOne", d.IsZZeroToOne(), true},
		{"IsDebuggingEnabled", d.IsDebuggingEnabled(), false},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if msgs := d.LastDebugMessages(); len(msgs) != 0 {
		t.Errorf("LastDebugMessages() = %v, want none", msgs)
	}
	if exts := d.EnabledExtensions(); len(exts) != 0 {
		t.Errorf("EnabledExtensions() = %v, want none", exts)
	}
}

func TestUploadAlignmentFollowsDevice(t *testing.T) {
	props := hgtest.NewDevice().Properties()
	props.UBOAlignment = 64
	d, _ := newTestDeviceOn(t, hgtest.NewDevice(hgtest.WithProperties(props)))

	label := ImmediateVertexPrefix + " aligned"
	if _, err := d.CreateBufferWithData(label, gputypes.BufferUsageVertex, []byte{1}); err != nil {
		t.Fatalf("CreateBufferWithData: %v", err)
	}
	b, err := d.CreateBufferWithData(label, gputypes.BufferUsageVertex, []byte{2})
	if err != nil {
		t.Fatalf("CreateBufferWithData: %v", err)
	}
	if b.Offset() != 64 {
		t.Errorf("Offset() = %d, want 64", b.Offset())
	}
}
