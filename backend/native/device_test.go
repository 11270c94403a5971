//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpudevice"
	"github.com/gogpu/gpudevice/hg"
)

// openNoopDevice opens a device on the noop HAL backend.
func openNoopDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	d, err := OpenInstance(instance, opts...)
	if err != nil {
		t.Fatalf("OpenInstance failed: %v", err)
	}
	t.Cleanup(d.Destroy)
	return d
}

// noopHAL returns a bare noop device and queue owned by the test.
func noopHAL(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func TestOpenInstance(t *testing.T) {
	d := openNoopDevice(t)

	props := d.Properties()
	limits := gputypes.DefaultLimits()
	if props.MaxTexture2DSize != limits.MaxTextureDimension2D {
		t.Errorf("MaxTexture2DSize = %d, want %d", props.MaxTexture2DSize, limits.MaxTextureDimension2D)
	}
	if props.UBOAlignment != limits.MinUniformBufferOffsetAlignment {
		t.Errorf("UBOAlignment = %d, want %d", props.UBOAlignment, limits.MinUniformBufferOffsetAlignment)
	}
	if d.HAL() == nil {
		t.Error("HAL() = nil")
	}
	if !d.owned {
		t.Error("opened device does not own its HAL device")
	}
}

func TestNewNilDevice(t *testing.T) {
	device, q := noopHAL(t)
	if _, err := New(nil, q); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil, q) = %v, want %v", err, ErrNilDevice)
	}
	if _, err := New(device, nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(device, nil) = %v, want %v", err, ErrNilDevice)
	}
}

func TestNewWithProperties(t *testing.T) {
	device, q := noopHAL(t)
	want := hg.Properties{Vendor: "test", MaxTexture2DSize: 4096, UBOAlignment: 64, MaxAnisotropy: 4}
	d, err := New(device, q, WithProperties(want))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Destroy()
	if got := d.Properties(); got != want {
		t.Errorf("Properties = %+v, want %+v", got, want)
	}
	if d.owned {
		t.Error("wrapped device claims ownership")
	}
}

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "mock", Type: gpucontext.AdapterTypeUnknown}
}

// mockHALProvider also exposes HAL objects.
type mockHALProvider struct {
	mockProvider
	device any
	queue  any
}

func (m *mockHALProvider) HalDevice() any { return m.device }
func (m *mockHALProvider) HalQueue() any  { return m.queue }

func TestFromProvider(t *testing.T) {
	device, q := noopHAL(t)

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  error
	}{
		{"no HAL access", &mockProvider{}, ErrNoHALAccess},
		{"wrong device type", &mockHALProvider{device: "device", queue: q}, ErrNoHALAccess},
		{"wrong queue type", &mockHALProvider{device: device, queue: 42}, ErrNoHALAccess},
		{"HAL provider", &mockHALProvider{device: device, queue: q}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromProvider(tt.provider)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FromProvider = %v, want %v", err, tt.wantErr)
			}
			if err == nil {
				if d.HAL() != device {
					t.Error("device not borrowed from provider")
				}
				d.Destroy()
			}
		})
	}
}

func TestCreateSurface(t *testing.T) {
	d := openNoopDevice(t)
	if _, err := d.CreateSurface(1); !errors.Is(err, ErrPresentationUnsupported) {
		t.Errorf("CreateSurface without factory = %v, want %v", err, ErrPresentationUnsupported)
	}

	var gotWindow uintptr
	boom := errors.New("no display")
	d = openNoopDevice(t, WithSurfaceFactory(func(_ *Device, window uintptr) (hg.Surface, error) {
		gotWindow = window
		return nil, boom
	}))
	if _, err := d.CreateSurface(7); !errors.Is(err, boom) {
		t.Errorf("CreateSurface = %v, want %v", err, boom)
	}
	if gotWindow != 7 {
		t.Errorf("factory window = %d, want 7", gotWindow)
	}
}

func TestWaitIdle(t *testing.T) {
	d := openNoopDevice(t)
	for i := 0; i < 3; i++ {
		if err := d.WaitIdle(); err != nil {
			t.Fatalf("WaitIdle: %v", err)
		}
	}
	if n := len(d.queue.inflight); n != 0 {
		t.Errorf("inflight command buffers after WaitIdle = %d, want 0", n)
	}
}

// TestFramesOnNoop drives the frame pacer over the HAL backend.
func TestFramesOnNoop(t *testing.T) {
	dev := openNoopDevice(t)
	d, err := gpudevice.New(dev, gpudevice.WithBackendName("noop"))
	if err != nil {
		t.Fatalf("gpudevice.New: %v", err)
	}

	tex, err := d.CreateTexture(gpudevice.TextureDesc{Label: "sprite", Width: 16, Height: 16})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	buf, err := d.CreateBufferWithData("indices", gputypes.BufferUsageIndex, []byte{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("CreateBufferWithData: %v", err)
	}
	for i := 0; i < 2*gpudevice.MaxFramesInFlight; i++ {
		if i == 2 {
			tex.Destroy()
			buf.Destroy()
		}
		if err := d.EndFrame(); err != nil {
			t.Fatalf("EndFrame %d: %v", i, err)
		}
	}
	if got := d.PendingDestroys(); got != 0 {
		t.Errorf("PendingDestroys = %d, want 0", got)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
