package gpudevice

// ImplementationInformation returns "backend, API version, renderer".
func (d *Device) ImplementationInformation() string {
	return d.opts.backendName + ", " + d.props.APIVersion + ", " + d.props.Renderer
}

// BackendName returns the name set with WithBackendName.
func (d *Device) BackendName() string { return d.opts.backendName }

// Vendor returns the adapter vendor.
func (d *Device) Vendor() string { return d.props.Vendor }

// Version returns the graphics API version.
func (d *Device) Version() string { return d.props.APIVersion }

// Renderer returns the adapter name followed by the driver version.
func (d *Device) Renderer() string { return d.props.Renderer + " " + d.props.DriverVersion }

// MaxTextureSize returns the largest supported 2D texture dimension.
func (d *Device) MaxTextureSize() int { return int(d.props.MaxTexture2DSize) }

// UniformOffsetAlignment returns the required alignment of uniform buffer
// offsets.
func (d *Device) UniformOffsetAlignment() int { return int(d.props.UBOAlignment) }

// MaxSupportedAnisotropy returns the largest sampler anisotropy.
func (d *Device) MaxSupportedAnisotropy() float32 { return d.props.MaxAnisotropy }

// IsZZeroToOne reports whether clip-space depth runs from 0 to 1. It
// always does on explicit APIs.
func (d *Device) IsZZeroToOne() bool { return true }

// IsDebuggingEnabled reports whether API validation messages are collected.
func (d *Device) IsDebuggingEnabled() bool { return false }

// LastDebugMessages returns collected validation messages. None are
// collected.
func (d *Device) LastDebugMessages() []string { return nil }

// EnabledExtensions returns the enabled API extensions. Extensions are
// negotiated by the device handle and not reported here.
func (d *Device) EnabledExtensions() []string { return nil }
