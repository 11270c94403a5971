// Command devicedemo exercises a gpudevice.Device: it precompiles a
// pipeline, churns textures and buffers through the deferred destruction
// ring and, on the fake backend, presents to a window that is minimized and
// restored halfway through.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpudevice"
	"github.com/gogpu/gpudevice/backend/native"
	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/hg/hgtest"
)

const spriteShader = `
struct Uniforms {
    projection: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = u.projection * vec4<f32>(pos, 0.0, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

var spritePipeline = &gpudevice.RenderPipeline{
	Label:          "sprite",
	VertexSource:   spriteShader,
	FragmentSource: spriteShader,
	Vertex: hg.VertexLayout{
		Stride: 24,
		Attribs: []hg.VertexAttrib{
			{Name: "pos", Location: 0, Format: gputypes.VertexFormatFloat32x2},
			{Name: "color", Location: 1, Format: gputypes.VertexFormatFloat32x4, Offset: 8},
		},
	},
	Uniforms: []gpudevice.Uniform{
		{Name: "u", Type: hg.UniformBuffer, Stages: gputypes.ShaderStageVertex},
	},
	State: hg.PipelineState{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Cull:     gputypes.CullModeNone,
	},
}

func main() {
	var (
		frames  = flag.Int("frames", 120, "frames to render")
		backend = flag.String("backend", "fake", "device backend: fake or noop")
		verbose = flag.Bool("verbose", false, "log at debug level")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gpudevice.SetLogger(logger)

	if err := run(*backend, *frames, logger); err != nil {
		log.Fatalf("devicedemo: %v", err)
	}
}

func run(backend string, frames int, logger *slog.Logger) error {
	handle, fake, err := openHandle(backend)
	if err != nil {
		return err
	}
	dev, err := gpudevice.New(handle,
		gpudevice.WithBackendName(backend),
		gpudevice.WithPrecompileFormats(gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatUndefined),
		gpudevice.WithClampedAnisotropy(),
	)
	if err != nil {
		handle.Destroy()
		return fmt.Errorf("open device: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Warn("close device", "error", err)
		}
	}()
	logger.Info("device ready", "info", dev.ImplementationInformation())

	if err := dev.PrecompilePipeline(spritePipeline, nil); err != nil {
		return fmt.Errorf("precompile: %w", err)
	}

	var win *hgtest.Window
	if fake != nil {
		win = fake.NewWindow(1280, 720)
		if err := dev.AttachWindow(win); err != nil {
			return fmt.Errorf("attach window: %w", err)
		}
	}

	sampler, err := dev.CreateSampler(gpudevice.SamplerDesc{
		Mag:        gputypes.FilterModeLinear,
		Min:        gputypes.FilterModeLinear,
		Mip:        gputypes.FilterModeLinear,
		MaxLod:     8,
		Anisotropy: 16,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	logger.Debug("sampler", "info", sampler.Info())

	for i := 0; i < frames; i++ {
		if win != nil {
			switch i {
			case frames / 3:
				win.Resize(0, 0)
				logger.Info("window minimized", "frame", i)
			case 2 * frames / 3:
				win.Resize(1920, 1080)
				logger.Info("window restored", "frame", i)
			}
		}
		if err := renderFrame(dev, i); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if win != nil {
			err = dev.PresentFrame()
		} else {
			err = dev.EndFrame()
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	stats := dev.CacheStats()
	w, h := dev.SwapchainSize()
	logger.Info("done",
		"frames", frames,
		"pipelines", stats.Pipelines,
		"variants", stats.Variants,
		"hit_rate", fmt.Sprintf("%.2f", stats.HitRate()),
		"pending_destroys", dev.PendingDestroys(),
		"swapchain", fmt.Sprintf("%dx%d", w, h),
		"recreations", dev.SwapchainRecreations(),
	)
	return nil
}

// renderFrame records the per-frame resource churn of a sprite renderer:
// an immediate vertex stream, a uniform buffer and a short-lived texture.
func renderFrame(dev *gpudevice.Device, frame int) error {
	pipeline, err := dev.Pipeline(spritePipeline)
	if err != nil {
		return err
	}
	rp, err := dev.RenderPass(gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatUndefined)
	if err != nil {
		return err
	}
	if _, err := pipeline.Pipeline(rp); err != nil {
		return err
	}

	vertices := make([]byte, 6*24)
	if _, err := dev.CreateBufferWithData(gpudevice.ImmediateVertexPrefix+" sprites", gputypes.BufferUsageVertex, vertices); err != nil {
		return err
	}

	uniforms, err := dev.CreateBufferWithData("sprite uniforms", gputypes.BufferUsageUniform, make([]byte, 64))
	if err != nil {
		return err
	}
	uniforms.Destroy()

	if frame%10 == 0 {
		tex, err := dev.CreateTexture(gpudevice.TextureDesc{
			Label:  fmt.Sprintf("glyphs %d", frame),
			Width:  256,
			Height: 256,
			Mips:   gpudevice.MaxMipLevels(256, 256),
		})
		if err != nil {
			return err
		}
		view, err := dev.CreateTextureView(tex)
		if err != nil {
			return err
		}
		view.Destroy()
		tex.Destroy()
	}
	return nil
}

// openHandle opens the requested hg.Device. The fake device is returned
// a second time so the demo can drive its window.
func openHandle(backend string) (hg.Device, *hgtest.Device, error) {
	switch backend {
	case "fake":
		fake := hgtest.NewDevice()
		return fake, fake, nil
	case "noop":
		instance, err := noop.API{}.CreateInstance(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create noop instance: %w", err)
		}
		dev, err := native.OpenInstance(instance)
		if err != nil {
			return nil, nil, err
		}
		return dev, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}
