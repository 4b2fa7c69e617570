package tensor

// Device identifies where a leaf's storage lives.
type Device int

// Known devices. Dense, the reference leaf, only ever lives on CPU; the
// other tags exist so alternative Leaf implementations share one vocabulary.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
