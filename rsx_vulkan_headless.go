//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "backend:vulkan-unavailable")
}

// VulkanBackend headless implementation: no GPU dependencies.
type VulkanBackend struct {
	*SoftwareBackend
}

func NewVulkanBackend(memory MemoryReader) (*VulkanBackend, error) {
	return nil, ErrVulkanUnavailable
}

func (vb *VulkanBackend) DeviceName() string { return "" }
