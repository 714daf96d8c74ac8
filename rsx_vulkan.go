//go:build !headless

// rsx_vulkan.go - Vulkan-probed rendering backend

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine

License: GPLv3 or later
*/

/*
rsx_vulkan.go - Vulkan Backend

Creates a Vulkan instance and picks the first physical device. Submissions
are rasterized by the embedded software backend; the device handle marks
the host as able to run the accelerated path and is reported in the
startup banner.
*/

package main

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

func init() {
	compiledFeatures = append(compiledFeatures, "backend:vulkan")
}

// VulkanBackend implements Backend on a probed Vulkan device.
type VulkanBackend struct {
	*SoftwareBackend

	instance   vk.Instance
	device     vk.PhysicalDevice
	deviceName string
}

// NewVulkanBackend probes for a Vulkan device. It fails when no loader or
// device is present; callers fall back to NewSoftwareBackend.
func NewVulkanBackend(memory MemoryReader) (*VulkanBackend, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVulkanUnavailable, err)
	}
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVulkanUnavailable, err)
	}

	var instance vk.Instance
	res := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:            vk.StructureTypeApplicationInfo,
			PApplicationName: "rsxcore\x00",
			PEngineName:      "rsxcore\x00",
			ApiVersion:       vk.MakeVersion(1, 0, 0),
		},
	}, nil, &instance)
	if res != vk.Success {
		return nil, fmt.Errorf("%w: create instance: %w", ErrVulkanUnavailable, vk.Error(res))
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("%w: %w", ErrVulkanUnavailable, err)
	}

	var count uint32
	vk.EnumeratePhysicalDevices(instance, &count, nil)
	if count == 0 {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("%w: no physical device", ErrVulkanUnavailable)
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(instance, &count, devices)

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(devices[0], &props)
	props.Deref()

	return &VulkanBackend{
		SoftwareBackend: NewSoftwareBackend(memory),
		instance:        instance,
		device:          devices[0],
		deviceName:      vk.ToString(props.DeviceName[:]),
	}, nil
}

// DeviceName returns the name of the probed physical device.
func (vb *VulkanBackend) DeviceName() string { return vb.deviceName }

func (vb *VulkanBackend) Close() error {
	err := vb.SoftwareBackend.Close()
	if vb.instance != nil {
		vk.DestroyInstance(vb.instance, nil)
		vb.instance = nil
	}
	return err
}
