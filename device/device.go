// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device provides the public device collaborators: the capability
// query, allocation context and upload queue an operation needs when it owns
// constant tensors.
//
// HostDevice keeps tensors in host memory and works everywhere. On Windows,
// NewWebGPUDevice opens a real adapter.
//
// Example:
//
//	host := device.NewHostDevice(device.DefaultHostOptions())
//	ctx := host.CreationContext()
package device

import (
	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// Device reports vendor and capabilities.
type Device = device.Device

// Context allocates and frees device tensors.
type Context = device.Context

// Queue uploads host data into device tensors.
type Queue = device.Queue

// CreationContext bundles the collaborators used while creating operations.
type CreationContext = device.CreationContext

// Handle identifies a device tensor. The zero Handle is never valid.
type Handle = device.Handle

// Tensor is a registered device tensor.
type Tensor = device.Tensor

// Vendor is a GPU vendor family.
type Vendor = device.Vendor

// Vendor constants.
const (
	VendorUnknown  Vendor = device.VendorUnknown
	VendorAMD      Vendor = device.VendorAMD
	VendorApple    Vendor = device.VendorApple
	VendorARM      Vendor = device.VendorARM
	VendorIntel    Vendor = device.VendorIntel
	VendorNvidia   Vendor = device.VendorNvidia
	VendorPowerVR  Vendor = device.VendorPowerVR
	VendorQualcomm Vendor = device.VendorQualcomm
)

// Limits describes which storage types a device can create.
type Limits = device.Limits

// HostOptions configures a HostDevice.
type HostOptions = device.HostOptions

// HostDevice keeps device tensors in host memory.
type HostDevice = device.HostDevice

// Errors returned by devices.
var (
	ErrOutOfMemory   = device.ErrOutOfMemory
	ErrInvalidHandle = device.ErrInvalidHandle
	ErrShapeMismatch = device.ErrShapeMismatch
	ErrUnsupported   = device.ErrUnsupported
	ErrUnavailable   = device.ErrUnavailable
	ErrTransfer      = device.ErrTransfer
)

// DefaultHostOptions returns options describing a capable generic GPU.
func DefaultHostOptions() HostOptions {
	return device.DefaultHostOptions()
}

// NewHostDevice creates a host device.
func NewHostDevice(opts HostOptions) *HostDevice {
	return device.NewHostDevice(opts)
}

// SelectBestStorageType picks a storage type dev can create for shape,
// starting from preferred.
func SelectBestStorageType(ctx Context, dev Device, shape tensor.BHWC,
	preferred tensor.StorageType, dt tensor.DataType, layout tensor.Layout,
) tensor.StorageType {
	return device.SelectBestStorageType(ctx, dev, shape, preferred, dt, layout)
}
