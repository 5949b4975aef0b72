// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

//go:build windows

package device

import (
	"github.com/born-ml/kernelgen/internal/device"
)

// WebGPUDevice is a device backed by a WebGPU adapter.
type WebGPUDevice = device.WebGPUDevice

// NewWebGPUDevice opens the default high performance adapter.
func NewWebGPUDevice() (*WebGPUDevice, error) {
	return device.NewWebGPUDevice()
}

// IsWebGPUAvailable reports whether a WebGPU adapter can be opened.
func IsWebGPUAvailable() bool {
	return device.IsWebGPUAvailable()
}
