/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package transport abstracts the BLE link to the headband as an
// opaque asynchronous byte pipe. The decoding core never touches GATT
// directly, which is what makes it testable against recorded data and
// mock channels.
package transport

import (
	"context"
	"time"
)

// ByteChannel is a connected bidirectional byte pipe: commands go out
// through Write, sensor notifications arrive through the registered
// callback at arbitrary chunk boundaries.
type ByteChannel interface {
	// Write sends a command to the device control characteristic.
	Write(ctx context.Context, p []byte) error
	// OnNotification registers the function called for every incoming
	// chunk. The slice is owned by the callee.
	OnNotification(fn func(chunk []byte))
	// Close tears the link down. Safe to call more than once.
	Close() error
}

// Transport dials devices. deviceID is a transport-specific address;
// an empty deviceID lets the transport pick (e.g. first Muse found).
type Transport interface {
	Connect(ctx context.Context, deviceID string) (ByteChannel, error)
}

// DeviceInfo describes a discovered headband.
type DeviceInfo struct {
	Name    string
	Address string
	RSSI    int16
	SeenAt  time.Time
}
