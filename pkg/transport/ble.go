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

package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/amused-dev/go-amused/pkg/log"
)

// GATT identifiers of the headband. Control takes the ASCII command
// tokens; the combined-data characteristic multiplexes all sensor
// packets.
const (
	ControlCharUUID = "273e0001-4c4d-454d-96be-f03bac821358"
	SensorCharUUID  = "273e0013-4c4d-454d-96be-f03bac821358"

	// DeviceNamePrefix is how the headband advertises itself.
	DeviceNamePrefix = "Muse"

	DefaultScanTimeout = 10 * time.Second
)

var (
	controlUUID = mustUUID(ControlCharUUID)
	sensorUUID  = mustUUID(SensorCharUUID)
)

func mustUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}

// BLE is the production Transport over tinygo's bluetooth stack.
type BLE struct {
	adapter    *bluetooth.Adapter
	enableOnce sync.Once
	enableErr  error
}

func NewBLE() *BLE {
	return &BLE{adapter: bluetooth.DefaultAdapter}
}

func (t *BLE) enable() error {
	t.enableOnce.Do(func() {
		t.enableErr = t.adapter.Enable()
	})
	return t.enableErr
}

// Scan discovers advertising headbands until the timeout elapses or
// ctx is cancelled. Only devices whose local name carries the Muse
// prefix are reported, at most once each.
func (t *BLE) Scan(ctx context.Context, timeout time.Duration) ([]DeviceInfo, error) {
	if err := t.enable(); err != nil {
		return nil, fmt.Errorf("enabling BLE adapter: %w", err)
	}

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		seen  = make(map[string]bool)
		found []DeviceInfo
	)
	go func() {
		<-scanCtx.Done()
		t.adapter.StopScan()
	}()
	err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		if !strings.HasPrefix(name, DeviceNamePrefix) {
			return
		}
		addr := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if seen[addr] {
			return
		}
		seen[addr] = true
		log.Info("Found device: %s (%s) rssi: %d", name, addr, result.RSSI)
		found = append(found, DeviceInfo{
			Name:    name,
			Address: addr,
			RSSI:    result.RSSI,
			SeenAt:  time.Now(),
		})
	})
	if err != nil && scanCtx.Err() == nil {
		return nil, err
	}
	return found, nil
}

// Connect establishes a GATT link to the given address, or to the
// first discovered headband when deviceID is empty.
func (t *BLE) Connect(ctx context.Context, deviceID string) (ByteChannel, error) {
	if err := t.enable(); err != nil {
		return nil, fmt.Errorf("enabling BLE adapter: %w", err)
	}

	address, err := t.findAddress(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	log.Info("Connecting to %s", address.String())
	device, err := t.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address.String(), err)
	}

	services, err := device.DiscoverServices(nil)
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("discovering services: %w", err)
	}

	var control, sensor bluetooth.DeviceCharacteristic
	var haveControl, haveSensor bool
	for _, service := range services {
		chars, discErr := service.DiscoverCharacteristics([]bluetooth.UUID{controlUUID, sensorUUID})
		if discErr != nil {
			continue
		}
		for _, char := range chars {
			switch char.UUID() {
			case controlUUID:
				control, haveControl = char, true
			case sensorUUID:
				sensor, haveSensor = char, true
			}
		}
	}
	if !haveControl || !haveSensor {
		device.Disconnect()
		return nil, fmt.Errorf("device %s does not expose the control and sensor characteristics", address.String())
	}

	return &bleChannel{device: device, control: control, sensor: sensor}, nil
}

func (t *BLE) findAddress(ctx context.Context, deviceID string) (bluetooth.Address, error) {
	var zero bluetooth.Address

	scanCtx, cancel := context.WithTimeout(ctx, DefaultScanTimeout)
	defer cancel()

	var (
		once  sync.Once
		found bluetooth.Address
		ok    bool
	)
	go func() {
		<-scanCtx.Done()
		t.adapter.StopScan()
	}()
	err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		match := false
		if deviceID != "" {
			match = strings.EqualFold(result.Address.String(), deviceID)
		} else {
			match = strings.HasPrefix(result.LocalName(), DeviceNamePrefix)
		}
		if match {
			once.Do(func() {
				found = result.Address
				ok = true
				adapter.StopScan()
			})
		}
	})
	if ok {
		return found, nil
	}
	if err != nil && scanCtx.Err() == nil {
		return zero, err
	}
	if deviceID != "" {
		return zero, fmt.Errorf("device %s not found", deviceID)
	}
	return zero, fmt.Errorf("no %s device found", DeviceNamePrefix)
}

type bleChannel struct {
	device  *bluetooth.Device
	control bluetooth.DeviceCharacteristic
	sensor  bluetooth.DeviceCharacteristic

	closeOnce sync.Once
	closeErr  error
}

func (c *bleChannel) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.control.WriteWithoutResponse(p)
	return err
}

func (c *bleChannel) OnNotification(fn func(chunk []byte)) {
	err := c.sensor.EnableNotifications(func(buf []byte) {
		// the stack reuses buf; hand the consumer its own copy
		chunk := make([]byte, len(buf))
		copy(chunk, buf)
		fn(chunk)
	})
	if err != nil {
		log.Warning("Enabling sensor notifications: %v", err)
	}
}

func (c *bleChannel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.device.Disconnect()
	})
	return c.closeErr
}
