// SPDX-License-Identifier: MIT

package foyer

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// HomeGraph is the decoded directory snapshot.
type HomeGraph struct {
	Devices []Device
}

// Device is one entry of the home graph, flattened to the fields the daemon
// consumes.
type Device struct {
	// AgentID is the stable external device identifier (agent info unique ID).
	AgentID string
	// Name is the user-visible device name.
	Name string
	// HardwareModel is the vendor hardware model string.
	HardwareModel string
	// Traits lists capability tags such as "action.devices.traits.CameraStream".
	Traits []string
}

// Field numbers of the GetHomeGraph response subset, taken from captured
// traffic of the companion app.
const (
	fieldResponseHome = 1

	fieldHomeDevices = 2

	fieldDeviceName       = 1
	fieldDeviceTraits     = 2
	fieldDeviceHardware   = 3
	fieldDeviceDeviceInfo = 4

	fieldHardwareModel = 1

	fieldDeviceInfoAgentInfo = 1
	fieldAgentInfoUniqueID   = 1
)

// decodeHomeGraph parses a GetHomeGraph response payload.
func decodeHomeGraph(data []byte) (*HomeGraph, error) {
	graph := &HomeGraph{}
	err := eachField(data, func(num protowire.Number, payload []byte) error {
		if num != fieldResponseHome {
			return nil
		}
		return eachField(payload, func(num protowire.Number, payload []byte) error {
			if num != fieldHomeDevices {
				return nil
			}
			dev, err := decodeDevice(payload)
			if err != nil {
				return err
			}
			graph.Devices = append(graph.Devices, dev)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("foyer: decode home graph: %w", err)
	}
	return graph, nil
}

func decodeDevice(data []byte) (Device, error) {
	var dev Device
	err := eachField(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case fieldDeviceName:
			dev.Name = string(payload)
		case fieldDeviceTraits:
			dev.Traits = append(dev.Traits, string(payload))
		case fieldDeviceHardware:
			return eachField(payload, func(num protowire.Number, payload []byte) error {
				if num == fieldHardwareModel {
					dev.HardwareModel = string(payload)
				}
				return nil
			})
		case fieldDeviceDeviceInfo:
			return eachField(payload, func(num protowire.Number, payload []byte) error {
				if num != fieldDeviceInfoAgentInfo {
					return nil
				}
				return eachField(payload, func(num protowire.Number, payload []byte) error {
					if num == fieldAgentInfoUniqueID {
						dev.AgentID = string(payload)
					}
					return nil
				})
			})
		}
		return nil
	})
	return dev, err
}

// eachField walks the top-level fields of a message, invoking fn for every
// length-delimited field. Fields of other wire types are skipped: every field
// this client consumes is a string or an embedded message.
func eachField(data []byte, fn func(num protowire.Number, payload []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}

		payload, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		if err := fn(num, payload); err != nil {
			return err
		}
	}
	return nil
}
