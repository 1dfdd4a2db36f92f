// Package ble relays commands to the wireless LED peripheral over BLE.
//
// The channel exists to mirror a fast-changing physical state (LED on/off
// in time with the beat), so it deliberately holds at most one pending
// command: a new Send overwrites whatever has not been written yet. Stale
// commands are dropped in favor of freshness.
//
// The peripheral I/O runs on a dedicated goroutine; Send never blocks on
// BLE work. A missing or lost peripheral degrades the channel to a no-op,
// never an error for the caller.
package ble

// Command is a UTF-8 string written to the LED characteristic.
// The values correspond to the modes understood by the LED firmware.
type Command string

// Commands understood by the LED firmware.
const (
	CmdOff     Command = "none"
	CmdRed     Command = "red"
	CmdGreen   Command = "green"
	CmdBlue    Command = "blue"
	CmdPurple  Command = "purple"
	CmdPink    Command = "pink"
	CmdRainbow Command = "rainbow"
	CmdLoading Command = "loading"
)
