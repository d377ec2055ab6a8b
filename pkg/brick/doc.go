// Package brick drives the two peer microcontrollers of a brick over the
// shared L0 line: it keeps the device state of four motor, encoder and
// sensor ports and exchanges it with the peers once per control cycle.
//
// A Driver and its Device must be used by a single goroutine. When hosted
// in a framework.Loop, the Driver is the controller doing the exchange and
// all other writers post messages to the loop.
package brick
