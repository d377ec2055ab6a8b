// Package msgs provides L1 protocol support and all message schemas.
package msgs

// L1 protocol is communicated between the brick host and remote
// observers or operators over MQTT or websocket. Every packet is a Typed
// envelope carrying a protobuf encoded message.
//
// Producer: brick host (events), operators (commands)
// Consumer: operators (events), brick host (commands)
