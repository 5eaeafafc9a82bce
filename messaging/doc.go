// Package messaging tracks messages between the moment the engine accepts
// them and the moment a receipt arrives.
//
// Each friend owns a SendQueue. A queued message is transmitted on the next
// iteration, resent every DefaultRetryInterval while the friend stays online,
// and resent from scratch after the friend reconnects. Delivery is not
// guaranteed: messages still queued when the engine is killed are lost.
//
// Message ids come from an IDAllocator shared by the whole engine so a read
// receipt identifies exactly one message.
package messaging
