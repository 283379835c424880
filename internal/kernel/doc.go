// Package kernel drains an inbox of binary messages and applies the user ones to the record store.
//
// Messages are processed one at a time by a single loop: message N is fully
// committed or fully failed before message N+1 is pulled. A failing message is
// logged and skipped, it never stops the loop. The loop ends when the source
// reports io.EOF.
//
// Inbox message layout:
//
//	0x00 | payload     kernel message, ignored
//	0x01 | request     user message, request is a libtodo.ActionRequest
//	other              discarded
package kernel
