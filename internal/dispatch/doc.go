// Package dispatch implements the notification dispatcher: a priority-ordered
// queue drained by a single background worker against the delivery channels.
//
// Enqueue validates and persists a record as queued, appends it to the
// pending queue and starts a drain if none is active. The drain repeatedly
// sorts the pending queue by priority rank, removes the first record,
// delivers it through the matching channel and persists the terminal status.
// Records of equal priority keep their enqueue order.
package dispatch
