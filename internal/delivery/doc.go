// Package delivery implements the outbound delivery channels (email, SMS and
// push) behind a uniform Channel interface. Each Send performs exactly one
// attempt; ordinary delivery failures are reported in the Receipt, while a
// returned error signals an infrastructural fault.
package delivery
