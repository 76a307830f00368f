// Package domain contains the core business entities, value objects, and
// domain logic of the notification service. It is independent of any specific
// storage, transport or delivery mechanism.
package domain
