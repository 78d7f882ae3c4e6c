// SPDX-License-Identifier: MIT

// Package foyer talks to the Google Home Foyer private API to enumerate the
// devices of an account (the "home graph").
//
// The service has no published protobuf definitions, so the messages are
// decoded by hand with protowire against the small subset of fields this
// daemon consumes (device name, trait list, hardware model, agent device ID).
// Unknown fields are skipped, which keeps the client tolerant of schema
// growth on the server side.
package foyer
