// Package notify contains contstore.Observer implementations that report
// continuation lifecycle events outside the store: to the structured log and
// to a socket.io endpoint watched by operators.
package notify
