/*
Package contid generates the external identifiers handed out for web
continuations.

An identifier is the only thing a browser presents to resume a suspended
interaction, so it doubles as a bearer token. Every identifier is built from
three parts, concatenated and encoded with the unpadded URL-safe base64
alphabet:

	[6 bytes unix millis][8 bytes sequence][k x 16-byte UUIDv4]

The sequence makes identifiers unique for the lifetime of a generator and
the timestamp keeps them distinct across restarts. The random tail makes
them infeasible to guess. Each UUIDv4 chunk carries 122 random bits, so a
generator configured for N bytes of entropy appends the fewest chunks that
hold 8*N random bits: two chunks (244 bits) for the default of 16.
*/
package contid
