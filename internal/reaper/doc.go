// Package reaper runs the background expiry of web continuations.
//
// # Why the Reaper Exists
//
// Lookups already refuse expired continuations, but an abandoned interaction
// is never looked up again. Without a periodic sweep its payload (a whole
// suspended script state) would stay in memory and its disposer would never
// run. The reaper is that sweep.
//
// # How It Works
//
//  1. Wait Offset after Start so a freshly booted process is not swept at once
//  2. Every Interval, call Expirer.ReapExpired on the store
//  3. Log the pass; disposer failures are logged and never stop the loop
//  4. Exit when the context is cancelled or Stop is called
//
// The store decides what is due and removes it in small locked steps; the
// reaper only owns timing and reporting.
package reaper
