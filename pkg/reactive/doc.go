// Package reactive is the dependency-tracking substrate used by the scope
// runtime: signals, computed values and tracking effects.
//
// Reads are attributed to the current listener of the calling goroutine.
// An Effect becomes the current listener between Start and the stop
// function Start returns:
//
//	name := reactive.NewSignal("John")
//	e := reactive.NewEffect(func() { fmt.Println("changed") })
//
//	stop := e.Start()
//	_ = name.Get() // recorded by e
//	stop()
//
//	name.Set("Jane") // prints "changed"
//
// Writes inside Batch are coalesced so each dependent is notified once.
package reactive
