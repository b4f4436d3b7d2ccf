// Package msgs defines the messages published for link activity.
//
// Producer: serlinkd (one message per deframer result)
// Consumer: sinks and serlinkmon
package msgs
