// Package subgroup provides the lane mask of a SIMT sub-group and the
// ballot collective that produces it.
//
// A sub-group is a small set of lanes (a power of two, typically 4 to 64)
// executing one kernel in lockstep. Ballot gathers one boolean per lane into
// a Mask that every lane sees identically; the Mask then answers questions
// about the whole group without further communication.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-subgroup/subgroup"
//
//	g, err := subgroup.NewGroup(subgroup.DefaultSize())
//	if err != nil {
//	    return err
//	}
//	err = g.Run(func(l *subgroup.Lane) {
//	    even := l.Ballot(l.ID()%2 == 0)
//	    odd := l.Ballot(l.ID()%2 == 1)
//
//	    _ = even.And(odd).None() // true
//	    _ = even.Or(odd).All()   // true
//
//	    // Visit lanes from lowest to highest.
//	    for m := even; m.Any(); m.ResetLow() {
//	        _ = m.FindLow()
//	    }
//	})
//
// Precondition violations (mismatched widths, lane indices out of range,
// negative shifts) panic with a *Violation. Building with the
// subgroup_nocheck tag removes those checks; results of valid programs do
// not change.
package subgroup
