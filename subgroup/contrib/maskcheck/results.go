// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package maskcheck

import "fmt"

// Failures returns one message per failed check, in check order.
func (r Results) Failures() []string {
	checks := []struct {
		ok  bool
		msg string
	}{
		{r.Masks, "Incorrect masks from group_ballot operations"},
		{r.OrAll, "Incorrect results from operator| and .all()"},
		{r.AndNone, "Incorrect results from operator& and .none()"},
		{r.NotAndAny, "Incorrect results from !, operator& and .any()"},
		{r.Any, "Incorrect results from .any()"},
		{r.XorAll, "Incorrect results from operator^ and .all()"},
		{r.Not, "Incorrect results from operator~"},
		{r.FindHigh, "Incorrect results from .find_high()"},
		{r.FindLow, "Incorrect results from .find_low()"},
		{r.ShiftLeft, "Incorrect results from operator<< and .find_low()"},
		{r.ShiftRight, "Incorrect results from operator>> and .find_high()"},
		{r.Count, "Incorrect results from .count()"},
		{r.Flip, "Incorrect results from .flip()"},
		{r.FlipID, "Incorrect results from .flip(id<1>)"},
		{r.Set, "Incorrect results from .set()"},
		{r.Reset, "Incorrect results from .reset()"},
		{r.SetID, "Incorrect results from .set(id<1>)"},
		{r.ResetID, "Incorrect results from .reset(id<1>)"},
		{r.ResetHigh, "Incorrect results from .reset_high()"},
		{r.ResetLow, "Incorrect results from .reset_low()"},
		{r.Rendezvous, "Incorrect masks observed by some lanes of a sub-group"},
	}
	var out []string
	for _, c := range checks {
		if !c.ok {
			out = append(out, c.msg)
		}
	}
	return out
}

// Passed reports whether every check passed.
func (r Results) Passed() bool {
	return len(r.Failures()) == 0
}

// Dump returns the recorded masks one lane per line.
func (r Results) Dump() []string {
	out := make([]string, 0, r.SGSize)
	for i := 0; i < r.SGSize && i < len(r.EvenMask) && i < len(r.OddMask); i++ {
		out = append(out, fmt.Sprintf("EvenMask[%d] = %d, OddMask[%d] = %d", i, r.EvenMask[i], i, r.OddMask[i]))
	}
	return out
}
