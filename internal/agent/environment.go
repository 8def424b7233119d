// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

// Environment is the contract the agent needs from whatever world it is
// interacting with. It deliberately exposes only the bit-width and
// validity information the CORE needs to encode/decode symbols; driving
// an actual episode (perform_action, observation, reward, is_finished)
// is the job of an external interactive loop, which is out of scope for
// this module.
type Environment interface {
	// MaxAction, MaxObservation and MaxReward bound the non-negative
	// integer ranges the agent must be able to encode. Bit widths are
	// derived from these via BitsRequired.
	MaxAction() int
	MaxObservation() int
	MaxReward() int

	// MinAction, MinObservation and MinReward default to 0 in every
	// environment this module ships with; the interface still exposes
	// them so an environment with a non-zero floor can be modeled
	// without the agent needing to know about it specially.
	MinAction() int
	MinObservation() int
	MinReward() int

	// IsValidAction reports whether a is a legal action in this
	// environment. Used only in the agent's own contract assertions.
	IsValidAction(action int) bool
}
