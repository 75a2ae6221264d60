// Package character holds the per-agent behavior state machine.
//
// A Character is Idle, Walking, Typing, Reading or Waiting. External
// setters (SetActive, SetTool, AssignDesk) only record intent and pick the
// next goal; routes are planned and consumed inside Advance, which the
// office calls once per tick with a World view of the grid and the other
// characters.
//
// When the next step is blocked by furniture the route is re-planned once
// and the character goes Idle in place if nothing is found. When it is
// blocked by another character the step is retried on following ticks and,
// after Settings.StallLimit stalled ticks, a detour that treats other
// characters as obstacles is planned.
package character
