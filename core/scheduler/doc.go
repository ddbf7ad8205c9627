// Package scheduler assigns users to chargers. For every user it filters the
// chargers down to the feasible set, scores each one on user satisfaction,
// operator profit and grid friendliness with context-dependent weights, and
// returns a ranked recommendation list. Decide turns the recommendations into
// one assignment per user needing a charge.
package scheduler
