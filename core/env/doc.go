// Package env implements the charging network environment: a population of
// users and chargers evolving over discrete time steps on top of a grid
// state. The environment exclusively owns all entity state; callers observe
// it through snapshots and influence it only by submitting assignments to
// Step.
package env
