// Package grid models the electrical grid seen by the charging network: an
// hourly load curve, the share of renewable generation and time-of-use
// pricing with peak and valley tiers.
package grid
