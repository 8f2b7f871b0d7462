// Package forecast turns historical traffic analyses into hourly traffic
// predictions.
//
// A run builds an HourlyProfile (day of week × hour of day) from the
// analyses in the lookback window, derives congestion cut points from the
// distribution of the profile's estimates, and plans one prediction per
// future date and hour. Hours without direct evidence fall back to a mean
// scaled by a fixed diurnal shape factor.
//
// Everything here is pure: callers load samples and persist predictions.
package forecast
