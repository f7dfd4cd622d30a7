// Package domain simulates linear wind disturbances (tornadoes and derechos)
// on a gridded forest landscape and applies age-dependent cohort mortality.
//
// # Timestep
//
// Once per timestep the [Orchestrator] samples the expected number of events
// for the whole landscape, converts it into a uniform per-cell initiation
// probability and visits every active cell in row-major order. Each visit may
// initiate one event; an initiated event is spread over the landscape
// immediately, before the next cell is visited.
//
// Event counts are configured per year per 40,000 km²:
//
//	expected = N(mean, sd) × timestep / 40000 × activeArea(km²)
//	p        = expected / activeCells
//
// # Event geometry
//
// Direction is a compass index (0 = N, 1 = NE ... 7 = NW). The configured
// direction table holds four percentages (N–S, NE–SW, E–W, SE–NW axes); each
// axis share is split evenly between the two opposite headings. Grid rows
// grow downward, so headings are remapped before use:
//
//	0→4  1→3  3→1  4→0  5→7  7→5  (2 and 6 unchanged)
//
// and jittered by up to ±π/8. The footprint is every cell whose distance to
// the start–end segment is within half the event width.
//
// Site intensity falls linearly from the event's base intensity on the axis to
// zero at the footprint edge, loses a flat 0.20 with probability
// PropIntensityVar, gains the cell's ecoregion modifier and is clamped to
// [0, 1]. A cell keeps the maximum intensity seen during the timestep; only an
// event that strictly raises it evaluates mortality there.
//
// # Severity
//
// Severity tiers pair an age-fraction bracket (age / species longevity) with
// an intensity threshold. Tiers are listed from the highest number down to 1
// and their brackets tile [0, 1]. A cohort dies when the site intensity
// exceeds the threshold of the first tier whose bracket contains its age
// fraction; the cell's severity is the highest tier number that killed.
//
// # Randomness
//
// All draws come from one seeded stream, consumed in a fixed order, so a run
// is reproducible for a given seed.
package domain
