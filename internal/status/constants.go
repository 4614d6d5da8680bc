// internal/status/constants.go
package status

// Watchdog Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerInstance is the fixed number of registers per watchdog instance.
const SlotsPerInstance = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the detector health code.
const SlotHealthCode = 0

// SlotRecoveryState holds the recovery state code.
const SlotRecoveryState = 1

// SlotFailureStreak holds the consecutive failed recovery count.
const SlotFailureStreak = 2

// SlotSecondsFailing holds the duration (in seconds) the service has been failing.
const SlotSecondsFailing = 3

// SlotLastOutcome holds the outcome code of the last recovery attempt.
const SlotLastOutcome = 4

// SlotRemainingMiBHi and SlotRemainingMiBLo hold remaining MiB as a big-endian uint32.
const SlotRemainingMiBHi = 5
const SlotRemainingMiBLo = 6

// SlotRateKiB holds the download rate in KiB/s (saturating).
const SlotRateKiB = 7

// ---- RESERVED RANGE ----

// Slots 8–11 are reserved for future use.
const SlotReservedStart = 8
const SlotReservedEnd = 11

// ---- INSTANCE NAME ----

// SlotNameStart is the first slot used for the instance name.
// The name is always placed at the END of the status block.
const SlotNameStart = 12

// SlotNameSlots is the number of slots reserved for the instance name.
const SlotNameSlots = 8

// SlotNameEnd is the last slot used for the instance name (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// ---- LIMITS ----

// NameMaxChars is the maximum number of ASCII characters stored for the instance name.
const NameMaxChars = 16

// ---- HEALTH CODES ----

// CodeUnknown represents the boot state, before the first tick.
const CodeUnknown uint16 = 0

// HealthCode maps h onto the block's health code (Unknown is 0).
func HealthCode(h Health) uint16 {
	return uint16(h) + 1
}

// ---- OUTCOME CODES ----

// OutcomeCode maps o onto the block's last-outcome code (None is 0).
func OutcomeCode(o Outcome) uint16 {
	return uint16(o)
}
