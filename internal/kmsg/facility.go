package kmsg

import (
	"fmt"
	"strconv"
	"strings"
)

// Facility classifies the subsystem that produced a record (0-23).
type Facility uint8

const (
	FacilityKern Facility = iota
	FacilityUser
	FacilityMail
	FacilityDaemon
	FacilityAuth
	FacilitySyslog
	FacilityLPR
	FacilityNews
	FacilityUUCP
	FacilityCron
	FacilityAuthPriv
	FacilityFTP
	FacilityNTP
	FacilitySecurity
	FacilityConsole
	FacilitySolarisCron
	FacilityLocal0
	FacilityLocal1
	FacilityLocal2
	FacilityLocal3
	FacilityLocal4
	FacilityLocal5
	FacilityLocal6
	FacilityLocal7
)

// MaxFacility is the largest valid facility value.
const MaxFacility = FacilityLocal7

var facilityNames = [...]string{
	FacilityKern:        "kern",
	FacilityUser:        "user",
	FacilityMail:        "mail",
	FacilityDaemon:      "daemon",
	FacilityAuth:        "auth",
	FacilitySyslog:      "syslog",
	FacilityLPR:         "lpr",
	FacilityNews:        "news",
	FacilityUUCP:        "uucp",
	FacilityCron:        "cron",
	FacilityAuthPriv:    "authpriv",
	FacilityFTP:         "ftp",
	FacilityNTP:         "ntp",
	FacilitySecurity:    "security",
	FacilityConsole:     "console",
	FacilitySolarisCron: "solaris-cron",
	FacilityLocal0:      "local0",
	FacilityLocal1:      "local1",
	FacilityLocal2:      "local2",
	FacilityLocal3:      "local3",
	FacilityLocal4:      "local4",
	FacilityLocal5:      "local5",
	FacilityLocal6:      "local6",
	FacilityLocal7:      "local7",
}

// Valid reports whether f is inside the 0-23 range.
func (f Facility) Valid() bool {
	return f <= MaxFacility
}

func (f Facility) String() string {
	if !f.Valid() {
		return fmt.Sprintf("facility(%d)", uint8(f))
	}
	return facilityNames[f]
}

// ParseFacility resolves a facility by its short name or number.
func ParseFacility(name string) (Facility, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range facilityNames {
		if candidate == key {
			return Facility(i), nil
		}
	}
	if n, ok := parseSmallUint(key); ok && n <= uint64(MaxFacility) {
		return Facility(n), nil
	}
	return 0, fmt.Errorf("%w: unknown facility %q", ErrConfig, name)
}

// Level is the record severity (0-7, 0 most severe).
type Level uint8

const (
	LevelEmerg Level = iota
	LevelAlert
	LevelCrit
	LevelErr
	LevelWarning
	LevelNotice
	LevelInfo
	LevelDebug
)

// MaxLevel is the least severe valid level.
const MaxLevel = LevelDebug

var levelNames = [...]string{
	LevelEmerg:   "emerg",
	LevelAlert:   "alert",
	LevelCrit:    "crit",
	LevelErr:     "err",
	LevelWarning: "warn",
	LevelNotice:  "notice",
	LevelInfo:    "info",
	LevelDebug:   "debug",
}

// Valid reports whether l is inside the 0-7 range.
func (l Level) Valid() bool {
	return l <= MaxLevel
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", uint8(l))
	}
	return levelNames[l]
}

// ParseLevel resolves a level by its short name, common alias, or number.
func ParseLevel(name string) (Level, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "emergency", "panic":
		return LevelEmerg, nil
	case "critical":
		return LevelCrit, nil
	case "error":
		return LevelErr, nil
	case "warning":
		return LevelWarning, nil
	}
	for i, candidate := range levelNames {
		if candidate == key {
			return Level(i), nil
		}
	}
	if n, ok := parseSmallUint(key); ok && n <= uint64(MaxLevel) {
		return Level(n), nil
	}
	return 0, fmt.Errorf("%w: unknown level %q", ErrConfig, name)
}

// SplitPriority splits the combined facility/level value.
func SplitPriority(raw uint64) (Facility, Level, error) {
	facility := raw >> 3
	if facility > uint64(MaxFacility) {
		return 0, 0, fmt.Errorf("%w: priority %d: facility %d out of range", ErrParse, raw, facility)
	}
	return Facility(facility), Level(raw & 7), nil
}

// Priority recombines facility and level into the kernel's combined value.
func Priority(f Facility, l Level) uint64 {
	return uint64(f)<<3 | uint64(l&7)
}

// parseSmallUint accepts the numeric spelling of a facility or level.
func parseSmallUint(s string) (uint64, bool) {
	if !allDigits([]byte(s)) {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 8)
	return n, err == nil
}
