package timezone

import (
	"sync/atomic"
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "America/Sao_Paulo"

var fallback atomic.Value

func init() {
	fallback.Store(DefaultTimezone)
}

// SetDefault changes the zone used when a tenant or branch has none.
// Invalid names are ignored.
func SetDefault(tz string) {
	if IsValid(tz) {
		fallback.Store(tz)
	}
}

func Default() string {
	return fallback.Load().(string)
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(Default())
	if err != nil {
		return time.UTC
	}
	return loc
}
