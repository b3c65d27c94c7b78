package config

import "time"

type SessionConfig interface {
	GetIdleTimeout() time.Duration
	GetActivityThrottle() time.Duration
	GetGuardDebounce() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetIdleTimeout() time.Duration {
	return GetEnvDuration("IDLE_TIMEOUT", 30*time.Minute)
}

func (Session) GetActivityThrottle() time.Duration {
	return time.Second
}

func (Session) GetGuardDebounce() time.Duration {
	return GetEnvDuration("GUARD_DEBOUNCE", 150*time.Millisecond)
}
