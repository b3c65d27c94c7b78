package config

import "time"

type PaymentConfig interface {
	GetPollInterval() time.Duration
	GetPollEnabled() bool
	GetMaxPaymentAmount() float64
}

type Payment struct{}

var _ PaymentConfig = Payment{}

func (Payment) GetPollInterval() time.Duration {
	return GetEnvDuration("POLL_INTERVAL", 15*time.Second)
}

func (Payment) GetPollEnabled() bool {
	return GetEnvBool("POLL_ENABLED", true)
}

func (Payment) GetMaxPaymentAmount() float64 {
	return GetEnvFloat("MAX_PAYMENT_AMOUNT", 10000)
}
