package main

import (
	"context"
	"time"

	"github.com/codetesla51/gatez/gate"
	"github.com/codetesla51/gatez/store"
)

func main() {
	s := store.NewMemoryStore()
	defer s.Close()

	limiter, err := gate.NewKeyed(gate.Config{
		MaxAttempts: 3,
		Window:      time.Minute,
		Cooldown:    30 * time.Second,
	}, s)
	if err != nil {
		println("Error creating limiter:", err.Error())
		return
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		res, err := limiter.Allow(ctx, "user123")
		if err != nil {
			println("Error checking gate:", err.Error())
			continue
		}
		if res.Allowed {
			println("Attempt", i+1, "allowed for user123, remaining", res.Remaining)
		} else {
			println("Attempt", i+1, "denied for user123, retry in", res.RetryAfterSeconds(), "seconds")
		}
	}

	err = limiter.Reset(ctx, "user123")
	if err != nil {
		println("Error resetting gate:", err.Error())
	} else {
		println("Gate reset for user123")
	}
}
