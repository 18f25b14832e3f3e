package main

import (
	"ratelock/internal/app"

	"github.com/sirupsen/logrus"
)

// @title			ratelock API
// @version		1.0
// @description	Currency conversion against audited exchange rate snapshots.
// @BasePath		/v1
func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Fatal("ratelock stopped")
	}
}
