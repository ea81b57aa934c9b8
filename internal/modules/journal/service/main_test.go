package service

import (
	"os"
	"testing"

	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
