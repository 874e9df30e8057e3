package controllers

import (
	"sync"
	"testing"

	"github.com/mbrth/iasante/config"
	"github.com/mbrth/iasante/services"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestProfilesReturnsOneSharedInstance(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	config.DB = db

	const callers = 8
	got := make([]*services.ProfileService, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = Profiles()
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if got[i] != got[0] {
			t.Fatal("concurrent callers must all see the same profile store")
		}
	}
}
