package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (a T value)
)

// Load fills cfg from environment variables. The first call for a type parses
// the environment; later calls copy the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	dotenvOnce.Do(loadDotenv)

	key := reflect.TypeFor[T]()
	if v, ok := cache.Load(key); ok {
		*cfg = v.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	v, _ := cache.LoadOrStore(key, parsed)
	*cfg = v.(T)
	return nil
}

// MustLoad is like Load but panics on failure.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Reset drops all cached configurations.
func Reset() {
	cache.Range(func(key, _ any) bool {
		cache.Delete(key)
		return true
	})
}

// A missing or unreadable .env file is ignored; real environment variables
// always take precedence over it.
func loadDotenv() {
	_ = godotenv.Load()
}
