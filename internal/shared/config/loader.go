package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader reads one yaml file into a mapstructure-tagged struct T. Keys absent
// from the file keep the value they had in the defaults passed to Load.
type Loader[T any] struct {
	v        *viper.Viper
	defaults T

	mu       sync.RWMutex
	cur      T
	onChange []func(T)
}

// Load reads configPath on top of defaults. When watch is true the file is
// watched and every successful reload is published to OnChange callbacks.
func Load[T any](configPath string, defaults T, watch bool) (*Loader[T], error) {
	if !fileExist(configPath) {
		return nil, fmt.Errorf("config file not exist, configPath=%v", configPath)
	}

	l := &Loader[T]{v: viper.New(), defaults: defaults}
	l.v.SetConfigFile(configPath)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	cur, err := l.decode()
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	l.cur = cur

	if watch {
		l.v.OnConfigChange(func(e fsnotify.Event) {
			next, err := l.decode()
			if err != nil {
				return
			}
			l.mu.Lock()
			l.cur = next
			fns := append([]func(T){}, l.onChange...)
			l.mu.Unlock()
			for _, fn := range fns {
				fn(next)
			}
		})
		l.v.WatchConfig()
	}
	return l, nil
}

func (l *Loader[T]) decode() (T, error) {
	next := l.defaults
	if err := l.v.Unmarshal(&next); err != nil {
		var zero T
		return zero, err
	}
	return next, nil
}

// Current returns the latest decoded value.
func (l *Loader[T]) Current() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// OnChange registers fn to run after each successful reload.
func (l *Loader[T]) OnChange(fn func(T)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}
