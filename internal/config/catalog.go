package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Catalog is the declarative set of feature flags and plans seeded into the
// tenant store on startup.
type Catalog struct {
	Flags []CatalogFlag `mapstructure:"flags"`
	Plans []CatalogPlan `mapstructure:"plans"`
}

type CatalogFlag struct {
	Key         string `mapstructure:"key"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Global      bool   `mapstructure:"global"`
}

type CatalogPlan struct {
	Name        string           `mapstructure:"name"`
	DisplayName string           `mapstructure:"display_name"`
	Limits      map[string]int64 `mapstructure:"limits"`
	Features    []string         `mapstructure:"features"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Flags: []CatalogFlag{
			{Key: "custom_expiration", Name: "Custom expiration", Description: "Set a custom expiry date on a fanflet"},
			{Key: "multiple_theme_colors", Name: "Multiple theme colors", Description: "Use more than one accent color"},
			{Key: "survey_questions", Name: "Survey questions", Description: "Attach survey questions to a fanflet"},
			{Key: "analytics_basic", Name: "Basic analytics", Description: "Page views and resource clicks", Global: true},
		},
		Plans: []CatalogPlan{
			{
				Name:        "free",
				DisplayName: "Free",
				Limits:      map[string]int64{"max_fanflets": 3, "max_resources_per_fanflet": 5},
			},
			{
				Name:        "pro",
				DisplayName: "Pro",
				Limits:      map[string]int64{"max_fanflets": 20, "max_resources_per_fanflet": 50},
				Features:    []string{"custom_expiration", "multiple_theme_colors", "survey_questions"},
			},
		},
	}
}

// CatalogHolder keeps the current catalog and swaps it on valid reloads.
type CatalogHolder struct {
	current atomic.Value // holds Catalog

	mu        sync.Mutex
	listeners []func(Catalog)
}

func NewCatalogHolder() (*CatalogHolder, error) {
	return newCatalogHolder("/etc/fanflet", ".")
}

func newCatalogHolder(paths ...string) (*CatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("FANFLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &CatalogHolder{}

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	if !fileFound {
		holder.current.Store(DefaultCatalog())
		return holder, nil
	}

	cfg, err := decodeCatalog(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCatalog(v)
		if err != nil {
			log.Printf("[catalog] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[catalog] reloaded from %s", e.Name)
		holder.notify(updated)
	})

	return holder, nil
}

func (h *CatalogHolder) Get() Catalog {
	return h.current.Load().(Catalog)
}

// OnChange registers fn to run after every successful reload.
func (h *CatalogHolder) OnChange(fn func(Catalog)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *CatalogHolder) notify(c Catalog) {
	h.mu.Lock()
	listeners := append([]func(Catalog){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

func decodeCatalog(v *viper.Viper) (Catalog, error) {
	var cfg Catalog
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return Catalog{}, err
	}
	cfg = normalizeCatalog(cfg)
	if err := ValidateCatalog(cfg); err != nil {
		return Catalog{}, err
	}
	return cfg, nil
}

func normalizeCatalog(c Catalog) Catalog {
	for i := range c.Flags {
		c.Flags[i].Key = strings.ToLower(strings.TrimSpace(c.Flags[i].Key))
		c.Flags[i].Name = strings.TrimSpace(c.Flags[i].Name)
	}
	for i := range c.Plans {
		c.Plans[i].Name = strings.ToLower(strings.TrimSpace(c.Plans[i].Name))
		for j := range c.Plans[i].Features {
			c.Plans[i].Features[j] = strings.ToLower(strings.TrimSpace(c.Plans[i].Features[j]))
		}
	}
	return c
}

func ValidateCatalog(c Catalog) error {
	flags := make(map[string]struct{}, len(c.Flags))
	for _, f := range c.Flags {
		if f.Key == "" {
			return errors.New("catalog.flags: key cannot be empty")
		}
		if _, ok := flags[f.Key]; ok {
			return fmt.Errorf("catalog.flags: duplicate key %q", f.Key)
		}
		flags[f.Key] = struct{}{}
	}

	plans := make(map[string]struct{}, len(c.Plans))
	for _, p := range c.Plans {
		if p.Name == "" {
			return errors.New("catalog.plans: name cannot be empty")
		}
		if _, ok := plans[p.Name]; ok {
			return fmt.Errorf("catalog.plans: duplicate plan %q", p.Name)
		}
		plans[p.Name] = struct{}{}
		for _, key := range p.Features {
			if _, ok := flags[key]; !ok {
				return fmt.Errorf("catalog.plans.%s: unknown feature %q", p.Name, key)
			}
		}
	}
	return nil
}
