package netcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Properties is a small key/value store persisted as a YAML mapping. It
// holds the per-interface DNS and gateway entries other processes read.
type Properties struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// OpenProperties loads path if it exists. An empty path keeps the store in memory.
func OpenProperties(path string) (*Properties, error) {
	p := &Properties{path: path, values: map[string]string{}}
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p.values); err != nil {
		return nil, fmt.Errorf("parse properties %s: %w", path, err)
	}
	if p.values == nil {
		p.values = map[string]string{}
	}
	return p, nil
}

// Get returns the value stored under key.
func (p *Properties) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

// Set stores every pair in kv and saves once.
func (p *Properties) Set(kv map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range kv {
		p.values[k] = v
	}
	return p.save()
}

// Delete removes keys and saves once.
func (p *Properties) Delete(keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.values, k)
	}
	return p.save()
}

// Keys returns the stored keys in order.
func (p *Properties) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Properties) save() error {
	if p.path == "" {
		return nil
	}
	raw, err := yaml.Marshal(p.values)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".properties-*")
	if err != nil {
		return fmt.Errorf("save properties: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save properties: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save properties: %w", err)
	}
	return os.Rename(tmp.Name(), p.path)
}

// DNS1Key and friends name the properties written for an interface.
func DNS1Key(iface string) string    { return "net." + iface + ".dns1" }
func DNS2Key(iface string) string    { return "net." + iface + ".dns2" }
func GatewayKey(iface string) string { return "net." + iface + ".gw" }
