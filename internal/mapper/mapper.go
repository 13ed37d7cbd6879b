// Package mapper converts persistence entities into response DTOs using rules
// registered per (source type, destination type) pair.
package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var ErrNoMapping = errors.New("no mapping registered")

type rule struct {
	from string
	fn   func(src any) (any, error)
}

type mapping struct {
	auto       bool
	properties map[string]rule
}

type pair struct {
	src reflect.Type
	dst reflect.Type
}

// Registry holds the registered mappings. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	mappings map[pair]*mapping
}

func NewRegistry() *Registry {
	return &Registry{mappings: make(map[pair]*mapping)}
}

type Option func(*mapping)

// WithoutAuto disables copying of same-named fields; only explicit rules apply.
func WithoutAuto() Option {
	return func(m *mapping) {
		m.auto = false
	}
}

// WithRename copies the source field src into the destination field dst.
func WithRename(dst, src string) Option {
	return func(m *mapping) {
		m.properties[dst] = rule{from: src}
	}
}

// WithFunc computes the destination field dst from the whole source value. An error
// returned by fn fails the whole Map call.
func WithFunc[S any](dst string, fn func(S) (any, error)) Option {
	return func(m *mapping) {
		m.properties[dst] = rule{fn: func(src any) (any, error) { return fn(src.(S)) }}
	}
}

// Register adds the mapping from S to D, replacing any previous mapping for the pair.
func Register[S, D any](r *Registry, opts ...Option) {
	m := &mapping{auto: true, properties: make(map[string]rule)}
	for _, opt := range opts {
		opt(m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[pairOf[S, D]()] = m
}

func pairOf[S, D any]() pair {
	return pair{src: reflect.TypeFor[S](), dst: reflect.TypeFor[D]()}
}

func (r *Registry) lookup(p pair) (*mapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[p]
	return m, ok
}

// Map converts src into a D. Every exported field of D is resolved in order:
// explicit rule, then a same-named source field when auto is enabled, else the zero value.
func Map[S, D any](r *Registry, src S) (D, error) {
	var dst D

	p := pairOf[S, D]()
	m, ok := r.lookup(p)
	if !ok {
		return dst, fmt.Errorf("%w: %s -> %s", ErrNoMapping, p.src, p.dst)
	}

	dv := reflect.ValueOf(&dst).Elem()
	if dv.Kind() != reflect.Struct {
		return dst, fmt.Errorf("mapper: destination %s is not a struct", p.dst)
	}

	sv := reflect.ValueOf(src)
	for sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			return dst, fmt.Errorf("mapper: nil source %s", p.src)
		}
		sv = sv.Elem()
	}
	if sv.Kind() != reflect.Struct {
		return dst, fmt.Errorf("mapper: source %s is not a struct", p.src)
	}

	dt := dv.Type()
	for i := 0; i < dt.NumField(); i++ {
		field := dt.Field(i)
		if !field.IsExported() {
			continue
		}

		var value reflect.Value
		if rl, ok := m.properties[field.Name]; ok {
			if rl.fn != nil {
				out, err := rl.fn(src)
				if err != nil {
					return dst, fmt.Errorf("mapper: field %s of %s: %w", field.Name, p.dst, err)
				}
				if out == nil {
					continue
				}
				value = reflect.ValueOf(out)
			} else {
				value = sv.FieldByName(rl.from)
				if !value.IsValid() {
					return dst, fmt.Errorf("mapper: source %s has no field %s", p.src, rl.from)
				}
			}
		} else if m.auto {
			sf, ok := sv.Type().FieldByName(field.Name)
			if !ok || !sf.IsExported() {
				continue
			}
			value = sv.FieldByIndex(sf.Index)
		} else {
			continue
		}

		if err := assign(dv.Field(i), value); err != nil {
			return dst, fmt.Errorf("mapper: field %s of %s: %w", field.Name, p.dst, err)
		}
	}

	return dst, nil
}

// MapSlice maps every element of src in order. The first element that fails to map
// aborts the batch and its error is returned.
func MapSlice[S, D any](r *Registry, src []S) ([]D, error) {
	out := make([]D, 0, len(src))
	for i, s := range src {
		d, err := Map[S, D](r, s)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, d)
	}

	return out, nil
}

func assign(dst, value reflect.Value) error {
	vt, dt := value.Type(), dst.Type()
	switch {
	case vt.AssignableTo(dt):
		dst.Set(value)
	case vt.ConvertibleTo(dt) && vt.Kind() == dt.Kind():
		dst.Set(value.Convert(dt))
	case dt.Kind() == reflect.Pointer && vt.AssignableTo(dt.Elem()):
		ptr := reflect.New(dt.Elem())
		ptr.Elem().Set(value)
		dst.Set(ptr)
	case vt.Kind() == reflect.Pointer && vt.Elem().AssignableTo(dt):
		if !value.IsNil() {
			dst.Set(value.Elem())
		}
	default:
		return fmt.Errorf("cannot assign %s to %s", vt, dt)
	}

	return nil
}
