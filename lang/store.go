package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Change lists the store names touched by one mutation.
type Change struct {
	Values    []string
	Functions []string
}

// Empty reports whether c names nothing.
func (c Change) Empty() bool { return len(c.Values) == 0 && len(c.Functions) == 0 }

// Merge returns the union of c and o, sorted and without duplicates.
func (c Change) Merge(o Change) Change {
	union := func(a, b []string) []string {
		out := append(slices.Clone(a), b...)
		slices.Sort(out)

		return slices.Compact(out)
	}

	return Change{
		Values:    union(c.Values, o.Values),
		Functions: union(c.Functions, o.Functions),
	}
}

// LogValue implements slog.LogValuer.
func (c Change) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("values", c.Values),
		slog.Any("functions", c.Functions),
	)
}

// Store holds the named values and functions that expressions read. It is
// safe for concurrent use, and every mutation notifies each subscriber
// exactly once.
type Store struct {
	mu        sync.RWMutex
	values    map[string]any
	functions map[string]Function

	subMu   sync.Mutex
	subs    map[int]func(context.Context, Change)
	nextSub int
}

// NewStore returns a store whose functions are pre-populated with the
// built-ins. Callers may override any of them.
func NewStore() *Store {
	return &Store{
		values:    make(map[string]any),
		functions: Builtins(),
		subs:      make(map[int]func(context.Context, Change)),
	}
}

// Value returns the value stored under name.
func (s *Store) Value(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[name]

	return v, ok
}

// Function returns the function stored under name.
func (s *Store) Function(name string) (Function, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn, ok := s.functions[name]

	return fn, ok
}

// Values returns a snapshot of all values.
func (s *Store) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.values)
}

// ValueNames returns the sorted value names.
func (s *Store) ValueNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.values))
}

// FunctionNames returns the sorted function names.
func (s *Store) FunctionNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.functions))
}

// Set stores v under name.
func (s *Store) Set(ctx context.Context, name string, v any) Change {
	return s.SetValues(ctx, map[string]any{name: v})
}

// SetValues stores every entry of kv as a single mutation.
func (s *Store) SetValues(ctx context.Context, kv map[string]any) Change {
	s.mu.Lock()

	for k, v := range kv {
		s.values[k] = v
	}

	s.mu.Unlock()

	return s.notify(ctx, Change{Values: slices.Sorted(maps.Keys(kv))})
}

// SetFunc stores fn under name. fn may be a [Function] or any Go func
// value; anything else fails with [ErrNotCallable].
func (s *Store) SetFunc(ctx context.Context, name string, fn any) (Change, error) {
	f, ok := AsFunction(fn)
	if !ok {
		return Change{}, ErrNotCallable.With(slog.String("name", name))
	}

	s.mu.Lock()
	s.functions[name] = f
	s.mu.Unlock()

	return s.notify(ctx, Change{Functions: []string{name}}), nil
}

// Delete removes the named values.
func (s *Store) Delete(ctx context.Context, names ...string) Change {
	s.mu.Lock()

	for _, n := range names {
		delete(s.values, n)
	}

	s.mu.Unlock()

	return s.notify(ctx, Change{Values: sortedSet(names)})
}

// DeleteFunc removes the named functions.
func (s *Store) DeleteFunc(ctx context.Context, names ...string) Change {
	s.mu.Lock()

	for _, n := range names {
		delete(s.functions, n)
	}

	s.mu.Unlock()

	return s.notify(ctx, Change{Functions: sortedSet(names)})
}

// Subscribe registers fn to receive every subsequent change. Subscribers
// run synchronously, in subscription order, after the mutation is applied.
// The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(context.Context, Change)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		delete(s.subs, id)
	}
}

func (s *Store) notify(ctx context.Context, c Change) Change {
	s.subMu.Lock()

	ids := slices.Sorted(maps.Keys(s.subs))
	fns := make([]func(context.Context, Change), len(ids))

	for i, id := range ids {
		fns[i] = s.subs[id]
	}

	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ctx, c)
	}

	return c
}

func sortedSet(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)

	return slices.Compact(out)
}
