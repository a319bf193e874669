package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// memCounterStore is an in-memory CounterStore with the same atomicity
// contract as the real backends.
type memCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{values: make(map[string]int64)}
}

func (s *memCounterStore) Next(_ context.Context, key string, seed int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if _, ok := s.values[key]; !ok {
		s.values[key] = seed
	}
	s.values[key]++
	return s.values[key], nil
}

func TestFamilyForIssueType(t *testing.T) {
	tests := []struct {
		input  string
		prefix string
		key    string
		start  int64
	}{
		{"incident", "IN", "incident_counter", 100000},
		{"Incident", "IN", "incident_counter", 100000},
		{"  Service Request ", "SR", "service_counter", 200000},
		{"servicerequest", "SR", "service_counter", 200000},
		{"Change Request", "CR", "change_counter", 300000},
		{"CHANGE  REQUEST", "CR", "change_counter", 300000},
		{"", "IN", "incident_counter", 100000},
		{"something else", "IN", "incident_counter", 100000},
	}
	for _, tc := range tests {
		family := FamilyForIssueType(tc.input)
		if family.Prefix != tc.prefix || family.CounterKey != tc.key || family.Start != tc.start {
			t.Errorf("FamilyForIssueType(%q) = %+v, want prefix=%s key=%s start=%d",
				tc.input, family, tc.prefix, tc.key, tc.start)
		}
	}
}

func TestAllocateFirstValuesAreRangeDisjoint(t *testing.T) {
	store := newMemCounterStore()
	allocator := NewNumberAllocator(store, zap.NewNop())

	tests := []struct {
		issueType string
		want      string
	}{
		{"incident", "IN100001"},
		{"service request", "SR200001"},
		{"change request", "CR300001"},
	}
	for _, tc := range tests {
		got := allocator.Allocate(context.Background(), tc.issueType)
		if got != tc.want {
			t.Errorf("Allocate(%q) = %q, want %q", tc.issueType, got, tc.want)
		}
	}
}

func TestAllocateMonotonicPerFamily(t *testing.T) {
	store := newMemCounterStore()
	allocator := NewNumberAllocator(store, zap.NewNop())

	prev := int64(0)
	for i := 0; i < 5; i++ {
		number := allocator.Allocate(context.Background(), "incident")
		value, err := strconv.ParseInt(number[2:], 10, 64)
		if err != nil {
			t.Fatalf("unexpected number %q: %v", number, err)
		}
		if value <= prev {
			t.Fatalf("allocation %d not increasing: got %d after %d", i, value, prev)
		}
		prev = value
	}
}

func TestAllocateConcurrentDistinctConsecutive(t *testing.T) {
	store := newMemCounterStore()
	allocator := NewNumberAllocator(store, zap.NewNop())

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- allocator.Allocate(context.Background(), "incident")
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for number := range results {
		if seen[number] {
			t.Fatalf("duplicate allocation %q", number)
		}
		seen[number] = true
	}
	for i := int64(1); i <= n; i++ {
		want := "IN" + strconv.FormatInt(100000+i, 10)
		if !seen[want] {
			t.Errorf("missing expected allocation %q", want)
		}
	}
}

func TestAllocateFallbackOnStoreFailure(t *testing.T) {
	store := newMemCounterStore()
	store.err = errors.New("counter store down")
	allocator := NewNumberAllocator(store, zap.NewNop())

	number := allocator.Allocate(context.Background(), "service request")
	pattern := regexp.MustCompile(`^SR\d{13,}$`)
	if !pattern.MatchString(number) {
		t.Fatalf("fallback number %q does not look like prefix+unix-millis", number)
	}
}
