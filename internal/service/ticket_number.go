package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// NumberFamily maps one issue-type classification to its prefix, counter key
// and starting value. Starting values occupy disjoint ranges so a display
// number reveals its family even without the prefix.
type NumberFamily struct {
	Prefix     string
	CounterKey string
	Start      int64
}

var (
	familyIncident       = NumberFamily{Prefix: "IN", CounterKey: "incident_counter", Start: 100000}
	familyServiceRequest = NumberFamily{Prefix: "SR", CounterKey: "service_counter", Start: 200000}
	familyChangeRequest  = NumberFamily{Prefix: "CR", CounterKey: "change_counter", Start: 300000}
)

// FamilyForIssueType resolves a free-form classification to a family.
// Unrecognized values map to the incident family.
func FamilyForIssueType(typeOfIssue string) NumberFamily {
	normalized := strings.ToLower(strings.Join(strings.Fields(typeOfIssue), ""))
	switch normalized {
	case "servicerequest":
		return familyServiceRequest
	case "changerequest":
		return familyChangeRequest
	default:
		return familyIncident
	}
}

// NumberAllocator issues display numbers for new tickets.
type NumberAllocator struct {
	counters repository.CounterStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewNumberAllocator constructs the allocator.
func NewNumberAllocator(counters repository.CounterStore, logger *zap.Logger) *NumberAllocator {
	return &NumberAllocator{counters: counters, logger: logger, now: time.Now}
}

// Allocate returns the next display number for the classification's family.
// The counter store's atomic increment totally orders concurrent allocations
// within one family. A store failure must not block ticket creation: the
// degraded path derives a number from the current unix milliseconds instead,
// trading uniqueness guarantees for availability. The ticket_number unique
// constraint still rejects the rare fallback collision at insert time.
func (a *NumberAllocator) Allocate(ctx context.Context, typeOfIssue string) string {
	family := FamilyForIssueType(typeOfIssue)

	value, err := a.counters.Next(ctx, family.CounterKey, family.Start)
	if err != nil {
		a.logger.Warn("counter store unavailable, falling back to timestamp number",
			zap.String("counter", family.CounterKey),
			zap.Error(err))
		return family.Prefix + strconv.FormatInt(a.now().UnixMilli(), 10)
	}
	return family.Prefix + strconv.FormatInt(value, 10)
}
