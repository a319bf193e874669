package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// fakeTicketRepo stores tickets in memory and enforces the ticket_number
// uniqueness constraint the way the database does.
type fakeTicketRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Ticket
	byNumber  map[string]string
	nextID    int
	createErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		byID:     make(map[string]*domain.Ticket),
		byNumber: make(map[string]string),
	}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byNumber[ticket.TicketNumber]; exists {
		return repository.ErrDuplicateTicketNumber
	}
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	stored := *ticket
	r.byID[ticket.ID] = &stored
	r.byNumber[ticket.TicketNumber] = ticket.ID
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ticket.ID]; !ok {
		return errors.New("not found")
	}
	stored := *ticket
	r.byID[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListByEmailSince(_ context.Context, email string, since time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.byID {
		if ticket.Email == email && !ticket.Created.Before(since) {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) ListByProject(_ context.Context, project string, _, _ int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.byID {
		if ticket.Project == project {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) seed(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("seed-%d", r.nextID)
	r.byID[id] = &domain.Ticket{ID: id, TicketNumber: number}
	r.byNumber[number] = id
}

type fakeUserRepo struct {
	usersByProject map[string][]domain.User
	listErr        error
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return nil, errors.New("not found")
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return nil, errors.New("not found")
}

func (r *fakeUserRepo) ListByProject(_ context.Context, project string, roles ...domain.Role) ([]domain.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	users := r.usersByProject[project]
	if len(roles) == 0 {
		return users, nil
	}
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	var filtered []domain.User
	for _, user := range users {
		if allowed[user.Role] {
			filtered = append(filtered, user)
		}
	}
	return filtered, nil
}

type fakeProjectRepo struct {
	projects map[string]*domain.Project
}

func (r *fakeProjectRepo) GetByName(_ context.Context, name string) (*domain.Project, error) {
	project, ok := r.projects[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return project, nil
}

type testEnv struct {
	svc     *TicketService
	tickets *fakeTicketRepo
	counter *memCounterStore
	users   *fakeUserRepo
}

func newTestEnv() *testEnv {
	counter := newMemCounterStore()
	tickets := newFakeTicketRepo()
	users := &fakeUserRepo{usersByProject: map[string][]domain.User{}}
	projects := &fakeProjectRepo{projects: map[string]*domain.Project{}}
	logger := zap.NewNop()

	projectService := NewProjectService(projects, users, logger)
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Allocator:  NewNumberAllocator(counter, logger),
		Projects:   projectService,
		Dispatcher: nil,
		Logger:     logger,
	})
	return &testEnv{svc: svc, tickets: tickets, counter: counter, users: users}
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		Subject:     "Cannot log in",
		Email:       "client@example.com",
		Description: "login fails with error 500",
		TypeOfIssue: "Incident",
	}
}

var requester = domain.Identity{ID: "user-1", Email: "client@example.com", Role: domain.RoleClient}

func TestCreateValidationFailsWithoutAllocation(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name  string
		chng  func(*TicketCreateInput)
		field string
	}{
		{"empty subject", func(in *TicketCreateInput) { in.Subject = " " }, "subject"},
		{"empty email", func(in *TicketCreateInput) { in.Email = "" }, "email"},
		{"empty description", func(in *TicketCreateInput) { in.Description = "" }, "description"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.chng(&input)
			_, _, err := env.svc.Create(context.Background(), requester, input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var domainErr *util.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
			missing, _ := domainErr.Details["missing"].([]string)
			found := false
			for _, field := range missing {
				if field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("details %v do not name missing field %q", domainErr.Details, tc.field)
			}
		})
	}

	if env.counter.calls != 0 {
		t.Fatalf("validation failure must not touch the counter store, saw %d calls", env.counter.calls)
	}
	if len(env.tickets.byID) != 0 {
		t.Fatalf("validation failure must not persist tickets, saw %d", len(env.tickets.byID))
	}
}

func TestCreateAssignsFamilyNumberAndDefaults(t *testing.T) {
	env := newTestEnv()

	ticket, _, err := env.svc.Create(context.Background(), requester, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.TicketNumber != "IN100001" {
		t.Errorf("ticket number = %q, want IN100001", ticket.TicketNumber)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %q, want Open", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %q, want Medium", ticket.Priority)
	}
	if ticket.Project != "General" {
		t.Errorf("project = %q, want General", ticket.Project)
	}
	if ticket.Starred {
		t.Error("new ticket must not be starred")
	}
	if !ticket.Created.Equal(ticket.LastUpdated) {
		t.Error("created and lastUpdated must match on a new ticket")
	}
	if ticket.ID == "" {
		t.Error("ticket id not assigned")
	}
}

func TestCreateRetriesOnDuplicateNumber(t *testing.T) {
	env := newTestEnv()
	// Another writer already committed the number the first allocation will
	// produce; the second allocation must win.
	env.tickets.seed("IN100001")

	ticket, _, err := env.svc.Create(context.Background(), requester, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.TicketNumber != "IN100002" {
		t.Errorf("ticket number = %q, want IN100002", ticket.TicketNumber)
	}
	if env.counter.calls != 2 {
		t.Errorf("expected 2 allocations (collision then success), got %d", env.counter.calls)
	}
}

func TestCreateExhaustsRetriesAfterThreeCollisions(t *testing.T) {
	env := newTestEnv()
	env.tickets.seed("IN100001")
	env.tickets.seed("IN100002")
	env.tickets.seed("IN100003")

	_, _, err := env.svc.Create(context.Background(), requester, validInput())
	if err == nil {
		t.Fatal("expected exhausted-retries failure")
	}
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CREATE_RETRIES_EXHAUSTED" {
		t.Fatalf("expected CREATE_RETRIES_EXHAUSTED, got %v", err)
	}
	if !errors.Is(err, repository.ErrDuplicateTicketNumber) {
		t.Error("exhausted error must carry the last collision error")
	}
	if env.counter.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", env.counter.calls)
	}
}

func TestCreateAbortsOnNonCollisionError(t *testing.T) {
	env := newTestEnv()
	storeErr := errors.New("connection reset")
	env.tickets.createErr = storeErr

	_, _, err := env.svc.Create(context.Background(), requester, validInput())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected the persistence error to surface, got %v", err)
	}
	if env.counter.calls != 1 {
		t.Errorf("non-collision failure must not retry, got %d allocations", env.counter.calls)
	}
}

func TestCreateSucceedsOnCounterOutage(t *testing.T) {
	env := newTestEnv()
	env.counter.err = errors.New("counter store down")

	ticket, _, err := env.svc.Create(context.Background(), requester, validInput())
	if err != nil {
		t.Fatalf("Create must survive a counter outage: %v", err)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "IN") {
		t.Errorf("fallback number %q missing family prefix", ticket.TicketNumber)
	}
	if len(ticket.TicketNumber) < 12 {
		t.Errorf("fallback number %q too short for a timestamp", ticket.TicketNumber)
	}
}

func TestCreateRecipientsBestEffort(t *testing.T) {
	env := newTestEnv()
	env.users.listErr = errors.New("user lookup down")

	input := validInput()
	input.Project = "Apollo"
	ticket, recipients, err := env.svc.Create(context.Background(), requester, input)
	if err != nil {
		t.Fatalf("Create must not fail on recipient lookup errors: %v", err)
	}
	if len(recipients) != 0 {
		t.Errorf("expected empty recipients, got %v", recipients)
	}
	if ticket.TicketNumber == "" {
		t.Error("ticket not created")
	}
}

func TestCreateReturnsProjectMemberEmails(t *testing.T) {
	env := newTestEnv()
	env.users.usersByProject["Apollo"] = []domain.User{
		{Email: "pm@example.com", Role: domain.RoleProjectManager},
		{Email: "dev@example.com", Role: domain.RoleEmployee},
		{Email: "", Role: domain.RoleClient},
	}

	input := validInput()
	input.Project = "Apollo"
	_, recipients, err := env.svc.Create(context.Background(), requester, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{"pm@example.com", "dev@example.com"}
	if len(recipients) != len(want) {
		t.Fatalf("recipients = %v, want %v", recipients, want)
	}
	for i := range want {
		if recipients[i] != want[i] {
			t.Fatalf("recipients = %v, want %v", recipients, want)
		}
	}
}

func TestCreateConcurrentTicketsGetDistinctNumbers(t *testing.T) {
	env := newTestEnv()

	const n = 25
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, _, err := env.svc.Create(context.Background(), requester, validInput())
			if err != nil {
				t.Errorf("Create: %v", err)
				numbers <- ""
				return
			}
			numbers <- ticket.TicketNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, n)
	for number := range numbers {
		if number == "" {
			continue
		}
		if seen[number] {
			t.Fatalf("duplicate ticket number %q issued", number)
		}
		seen[number] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct numbers, got %d", n, len(seen))
	}
}

func TestAddCommentAppendsAndStampsAuthor(t *testing.T) {
	env := newTestEnv()
	ticket, _, err := env.svc.Create(context.Background(), requester, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	comment, err := env.svc.AddComment(context.Background(), requester, ticket.ID, CommentInput{
		Message: "any update on this?",
	})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if comment.AuthorEmail != requester.Email {
		t.Errorf("author email = %q, want %q", comment.AuthorEmail, requester.Email)
	}

	got, err := env.svc.Get(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Message != "any update on this?" {
		t.Fatalf("comment not persisted: %+v", got.Comments)
	}
	if !got.LastUpdated.After(got.Created) && !got.LastUpdated.Equal(got.Created) {
		t.Error("lastUpdated not refreshed")
	}
}

func TestEditCommentByIndex(t *testing.T) {
	env := newTestEnv()
	ticket, _, err := env.svc.Create(context.Background(), requester, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.svc.AddComment(context.Background(), requester, ticket.ID, CommentInput{Message: "first"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	edited, err := env.svc.EditComment(context.Background(), requester, ticket.ID, 0, "first (edited)")
	if err != nil {
		t.Fatalf("EditComment: %v", err)
	}
	if edited.Message != "first (edited)" {
		t.Errorf("message = %q", edited.Message)
	}
	if edited.LastEditedAt == nil || edited.LastEditedBy != requester.Email {
		t.Errorf("edit metadata not stamped: %+v", edited)
	}

	if _, err := env.svc.EditComment(context.Background(), requester, ticket.ID, 5, "nope"); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestIsDuplicateWithinWindow(t *testing.T) {
	env := newTestEnv()
	if _, _, err := env.svc.Create(context.Background(), requester, validInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup, err := env.svc.IsDuplicate(context.Background(), "Cannot log in", "client@example.com")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !dup {
		t.Error("expected duplicate within 24h window")
	}

	dup, err = env.svc.IsDuplicate(context.Background(), "Different subject", "client@example.com")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("different subject must not be a duplicate")
	}

	if dup, _ := env.svc.IsDuplicate(context.Background(), "", ""); dup {
		t.Error("blank query must not report a duplicate")
	}
}

func TestAssignmentCandidatesDeduplicatedAndLabelled(t *testing.T) {
	env := newTestEnv()
	env.users.usersByProject["Apollo"] = []domain.User{
		{ID: "u1", Email: "dev@example.com", FirstName: "Dana", LastName: "Lee", Role: domain.RoleEmployee},
		{ID: "u2", Email: "dev@example.com", FirstName: "Dana", LastName: "Lee", Role: domain.RoleEmployee},
		{ID: "u3", Email: "pm@example.com", FirstName: "Pat", Role: domain.RoleProjectManager},
		{ID: "u4", Email: "client@example.com", Role: domain.RoleClient},
	}
	input := validInput()
	input.Project = "Apollo"
	ticket, _, err := env.svc.Create(context.Background(), requester, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	candidates, err := env.svc.AssignmentCandidates(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("AssignmentCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", candidates)
	}
	byEmail := map[string]AssignmentCandidate{}
	for _, candidate := range candidates {
		byEmail[candidate.Email] = candidate
	}
	if byEmail["dev@example.com"].Name != "Dana Lee" {
		t.Errorf("employee name = %q", byEmail["dev@example.com"].Name)
	}
	if byEmail["pm@example.com"].Name != "Pat (Project Manager)" {
		t.Errorf("manager name = %q", byEmail["pm@example.com"].Name)
	}
}
