package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: make(map[int64]domain.User)}
}

func (m *mockUserRepo) addUser(name, email string, role domain.Role) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := domain.User{
		ID:        m.nextID,
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.users[user.ID] = user
	m.nextID++
	return user
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return uniqueViolation()
		}
	}
	user.ID = m.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	m.nextID++
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// mockTicketRepo is an in-memory TicketRepository that fills the join fields
// from the companion user repo and fixed reference names on read.
type mockTicketRepo struct {
	mu            sync.Mutex
	nextID        int64
	tickets       map[int64]domain.Ticket
	users         *mockUserRepo
	statusNames   map[int64]string
	priorityNames map[int64]string
}

func newMockTicketRepo(users *mockUserRepo) *mockTicketRepo {
	return &mockTicketRepo{
		nextID:        1,
		tickets:       make(map[int64]domain.Ticket),
		users:         users,
		statusNames:   map[int64]string{1: "open", 2: "closed"},
		priorityNames: map[int64]string{1: "low", 2: "medium", 3: "high"},
	}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *domain.Ticket) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *ticket
	stored.ID = m.nextID
	// spread timestamps so newest-first ordering is deterministic
	stored.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.tickets[stored.ID] = stored
	m.nextID++
	return stored.ID, nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	m.mu.Lock()
	ticket, ok := m.tickets[id]
	m.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	m.enrich(ctx, &ticket)
	return &ticket, nil
}

func (m *mockTicketRepo) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	m.mu.Lock()
	result := make([]domain.Ticket, 0, len(m.tickets))
	for _, ticket := range m.tickets {
		result = append(result, ticket)
	}
	m.mu.Unlock()
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	for i := range result {
		m.enrich(ctx, &result[i])
	}
	return result, nil
}

func (m *mockTicketRepo) Update(_ context.Context, id int64, changes repository.TicketChanges) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok || changes.Empty() {
		return 0, nil
	}
	if changes.Subject != nil {
		ticket.Subject = *changes.Subject
	}
	if changes.Description != nil {
		ticket.Description = *changes.Description
	}
	if changes.StatusID != nil {
		ticket.StatusID = *changes.StatusID
	}
	if changes.PriorityID != nil {
		ticket.PriorityID = *changes.PriorityID
	}
	if changes.AssignedTo != nil {
		ticket.AssignedTo = *changes.AssignedTo
	}
	now := time.Now()
	ticket.UpdatedAt = &now
	m.tickets[id] = ticket
	return 1, nil
}

func (m *mockTicketRepo) Delete(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[id]; !ok {
		return 0, nil
	}
	delete(m.tickets, id)
	return 1, nil
}

func (m *mockTicketRepo) enrich(ctx context.Context, ticket *domain.Ticket) {
	ticket.StatusName = m.statusNames[ticket.StatusID]
	ticket.PriorityName = m.priorityNames[ticket.PriorityID]
	if creator, err := m.users.GetByID(ctx, ticket.CreatedBy); err == nil {
		ticket.CreatedByName = creator.Name
		ticket.CreatedByEmail = creator.Email
	}
	if ticket.AssignedTo != nil {
		if assignee, err := m.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			ticket.AssignedToName = &assignee.Name
			ticket.AssignedToEmail = &assignee.Email
		}
	}
}

// mockCommentRepo is an in-memory CommentRepository.
type mockCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments []domain.Comment
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{nextID: 1}
}

func (m *mockCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment.ID = m.nextID
	comment.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.comments = append(m.comments, *comment)
	m.nextID++
	return nil
}

func (m *mockCommentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Comment
	for _, comment := range m.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// mockReferenceRepo is an in-memory ReferenceRepository counting list calls.
type mockReferenceRepo struct {
	mu        sync.Mutex
	nextID    int64
	items     []domain.Reference
	listCalls int
}

func newMockReferenceRepo(names ...string) *mockReferenceRepo {
	repo := &mockReferenceRepo{nextID: 1}
	for _, name := range names {
		repo.items = append(repo.items, domain.Reference{ID: repo.nextID, Name: name})
		repo.nextID++
	}
	return repo
}

func (m *mockReferenceRepo) Create(_ context.Context, name string) (*domain.Reference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.Name == name {
			return nil, uniqueViolation()
		}
	}
	ref := domain.Reference{ID: m.nextID, Name: name}
	m.items = append(m.items, ref)
	m.nextID++
	return &ref, nil
}

func (m *mockReferenceRepo) ListAll(_ context.Context) ([]domain.Reference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]domain.Reference{}, m.items...), nil
}

// mockCache is an in-memory Cache.
type mockCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string]string)}
}

func (m *mockCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *mockCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockCache) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published(eventType events.EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, event := range d.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}
