package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-api/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/config"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/observability"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	"github.com/spec-kit/helpdesk-api/internal/service"
)

// In-memory stores so the full HTTP surface can be exercised without Postgres.

type memUserRepo struct {
	nextID int64
	users  map[int64]domain.User
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	user.ID = m.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	m.nextID++
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memTicketRepo struct {
	nextID  int64
	tickets map[int64]domain.Ticket
	users   *memUserRepo
}

func (m *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) (int64, error) {
	stored := *ticket
	stored.ID = m.nextID
	stored.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.tickets[stored.ID] = stored
	m.nextID++
	return stored.ID, nil
}

func (m *memTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	m.join(ctx, &ticket)
	return &ticket, nil
}

func (m *memTicketRepo) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	result := make([]domain.Ticket, 0, len(m.tickets))
	for _, ticket := range m.tickets {
		m.join(ctx, &ticket)
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *memTicketRepo) Update(_ context.Context, id int64, changes repository.TicketChanges) (int64, error) {
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

func (m *memTicketRepo) Delete(_ context.Context, id int64) (int64, error) {
	if _, ok := m.tickets[id]; !ok {
		return 0, nil
	}
	delete(m.tickets, id)
	return 1, nil
}

func (m *memTicketRepo) join(ctx context.Context, ticket *domain.Ticket) {
	statusNames := map[int64]string{1: "open", 2: "closed"}
	priorityNames := map[int64]string{1: "low", 2: "medium", 3: "high"}
	ticket.StatusName = statusNames[ticket.StatusID]
	ticket.PriorityName = priorityNames[ticket.PriorityID]
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

type memCommentRepo struct {
	nextID   int64
	comments []domain.Comment
}

func (m *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = m.nextID
	comment.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.comments = append(m.comments, *comment)
	m.nextID++
	return nil
}

func (m *memCommentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range m.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type memReferenceRepo struct {
	nextID int64
	items  []domain.Reference
}

func (m *memReferenceRepo) Create(_ context.Context, name string) (*domain.Reference, error) {
	ref := domain.Reference{ID: m.nextID, Name: name}
	m.items = append(m.items, ref)
	m.nextID++
	return &ref, nil
}

func (m *memReferenceRepo) ListAll(_ context.Context) ([]domain.Reference, error) {
	return append([]domain.Reference{}, m.items...), nil
}

type testServer struct {
	app       *fiber.App
	authSvc   *service.AuthService
	userRepo  *memUserRepo
	tokens    map[string]string // role name -> bearer token
	userIDs   map[string]int64  // role name -> user id
	ticketSvc *service.TicketService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	userRepo := &memUserRepo{nextID: 1, users: make(map[int64]domain.User)}
	ticketRepo := &memTicketRepo{nextID: 1, tickets: make(map[int64]domain.Ticket), users: userRepo}
	commentRepo := &memCommentRepo{nextID: 1}
	dispatcher := events.NewInMemoryDispatcher()

	authSvc := service.NewAuthService(config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		BcryptCost:    4,
	}, userRepo, dispatcher)
	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	commentSvc := service.NewCommentService(commentRepo, ticketSvc, dispatcher)
	referenceSvc := service.NewReferenceService(
		&memReferenceRepo{nextID: 1},
		&memReferenceRepo{nextID: 1},
		nil,
		zap.NewNop(),
	)

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
		Production: true,
	})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-api", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authSvc),
		Tickets:        handlers.NewTicketsHandler(ticketSvc, commentSvc),
		Comments:       handlers.NewCommentsHandler(commentSvc),
		Reference:      handlers.NewReferenceHandler(referenceSvc),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager()),
	})

	srv := &testServer{
		app:       app,
		authSvc:   authSvc,
		userRepo:  userRepo,
		tokens:    make(map[string]string),
		userIDs:   make(map[string]int64),
		ticketSvc: ticketSvc,
	}

	adminCaller := &domain.Identity{ID: 0, Role: domain.RoleAdmin}
	for _, seed := range []struct {
		key  string
		role domain.Role
	}{
		{"admin", domain.RoleAdmin},
		{"agent", domain.RoleAgent},
		{"customer", domain.RoleCustomer},
	} {
		user, err := authSvc.Register(context.Background(), seed.key, seed.key+"@example.com", "password", seed.role, adminCaller)
		if err != nil {
			t.Fatalf("seed %s: %v", seed.key, err)
		}
		token, _, err := authSvc.TokenManager().GenerateToken(domain.Identity{
			ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role,
		})
		if err != nil {
			t.Fatalf("token for %s: %v", seed.key, err)
		}
		srv.tokens[seed.key] = token
		srv.userIDs[seed.key] = user.ID
	}
	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var parsed map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func TestTicketAccessScenario(t *testing.T) {
	srv := newTestServer(t)

	// customer opens a ticket
	resp, ticket := srv.do(t, "POST", "/tickets", srv.tokens["customer"], fiber.Map{
		"subject":     "Printer down",
		"description": "Office printer stopped working",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create ticket: status %d", resp.StatusCode)
	}
	if ticket["status_name"] != "open" || ticket["priority_name"] != "low" {
		t.Errorf("defaults = %v/%v, want open/low", ticket["status_name"], ticket["priority_name"])
	}
	ticketPath := fmt.Sprintf("/tickets/%.0f", ticket["id"].(float64))

	// unassigned agent cannot read it
	resp, body := srv.do(t, "GET", ticketPath, srv.tokens["agent"], nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("agent read before assignment: status %d", resp.StatusCode)
	}
	if msg, ok := body["message"].(string); !ok || msg == "" {
		t.Error("error body missing message field")
	}

	// agent cannot self-assign
	resp, body = srv.do(t, "PATCH", ticketPath, srv.tokens["agent"], fiber.Map{
		"assigned_to": srv.userIDs["agent"],
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("agent self-assign: status %d", resp.StatusCode)
	}
	if body["message"] != "Only admin can assign tickets" {
		t.Errorf("message = %v", body["message"])
	}

	// admin assigns the agent
	resp, ticket = srv.do(t, "PATCH", ticketPath, srv.tokens["admin"], fiber.Map{
		"assigned_to": srv.userIDs["agent"],
		"status_id":   2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin assign: status %d (%v)", resp.StatusCode, ticket["message"])
	}
	if ticket["status_name"] != "closed" {
		t.Errorf("status after patch = %v, want closed", ticket["status_name"])
	}

	// now the agent can read and comment
	resp, _ = srv.do(t, "GET", ticketPath, srv.tokens["agent"], nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("agent read after assignment: status %d", resp.StatusCode)
	}
	resp, _ = srv.do(t, "POST", ticketPath+"/comments", srv.tokens["agent"], fiber.Map{
		"content": "replaced the toner",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("agent comment: status %d", resp.StatusCode)
	}

	// missing ticket is 404, not 403, even for a caller with no access
	resp, _ = srv.do(t, "GET", "/tickets/9999", srv.tokens["agent"], nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing ticket: status %d, want 404", resp.StatusCode)
	}
	resp, _ = srv.do(t, "POST", "/tickets/9999/comments", srv.tokens["customer"], fiber.Map{"content": "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("comment on missing ticket: status %d, want 404", resp.StatusCode)
	}
}

func TestRouteGates(t *testing.T) {
	srv := newTestServer(t)

	resp, ticket := srv.do(t, "POST", "/tickets", srv.tokens["customer"], fiber.Map{
		"subject": "s", "description": "d",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	ticketPath := fmt.Sprintf("/tickets/%.0f", ticket["id"].(float64))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", "GET", "/tickets", "", nil, http.StatusUnauthorized},
		{"garbage token", "GET", "/tickets", "garbage", nil, http.StatusUnauthorized},
		{"agent cannot create tickets", "POST", "/tickets", srv.tokens["agent"], fiber.Map{"subject": "s", "description": "d"}, http.StatusForbidden},
		{"customer cannot patch", "PATCH", ticketPath, srv.tokens["customer"], fiber.Map{"subject": "x"}, http.StatusForbidden},
		{"agent cannot delete", "DELETE", ticketPath, srv.tokens["agent"], nil, http.StatusForbidden},
		{"customer cannot list users", "GET", "/users", srv.tokens["customer"], nil, http.StatusForbidden},
		{"customer cannot create statuses", "POST", "/statuses", srv.tokens["customer"], fiber.Map{"name": "urgent"}, http.StatusForbidden},
		{"admin creates statuses", "POST", "/statuses", srv.tokens["admin"], fiber.Map{"name": "urgent"}, http.StatusCreated},
		{"admin deletes", "DELETE", ticketPath, srv.tokens["admin"], nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := srv.do(t, tt.method, tt.path, tt.token, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d (%v), want %d", resp.StatusCode, body["message"], tt.want)
			}
		})
	}
}

func TestTicketListFilteredByRole(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	// two customer tickets, one assigned to the agent
	first, err := srv.ticketSvc.Create(ctx, service.TicketCreateInput{
		Subject: "first", Description: "d", CreatedBy: srv.userIDs["customer"],
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := srv.ticketSvc.Create(ctx, service.TicketCreateInput{
		Subject: "second", Description: "d", CreatedBy: srv.userIDs["customer"],
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	agentID := srv.userIDs["agent"]
	assignee := &agentID
	if _, err := srv.ticketSvc.Update(ctx, domain.Identity{ID: srv.userIDs["admin"], Role: domain.RoleAdmin},
		first.ID, service.TicketUpdateInput{AssignedTo: &assignee}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	listLen := func(token string) int {
		req := httptest.NewRequest("GET", "/tickets", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := srv.app.Test(req, 5000)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		defer resp.Body.Close()
		var items []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return len(items)
	}

	if got := listLen(srv.tokens["admin"]); got != 2 {
		t.Errorf("admin sees %d tickets, want 2", got)
	}
	if got := listLen(srv.tokens["agent"]); got != 1 {
		t.Errorf("agent sees %d tickets, want 1", got)
	}
	if got := listLen(srv.tokens["customer"]); got != 2 {
		t.Errorf("customer sees %d tickets, want 2", got)
	}
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, "POST", "/auth/register", "", fiber.Map{
		"name": "New Customer", "email": "new@example.com", "password": "pw", "role": "admin",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d (%v)", resp.StatusCode, body["message"])
	}

	resp, body = srv.do(t, "POST", "/auth/register", "", fiber.Map{
		"name": "Imposter", "email": "new@example.com", "password": "pw",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate email: status %d (%v), want 409", resp.StatusCode, body["message"])
	}

	resp, body = srv.do(t, "POST", "/auth/login", "", fiber.Map{
		"email": "new@example.com", "password": "pw",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login response missing token")
	}
	user, _ := body["user"].(map[string]any)
	if user["role"] != "customer" {
		t.Errorf("public registration role = %v, want customer despite requested admin", user["role"])
	}

	resp, body = srv.do(t, "GET", "/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	if body["email"] != "new@example.com" {
		t.Errorf("me email = %v", body["email"])
	}

	// wrong password and unknown email read identically
	resp, wrongPw := srv.do(t, "POST", "/auth/login", "", fiber.Map{"email": "new@example.com", "password": "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d", resp.StatusCode)
	}
	resp, noUser := srv.do(t, "POST", "/auth/login", "", fiber.Map{"email": "ghost@example.com", "password": "pw"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown email: status %d", resp.StatusCode)
	}
	if wrongPw["message"] != noUser["message"] {
		t.Errorf("login failures differ: %v vs %v", wrongPw["message"], noUser["message"])
	}
}
