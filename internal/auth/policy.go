package auth

import "github.com/spec-kit/helpdesk-api/internal/domain"

// CanAccessTicket decides whether an authenticated caller may view or act on
// a ticket. Admins see everything, agents only tickets assigned to them
// (an unassigned ticket is inaccessible to agents), customers only tickets
// they created. Pure function, no side effects.
func CanAccessTicket(caller domain.Identity, ticket *domain.Ticket) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.AssignedTo != nil && *ticket.AssignedTo == caller.ID
	case domain.RoleCustomer:
		return ticket.CreatedBy == caller.ID
	default:
		return false
	}
}

// FilterTickets applies the same predicate logic as a list filter: admin sees
// all, agent sees assigned, customer sees owned.
func FilterTickets(caller domain.Identity, tickets []domain.Ticket) []domain.Ticket {
	if caller.Role == domain.RoleAdmin {
		return tickets
	}
	filtered := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if CanAccessTicket(caller, &tickets[i]) {
			filtered = append(filtered, tickets[i])
		}
	}
	return filtered
}
