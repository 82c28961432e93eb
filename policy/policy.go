// Package policy holds the access decision table. It performs no I/O.
package policy

// Kind is the type of resource being acted on.
type Kind int

const (
	KindArticle Kind = iota
	KindUser
	KindComment
	KindReport
)

// Action is what the actor wants to do with a resource.
type Action int

const (
	ActionList Action = iota
	ActionRead
	ActionCreate
	ActionUpdate
	ActionDelete
	// ActionGrant sets privileged flags (staff and account flags) on a user.
	ActionGrant
)

// Decision is the outcome of Decide.
type Decision int

const (
	Allow Decision = iota
	// DenyUnauthenticated means the request needs an identity.
	DenyUnauthenticated
	// DenyForbidden means the identity lacks the capability.
	DenyForbidden
)

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool { return d == Allow }

// Actor is the identity behind a request. The zero value is anonymous.
type Actor struct {
	UserID        uint
	Username      string
	Authenticated bool
	Staff         bool
	Superuser     bool
}

// Anonymous is the actor of requests without credentials.
var Anonymous = Actor{}

// IsAdmin reports whether the actor holds the admin capability.
func (a Actor) IsAdmin() bool {
	return a.Authenticated && (a.Staff || a.Superuser)
}

// Resource describes the target of an action. OwnerID is the author for articles and
// comments and the account itself for users; zero means the resource does not exist yet.
type Resource struct {
	Kind     Kind
	OwnerID  uint
	IsPublic bool
}

func (a Actor) owns(r Resource) bool {
	return a.Authenticated && r.OwnerID != 0 && r.OwnerID == a.UserID
}

// Decide evaluates the rules in order and returns the first that applies.
func Decide(actor Actor, res Resource, action Action) Decision {
	switch res.Kind {
	case KindArticle:
		return decideArticle(actor, res, action)
	case KindUser:
		return decideUser(actor, res, action)
	case KindComment:
		return decideComment(actor, res, action)
	case KindReport:
		return decideReport(actor, action)
	}
	return DenyForbidden
}

func decideArticle(actor Actor, res Resource, action Action) Decision {
	switch action {
	case ActionList:
		return Allow
	case ActionRead:
		if res.IsPublic {
			return Allow
		}
		return requireAuth(actor)
	case ActionCreate, ActionUpdate, ActionDelete:
		return requireAdmin(actor)
	}
	return DenyForbidden
}

func decideUser(actor Actor, res Resource, action Action) Decision {
	switch action {
	case ActionCreate:
		// Self-registration is the only unauthenticated write.
		return Allow
	case ActionList, ActionRead:
		return requireAuth(actor)
	case ActionUpdate, ActionDelete:
		if actor.owns(res) {
			return Allow
		}
		return requireAdmin(actor)
	case ActionGrant:
		return requireAdmin(actor)
	}
	return DenyForbidden
}

func decideComment(actor Actor, res Resource, action Action) Decision {
	switch action {
	case ActionList, ActionRead, ActionCreate:
		return requireAuth(actor)
	case ActionUpdate, ActionDelete:
		if actor.owns(res) {
			return Allow
		}
		return requireAdmin(actor)
	}
	return DenyForbidden
}

func decideReport(actor Actor, action Action) Decision {
	switch action {
	case ActionCreate, ActionRead, ActionList:
		return requireAuth(actor)
	}
	return DenyForbidden
}

func requireAuth(actor Actor) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	return Allow
}

func requireAdmin(actor Actor) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	if !actor.IsAdmin() {
		return DenyForbidden
	}
	return Allow
}
