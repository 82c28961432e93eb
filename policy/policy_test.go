package policy

import "testing"

func TestDecide(t *testing.T) {
	anon := Anonymous
	member := Actor{UserID: 2, Username: "member", Authenticated: true}
	staff := Actor{UserID: 3, Username: "staff", Authenticated: true, Staff: true}
	root := Actor{UserID: 4, Username: "root", Authenticated: true, Superuser: true}

	publicArticle := Resource{Kind: KindArticle, OwnerID: 3, IsPublic: true}
	privateArticle := Resource{Kind: KindArticle, OwnerID: 3}
	memberAccount := Resource{Kind: KindUser, OwnerID: 2}
	otherAccount := Resource{Kind: KindUser, OwnerID: 9}
	memberComment := Resource{Kind: KindComment, OwnerID: 2}
	otherComment := Resource{Kind: KindComment, OwnerID: 9}
	report := Resource{Kind: KindReport}

	cases := []struct {
		name   string
		actor  Actor
		res    Resource
		action Action
		want   Decision
	}{
		{"anonymous lists articles", anon, Resource{Kind: KindArticle}, ActionList, Allow},
		{"anonymous reads public article", anon, publicArticle, ActionRead, Allow},
		{"anonymous reads private article", anon, privateArticle, ActionRead, DenyUnauthenticated},
		{"member reads private article", member, privateArticle, ActionRead, Allow},
		{"anonymous creates article", anon, Resource{Kind: KindArticle}, ActionCreate, DenyUnauthenticated},
		{"member creates article", member, Resource{Kind: KindArticle}, ActionCreate, DenyForbidden},
		{"staff creates article", staff, Resource{Kind: KindArticle}, ActionCreate, Allow},
		{"superuser deletes article", root, publicArticle, ActionDelete, Allow},
		{"member updates article", member, publicArticle, ActionUpdate, DenyForbidden},

		{"anonymous registers", anon, Resource{Kind: KindUser}, ActionCreate, Allow},
		{"anonymous lists users", anon, Resource{Kind: KindUser}, ActionList, DenyUnauthenticated},
		{"member reads user", member, otherAccount, ActionRead, Allow},
		{"member updates self", member, memberAccount, ActionUpdate, Allow},
		{"member updates other", member, otherAccount, ActionUpdate, DenyForbidden},
		{"member deletes self", member, memberAccount, ActionDelete, Allow},
		{"staff deletes other", staff, otherAccount, ActionDelete, Allow},
		{"anonymous updates user", anon, otherAccount, ActionUpdate, DenyUnauthenticated},
		{"member grants", member, memberAccount, ActionGrant, DenyForbidden},
		{"staff grants", staff, otherAccount, ActionGrant, Allow},

		{"anonymous lists comments", anon, Resource{Kind: KindComment}, ActionList, DenyUnauthenticated},
		{"member creates comment", member, Resource{Kind: KindComment}, ActionCreate, Allow},
		{"member edits own comment", member, memberComment, ActionUpdate, Allow},
		{"member edits other comment", member, otherComment, ActionUpdate, DenyForbidden},
		{"staff deletes other comment", staff, otherComment, ActionDelete, Allow},

		{"anonymous reports", anon, report, ActionCreate, DenyUnauthenticated},
		{"member reports", member, report, ActionCreate, Allow},
		{"member reads article reports", member, report, ActionRead, Allow},
		{"member lists all reports", member, report, ActionList, Allow},
		{"anonymous lists all reports", anon, report, ActionList, DenyUnauthenticated},
		{"staff lists all reports", staff, report, ActionList, Allow},

		{"unknown kind", root, Resource{Kind: Kind(99)}, ActionRead, DenyForbidden},
	}

	for _, tc := range cases {
		if got := Decide(tc.actor, tc.res, tc.action); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAnonymousOwnsNothing(t *testing.T) {
	// A zero OwnerID must not match the zero UserID of the anonymous actor.
	if Decide(Anonymous, Resource{Kind: KindComment}, ActionDelete) != DenyUnauthenticated {
		t.Fatalf("anonymous actor must not own unsaved resources")
	}
	if Anonymous.IsAdmin() {
		t.Fatalf("anonymous actor is never admin")
	}
}
