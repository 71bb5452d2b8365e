package enums

import "testing"

func TestParseUserRoleAcceptsAgentAlias(t *testing.T) {
	role, err := ParseUserRole("Agent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != UserRoleCallCenter {
		t.Fatalf("expected call_center, got %s", role)
	}
	if _, err := ParseUserRole("root"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestLeadStatusRankFollowsFunnel(t *testing.T) {
	funnel := LeadStatuses()
	for i := 1; i < 4; i++ {
		if funnel[i].Rank() <= funnel[i-1].Rank() {
			t.Fatalf("expected %s to rank after %s", funnel[i], funnel[i-1])
		}
	}
	if LeadStatus("archived").IsValid() {
		t.Fatalf("unknown status should be invalid")
	}
	if !LeadStatusLost.IsTerminal() || LeadStatusConfirmed.IsTerminal() {
		t.Fatalf("unexpected terminal flags")
	}
}

func TestParseStatusTokens(t *testing.T) {
	if s, err := ParseOrderStatus("DELIVERED"); err != nil || s != OrderStatusDelivered {
		t.Fatalf("expected DELIVERED, got %q (%v)", s, err)
	}
	if _, err := ParseOrderStatus("delivered"); err == nil {
		t.Fatalf("order status tokens are case sensitive")
	}
	if s, err := ParseBordereauStatus("PICKED_UP"); err != nil || s != BordereauStatusPickedUp {
		t.Fatalf("expected PICKED_UP, got %q (%v)", s, err)
	}
	if !CallOutcomeCallback.IsValid() || CallOutcome("hung_up").IsValid() {
		t.Fatalf("unexpected call outcome validity")
	}
}
