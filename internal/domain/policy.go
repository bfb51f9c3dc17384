package domain

import (
	"fmt"
	"time"
)

// Policy is the static prioritization configuration of the engine:
// per-type priorities, time-to-live, display surface, the sequential
// set, and the dependency relation. It is built once at startup and
// injected into the service, so tests can substitute alternate tables.
type Policy struct {
	// MaxConcurrent caps how many messages per user may be shown at once.
	MaxConcurrent int

	// Priorities orders competing drafts; higher wins a slot first.
	Priorities map[MessageType]int

	// TTLs sets expires_at at creation, per type.
	TTLs map[MessageType]time.Duration

	// Surfaces maps each type to the surface it is displayed on.
	Surfaces map[MessageType]Surface

	// Sequential marks types limited to one outstanding instance per user.
	Sequential map[MessageType]bool

	// DependsOn gates a type on a prerequisite type reaching a
	// terminal-success state (or the underlying fact being confirmed).
	DependsOn map[MessageType]MessageType
}

// DefaultMaxConcurrent is the visible-message cap unless configured.
const DefaultMaxConcurrent = 3

// DefaultPolicy returns the production policy tables.
func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrent: DefaultMaxConcurrent,
		Priorities: map[MessageType]int{
			MessageTypeStartResearch:     80,
			MessageTypeSendFollowupEmail: 70,
			MessageTypeCreateActionItems: 65,
			MessageTypeCreatePrep:        60,
			MessageTypeNavigate:          40,
			MessageTypeInline:            30,
		},
		TTLs: map[MessageType]time.Duration{
			MessageTypeStartResearch:     24 * time.Hour,
			MessageTypeSendFollowupEmail: 48 * time.Hour,
			MessageTypeCreateActionItems: 48 * time.Hour,
			MessageTypeCreatePrep:        12 * time.Hour,
			MessageTypeNavigate:          24 * time.Hour,
			MessageTypeInline:            6 * time.Hour,
		},
		Surfaces: map[MessageType]Surface{
			MessageTypeStartResearch:     SurfaceHome,
			MessageTypeSendFollowupEmail: SurfaceMeeting,
			MessageTypeCreateActionItems: SurfaceMeeting,
			MessageTypeCreatePrep:        SurfaceHome,
			MessageTypeNavigate:          SurfaceChat,
			MessageTypeInline:            SurfaceChat,
		},
		Sequential: map[MessageType]bool{
			MessageTypeStartResearch:     true,
			MessageTypeSendFollowupEmail: true,
			MessageTypeCreateActionItems: true,
			MessageTypeCreatePrep:        true,
		},
		DependsOn: map[MessageType]MessageType{
			MessageTypeCreatePrep: MessageTypeStartResearch,
		},
	}
}

// Priority returns the configured priority for t (0 if unknown).
func (p Policy) Priority(t MessageType) int { return p.Priorities[t] }

// TTL returns the configured time-to-live for t.
func (p Policy) TTL(t MessageType) time.Duration { return p.TTLs[t] }

// Surface returns the display surface for t (SurfaceHome if unknown).
func (p Policy) Surface(t MessageType) Surface {
	if s, ok := p.Surfaces[t]; ok {
		return s
	}
	return SurfaceHome
}

// IsSequential reports whether t allows only one outstanding instance.
func (p Policy) IsSequential(t MessageType) bool { return p.Sequential[t] }

// Dependency returns the prerequisite type for t, if any.
func (p Policy) Dependency(t MessageType) (MessageType, bool) {
	dep, ok := p.DependsOn[t]
	return dep, ok
}

// Validate checks the policy tables for completeness and rejects
// dependency cycles. A cyclic dependency would produce a message that
// can never become eligible, so it is a boot-time configuration error.
func (p Policy) Validate() error {
	if p.MaxConcurrent < 1 {
		return fmt.Errorf("policy: max_concurrent must be >= 1, got %d", p.MaxConcurrent)
	}

	for _, t := range AllMessageTypes() {
		if _, ok := p.Priorities[t]; !ok {
			return fmt.Errorf("policy: no priority for type %s", t)
		}
		if ttl, ok := p.TTLs[t]; !ok || ttl <= 0 {
			return fmt.Errorf("policy: no positive TTL for type %s", t)
		}
	}

	for t, dep := range p.DependsOn {
		if !t.IsValid() {
			return fmt.Errorf("policy: dependency on unknown type %s", t)
		}
		if !dep.IsValid() {
			return fmt.Errorf("policy: type %s depends on unknown type %s", t, dep)
		}
	}

	// The dependency relation must form a DAG. Walk each chain; any
	// revisit within one walk is a cycle.
	for start := range p.DependsOn {
		seen := map[MessageType]bool{start: true}
		cur := start
		for {
			next, ok := p.DependsOn[cur]
			if !ok {
				break
			}
			if seen[next] {
				return fmt.Errorf("policy: dependency cycle through type %s", next)
			}
			seen[next] = true
			cur = next
		}
	}

	return nil
}

// AllMessageTypes returns every member of the closed MessageType enum.
func AllMessageTypes() []MessageType {
	return []MessageType{
		MessageTypeStartResearch,
		MessageTypeCreatePrep,
		MessageTypeSendFollowupEmail,
		MessageTypeCreateActionItems,
		MessageTypeNavigate,
		MessageTypeInline,
	}
}
