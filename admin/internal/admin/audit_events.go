package admin

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/malbeclabs/metabonding/engine/pkg/audit"
)

// EventReader reads back audit events of one type.
type EventReader interface {
	Events(ctx context.Context, eventType audit.EventType) ([]audit.Event, error)
}

type auditLine struct {
	ID                    string    `json:"id"`
	Type                  string    `json:"type"`
	Week                  uint64    `json:"week,omitempty"`
	ProjectID             string    `json:"project_id,omitempty"`
	Token                 string    `json:"token,omitempty"`
	Amount                string    `json:"amount,omitempty"`
	TotalDelegationSupply string    `json:"total_delegation_supply,omitempty"`
	TotalLKMEXStaked      string    `json:"total_lkmex_staked,omitempty"`
	RecordedAt            time.Time `json:"recorded_at"`
}

// AuditEvents writes the recorded events of eventType as a JSON array.
func AuditEvents(ctx context.Context, out io.Writer, reader EventReader, eventType string) error {
	typ := audit.EventType(eventType)
	switch typ {
	case audit.EventCheckpointAppended, audit.EventRewardsDeposited:
	default:
		return fmt.Errorf("unknown audit event type %q", eventType)
	}

	events, err := reader.Events(ctx, typ)
	if err != nil {
		return err
	}
	lines := make([]auditLine, 0, len(events))
	for _, e := range events {
		lines = append(lines, auditLine{
			ID:                    e.ID.String(),
			Type:                  string(e.Type),
			Week:                  uint64(e.Week),
			ProjectID:             string(e.ProjectID),
			Token:                 e.Token,
			Amount:                e.Amount,
			TotalDelegationSupply: e.TotalDelegationSupply,
			TotalLKMEXStaked:      e.TotalLKMEXStaked,
			RecordedAt:            e.RecordedAt,
		})
	}
	return writeJSON(out, lines)
}
