package service

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"signal-export/internal/domain"
)

var ErrMissingConversationType = errors.New("conversation without type")

// nullSenderLabel es el texto que deja Signal cuando no hay remitente.
const nullSenderLabel = "null"

// Aggregator agrupa mensajes por conversacion. Los datos de la conversacion se
// fijan con el primer mensaje visto y no se recalculan.
type Aggregator struct {
	byID     map[string]*conversationBuilder
	order    []string
	filtered int
}

type conversationBuilder struct {
	conv    domain.Conversation
	hasType bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{byID: make(map[string]*conversationBuilder)}
}

// Add registra el mensaje y devuelve false si fue descartado por no tener
// timestamp o remitente.
func (a *Aggregator) Add(rec domain.MessageRecord) bool {
	b, ok := a.byID[rec.ConversationID]
	if !ok {
		b = &conversationBuilder{
			conv: domain.Conversation{
				ProfileName:    rec.ProfileName,
				ConversationID: rec.ConversationID,
				E164:           rec.E164,
				Messages:       make([]domain.MessageRecord, 0),
			},
		}
		if rec.Type != nil {
			b.conv.ConvType = *rec.Type
			b.hasType = true
		}
		a.byID[rec.ConversationID] = b
		a.order = append(a.order, rec.ConversationID)
	}

	if rec.Timestamp == nil || rec.MessageName == nil || *rec.MessageName == nullSenderLabel {
		a.filtered++
		return false
	}
	b.conv.Messages = append(b.conv.Messages, rec)
	return true
}

// Filtered devuelve cuantos mensajes se descartaron.
func (a *Aggregator) Filtered() int {
	return a.filtered
}

// Finish valida los tipos y ordena los mensajes de cada conversacion por timestamp.
func (a *Aggregator) Finish() ([]domain.Conversation, error) {
	var untyped []string
	out := make([]domain.Conversation, 0, len(a.order))
	for _, id := range a.order {
		b := a.byID[id]
		if !b.hasType {
			untyped = append(untyped, id)
			continue
		}
		slices.SortStableFunc(b.conv.Messages, func(x, y domain.MessageRecord) int {
			return cmp.Compare(*x.Timestamp, *y.Timestamp)
		})
		out = append(out, b.conv)
	}
	if len(untyped) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConversationType, strings.Join(untyped, ", "))
	}
	return out, nil
}

// AggregateConversations agrupa todos los registros en una sola pasada.
func AggregateConversations(records []domain.MessageRecord) ([]domain.Conversation, error) {
	agg := NewAggregator()
	for _, rec := range records {
		agg.Add(rec)
	}
	return agg.Finish()
}
