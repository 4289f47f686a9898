package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"signal-export/internal/domain"
)

var ErrPayloadDecode = errors.New("message payload decode failed")

// PayloadDecodeError identifica la fila cuyo payload no se pudo convertir.
type PayloadDecodeError struct {
	Row            int
	MessageID      string
	ConversationID string
	Err            error
}

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("%s: row %d (message %q, conversation %q): %v", ErrPayloadDecode, e.Row, e.MessageID, e.ConversationID, e.Err)
}

func (e *PayloadDecodeError) Unwrap() []error {
	return []error{ErrPayloadDecode, e.Err}
}

// payloadMessage refleja la columna messages.json de Signal Desktop.
type payloadMessage struct {
	Timestamp                 *int64               `json:"timestamp"`
	Attachments               *[]payloadAttachment `json:"attachments"`
	Body                      *string              `json:"body"`
	ConversationID            string               `json:"conversationId"`
	SentAt                    *int64               `json:"sent_at"`
	ReceivedAt                *int64               `json:"received_at"`
	ReceivedAtMs              *int64               `json:"received_at_ms"`
	Recipients                *[]string            `json:"recipients"`
	HasAttachments            *int                 `json:"hasAttachments"`
	HasVisualMediaAttachments *int                 `json:"hasVisualMediaAttachments"`
	Destination               *string              `json:"destination"`
	From                      *string              `json:"from"`
	ID                        string               `json:"id"`
}

// Los campos obligatorios son punteros para detectar su ausencia en lugar de usar el valor cero.
type payloadAttachment struct {
	ContentType *string           `json:"contentType"`
	Path        *string           `json:"path"`
	Size        *int              `json:"size"`
	Width       *int              `json:"width"`
	Height      *int              `json:"height"`
	Thumbnail   *payloadThumbnail `json:"thumbnail"`
}

type payloadThumbnail struct {
	Path        *string `json:"path"`
	ContentType *string `json:"contentType"`
	Width       *int    `json:"width"`
	Height      *int    `json:"height"`
}

// ParsePayload decodifica el payload de una fila y le aplica los campos calculados por el join.
// Los valores de tipo, e164, nombre de perfil y remitente del payload se descartan.
func ParsePayload(row domain.RawRow, index int) (domain.MessageRecord, error) {
	fail := func(err error) (domain.MessageRecord, error) {
		return domain.MessageRecord{}, &PayloadDecodeError{
			Row:            index,
			MessageID:      row.MessageID,
			ConversationID: row.ConversationID,
			Err:            err,
		}
	}

	var p payloadMessage
	if err := json.Unmarshal([]byte(row.Payload), &p); err != nil {
		return fail(err)
	}

	if p.ID == "" {
		p.ID = row.MessageID
	}
	if p.ID == "" {
		return fail(errors.New("missing message id"))
	}
	if p.ConversationID == "" {
		p.ConversationID = row.ConversationID
	}

	e164, err := parseE164(row.E164)
	if err != nil {
		return fail(err)
	}

	attachments, err := convertAttachments(p.Attachments)
	if err != nil {
		return fail(err)
	}

	return domain.MessageRecord{
		Timestamp:                 p.Timestamp,
		Attachments:               attachments,
		Body:                      p.Body,
		ConversationID:            p.ConversationID,
		SentAt:                    p.SentAt,
		ReceivedAt:                p.ReceivedAt,
		ReceivedAtMs:              p.ReceivedAtMs,
		Recipients:                p.Recipients,
		HasAttachments:            p.HasAttachments,
		HasVisualMediaAttachments: p.HasVisualMediaAttachments,
		Destination:               p.Destination,
		From:                      p.From,
		Type:                      row.ConvType,
		E164:                      e164,
		ProfileName:               row.ProfileName,
		MessageName:               row.MessageName,
		ID:                        p.ID,
	}, nil
}

func parseE164(raw *string) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("e164 %q is not a 64-bit integer", value)
	}
	if n < 0 {
		return nil, fmt.Errorf("e164 %q is negative", value)
	}
	return &n, nil
}

func convertAttachments(in *[]payloadAttachment) (*[]domain.Attachment, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]domain.Attachment, 0, len(*in))
	for i, a := range *in {
		if a.ContentType == nil {
			return nil, fmt.Errorf("attachment %d: missing contentType", i)
		}
		if a.Path == nil {
			return nil, fmt.Errorf("attachment %d: missing path", i)
		}
		att := domain.Attachment{
			ContentType: *a.ContentType,
			Path:        *a.Path,
			Size:        a.Size,
			Width:       a.Width,
			Height:      a.Height,
		}
		if a.Thumbnail != nil {
			thumb, err := convertThumbnail(*a.Thumbnail)
			if err != nil {
				return nil, fmt.Errorf("attachment %d: %w", i, err)
			}
			att.Thumbnail = thumb
		}
		out = append(out, att)
	}
	return &out, nil
}

func convertThumbnail(t payloadThumbnail) (*domain.Thumbnail, error) {
	switch {
	case t.Path == nil:
		return nil, errors.New("thumbnail missing path")
	case t.ContentType == nil:
		return nil, errors.New("thumbnail missing contentType")
	case t.Width == nil:
		return nil, errors.New("thumbnail missing width")
	case t.Height == nil:
		return nil, errors.New("thumbnail missing height")
	}
	return &domain.Thumbnail{
		Path:        *t.Path,
		ContentType: *t.ContentType,
		Width:       *t.Width,
		Height:      *t.Height,
	}, nil
}
