package domain

// RawRow es una fila del join messages/conversations antes de decodificar el payload.
type RawRow struct {
	MessageID      string
	Payload        string
	ConversationID string
	ConvType       *string
	E164           *string
	ProfileName    *string
	MessageName    *string
}

// MessageRecord es un mensaje exportado. Los campos opcionales son punteros para
// distinguir "ausente" de un valor cero.
type MessageRecord struct {
	Timestamp                 *int64        `json:"timestamp,omitempty"`
	Attachments               *[]Attachment `json:"attachments,omitempty"`
	Body                      *string       `json:"body,omitempty"`
	ConversationID            string        `json:"conversation_id"`
	SentAt                    *int64        `json:"sent_at,omitempty"`
	ReceivedAt                *int64        `json:"received_at,omitempty"`
	ReceivedAtMs              *int64        `json:"received_at_ms,omitempty"`
	Recipients                *[]string     `json:"recipients,omitempty"`
	HasAttachments            *int          `json:"has_attachments,omitempty"`
	HasVisualMediaAttachments *int          `json:"has_visual_media_attachments,omitempty"`
	Destination               *string       `json:"destination,omitempty"`
	From                      *string       `json:"from,omitempty"`
	Type                      *string       `json:"type,omitempty"`
	E164                      *int64        `json:"e164,omitempty"`
	ProfileName               *string       `json:"profile_name,omitempty"`
	MessageName               *string       `json:"message_name,omitempty"`
	ID                        string        `json:"id"`
}

type Attachment struct {
	ContentType string     `json:"content_type"`
	Path        string     `json:"path"`
	Size        *int       `json:"size,omitempty"`
	Width       *int       `json:"width,omitempty"`
	Height      *int       `json:"height,omitempty"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
}

type Thumbnail struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}
