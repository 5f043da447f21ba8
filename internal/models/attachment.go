package models

// AttachmentLink is the entry_attachments row.
type AttachmentLink struct {
	EntryID      string `db:"entry_id"`
	DocumentID   string `db:"document_id"`
	DisplayOrder int    `db:"display_order"`
	IsPrimary    bool   `db:"is_primary"`
	AuditFields
}
