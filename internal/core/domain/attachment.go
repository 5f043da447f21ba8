package domain

// AttachmentLink references a supporting document held by the external
// document store. The engine only tracks ordering and primary selection;
// if any links exist for an entry, exactly one is primary.
type AttachmentLink struct {
	EntryID      string `json:"entryID"`
	DocumentID   string `json:"documentID"` // Opaque reference into the document store
	DisplayOrder int    `json:"displayOrder"`
	IsPrimary    bool   `json:"isPrimary"`
	AuditFields
}
