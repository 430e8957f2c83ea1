package models

type Speaker struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Area        string `json:"area"`
	Specialty   string `json:"specialty"`
	Institution string `json:"institution"`
	Photo       string `json:"photo,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// SpeakerClaim links a speaker record to exactly one external identity
// account, enabling profile self-editing.
type SpeakerClaim struct {
	AccountID string `json:"account_id"`
	SpeakerID string `json:"speaker_id"`
}
