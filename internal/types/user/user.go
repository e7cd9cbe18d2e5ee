package user

import "time"

// Collection is the Firestore collection holding one profile per identity.
const Collection = "users"

// Field names as persisted. Claim updates reference these so the balance and
// cooldown always travel in the same write.
const (
	FieldDisplayName     = "displayName"
	FieldPhotoURL        = "photoURL"
	FieldTotalTokens     = "totalTokens"
	FieldLastClaimTime   = "lastClaimTime"
	FieldCooldownEndTime = "cooldownEndTime"
)

type UserProfile struct {
	ID          string `firestore:"-" json:"id"`
	DisplayName string `firestore:"displayName" json:"displayName"`
	PhotoURL    string `firestore:"photoURL" json:"photoURL,omitempty"`
	TotalTokens int64  `firestore:"totalTokens" json:"totalTokens"`
	// LastClaimTime is nil until the first successful claim.
	LastClaimTime *time.Time `firestore:"lastClaimTime" json:"lastClaimTime"`
	// CooldownEndTime is epoch milliseconds; 0 means never claimed.
	CooldownEndTime int64 `firestore:"cooldownEndTime" json:"cooldownEndTime"`
}

// NewProfileFields returns the zeroed document written exactly once, at first
// authenticated contact. An existing profile is never overwritten with these.
func NewProfileFields(displayName, photoURL string) map[string]interface{} {
	return map[string]interface{}{
		FieldDisplayName:     displayName,
		FieldPhotoURL:        photoURL,
		FieldTotalTokens:     int64(0),
		FieldLastClaimTime:   nil,
		FieldCooldownEndTime: int64(0),
	}
}

// ProfileFromFields rebuilds a profile from raw document fields. Numeric
// fields tolerate int64 and float64 since backends differ in what they hand
// back for numbers.
func ProfileFromFields(id string, fields map[string]interface{}) *UserProfile {
	p := &UserProfile{ID: id}
	if v, ok := fields[FieldDisplayName].(string); ok {
		p.DisplayName = v
	}
	if v, ok := fields[FieldPhotoURL].(string); ok {
		p.PhotoURL = v
	}
	p.TotalTokens = AsInt64(fields[FieldTotalTokens])
	p.CooldownEndTime = AsInt64(fields[FieldCooldownEndTime])
	if v, ok := fields[FieldLastClaimTime].(time.Time); ok {
		t := v
		p.LastClaimTime = &t
	}
	return p
}

// AsInt64 normalizes the numeric types document stores return.
func AsInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
