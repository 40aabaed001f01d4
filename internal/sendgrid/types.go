// Package sendgrid implements a thin typed client for the SendGrid v3
// marketing API surface this tool uses: contact lists, contacts, verified
// senders, suppression groups, single sends, scheduling and stats.
package sendgrid

// List is a marketing contacts list.
type List struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactCount int    `json:"contact_count,omitempty"`
}

// listsResponse wraps the GET /v3/marketing/lists payload.
type listsResponse struct {
	Result []List `json:"result"`
}

// createListRequest is the POST /v3/marketing/lists body.
type createListRequest struct {
	Name string `json:"name"`
}

// upsertContactsRequest is the PUT /v3/marketing/contacts body.
type upsertContactsRequest struct {
	ListIDs  []string  `json:"list_ids"`
	Contacts []Contact `json:"contacts"`
}

// Contact is a single recipient in a contacts upsert.
type Contact struct {
	Email string `json:"email"`
}

// Sender is a verified sender identity.
type Sender struct {
	ID       int64         `json:"id"`
	Nickname string        `json:"nickname,omitempty"`
	From     SenderAddress `json:"from"`
}

// SenderAddress is the from address of a verified sender.
type SenderAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SuppressionGroup is an unsubscribe group.
type SuppressionGroup struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"is_default,omitempty"`
}

// SuppressionGroupRequest is the POST /v3/asm/groups body.
type SuppressionGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

// Singlesend is a one-time campaign resource.
type Singlesend struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      string       `json:"status,omitempty"`
	SendAt      string       `json:"send_at,omitempty"`
	EmailConfig *EmailConfig `json:"email_config,omitempty"`
	SendTo      *SendTo      `json:"send_to,omitempty"`
}

// singlesendsResponse wraps the GET /v3/marketing/singlesends payload.
type singlesendsResponse struct {
	Result []Singlesend `json:"result"`
}

// SinglesendRequest is the create/update body for a single send.
type SinglesendRequest struct {
	Name        string      `json:"name"`
	EmailConfig EmailConfig `json:"email_config"`
	SendTo      SendTo      `json:"send_to"`
}

// EmailConfig holds the message-level settings of a single send.
type EmailConfig struct {
	Subject            string            `json:"subject,omitempty"`
	HTMLContent        string            `json:"html_content,omitempty"`
	SenderID           int64             `json:"sender_id,omitempty"`
	SuppressionGroupID int64             `json:"suppression_group_id,omitempty"`
	TrackingSettings   *TrackingSettings `json:"tracking_settings,omitempty"`
}

// TrackingSettings disables or enables campaign-level tracking.
type TrackingSettings struct {
	ClickTracking        TrackingToggle `json:"click_tracking"`
	OpenTracking         TrackingToggle `json:"open_tracking"`
	SubscriptionTracking TrackingToggle `json:"subscription_tracking"`
}

// TrackingToggle wraps a single tracking enable flag.
type TrackingToggle struct {
	Enable bool `json:"enable"`
}

// SendTo selects the recipient lists of a single send.
type SendTo struct {
	ListIDs []string `json:"list_ids"`
}

// scheduleRequest is the PUT /v3/marketing/singlesends/{id}/schedule body.
type scheduleRequest struct {
	SendAt string `json:"send_at"`
}

// DisabledTracking returns tracking settings with click, open and
// subscription tracking all turned off.
func DisabledTracking() *TrackingSettings {
	return &TrackingSettings{
		ClickTracking:        TrackingToggle{Enable: false},
		OpenTracking:         TrackingToggle{Enable: false},
		SubscriptionTracking: TrackingToggle{Enable: false},
	}
}
