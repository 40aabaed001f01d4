// Package campaign implements the campaign upsert workflow on top of the
// SendGrid marketing API: request classification, draft-only update and
// duplicate-subject guards, sender resolution, suppression group and
// contacts list reuse, campaign create/update and scheduling.
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shineum/sendgrid-campaigns/internal/sendgrid"
)

// defaultSuppressionGroupName and its description are used when the account
// has no suppression group at all.
const (
	defaultSuppressionGroupName        = "Default Unsubscribe Group"
	defaultSuppressionGroupDescription = "Default group for managing email unsubscriptions"
)

// listNameSeparator splits a contact list name into its reuse prefix and
// timestamp suffix; the suffix is deliberately excluded from reuse matching.
const listNameSeparator = " - "

// htmlPreviewLength caps the HTML excerpt included in details and logs.
const htmlPreviewLength = 255

// Request carries the caller-supplied campaign fields. Empty strings mean
// the field was not provided.
type Request struct {
	CampaignID        string
	Subject           string
	Sender            string
	ReceiversFilePath string
	HTMLBodyFilePath  string
	ScheduledAt       string
}

// ResultKind says which of the four request shapes was executed.
type ResultKind int

const (
	KindList ResultKind = iota
	KindDetails
	KindCreated
	KindUpdated
)

// Result is the outcome of a processed campaign request. Campaigns is set
// for KindList, Campaign for KindDetails and (when the confirmation fetch
// succeeds) for KindCreated/KindUpdated, CampaignID for KindCreated and
// KindUpdated.
type Result struct {
	Kind       ResultKind
	Campaigns  []Summary
	Campaign   *Details
	CampaignID string
}

// Summary is the per-campaign record returned by listings.
type Summary struct {
	CampaignID  string
	Subject     string
	ScheduledAt string
	From        string
	Status      string
	Stats       map[string]any
}

// Details is the full record for one campaign, merged with its latest stats.
type Details struct {
	CampaignID  string
	Subject     string
	ScheduledAt string
	From        string
	HTMLPreview string
	Status      string
	SendTo      *sendgrid.SendTo
	Stats       map[string]any
	LastChecked string
}

// Manager runs campaign workflows against the SendGrid API.
type Manager struct {
	api *sendgrid.Client
	now func() time.Time
}

// NewManager creates a Manager using the given API client.
func NewManager(api *sendgrid.Client) *Manager {
	return &Manager{api: api, now: time.Now}
}

// ProcessRequest classifies the provided fields into exactly one of four
// shapes: no fields lists all campaigns, only a campaign ID fetches one, all
// five creation fields create a campaign, and all five plus an ID update
// one. Any other combination is a usage error.
func (m *Manager) ProcessRequest(ctx context.Context, req Request) (*Result, error) {
	hasID := req.CampaignID != ""
	creationFields := []string{
		req.Subject,
		req.Sender,
		req.ReceiversFilePath,
		req.HTMLBodyFilePath,
		req.ScheduledAt,
	}
	provided := 0
	for _, f := range creationFields {
		if f != "" {
			provided++
		}
	}

	switch {
	case !hasID && provided == 0:
		campaigns, err := m.List(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: KindList, Campaigns: campaigns}, nil

	case hasID && provided == 0:
		details, err := m.Details(ctx, req.CampaignID)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: KindDetails, Campaign: details}, nil

	case provided == len(creationFields):
		return m.CreateOrUpdate(ctx, req)

	default:
		return nil, &ValidationError{Reason: usageReason}
	}
}

// List returns a summary of every campaign, with sender emails resolved and
// per-campaign stats attached. Stats failures degrade to empty stats.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	sends, err := m.api.Singlesends(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if len(sends) == 0 {
		return nil, nil
	}

	senders, err := m.senderEmails(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(sends))
	for _, send := range sends {
		summaries = append(summaries, Summary{
			CampaignID:  send.ID,
			Subject:     send.Name,
			ScheduledAt: send.SendAt,
			From:        senderEmailFor(&send, senders),
			Status:      send.Status,
			Stats:       m.statsFor(ctx, send.ID),
		})
	}
	return summaries, nil
}

// Details returns the full record for one campaign, merged with its latest
// stats snapshot.
func (m *Manager) Details(ctx context.Context, campaignID string) (*Details, error) {
	send, err := m.api.Singlesend(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", campaignID, err)
	}

	senders, err := m.senderEmails(ctx)
	if err != nil {
		return nil, err
	}

	details := &Details{
		CampaignID:  send.ID,
		Subject:     send.Name,
		ScheduledAt: send.SendAt,
		From:        senderEmailFor(send, senders),
		Status:      send.Status,
		SendTo:      send.SendTo,
		Stats:       m.statsFor(ctx, campaignID),
		LastChecked: m.now().Format("2006-01-02 15:04:05"),
	}
	if send.EmailConfig != nil && send.EmailConfig.HTMLContent != "" {
		details.HTMLPreview = truncate(send.EmailConfig.HTMLContent, htmlPreviewLength)
	}
	return details, nil
}

// CreateOrUpdate creates a new campaign or updates an existing draft, then
// schedules it. A scheduling failure is logged as a warning and does not
// fail the operation.
func (m *Manager) CreateOrUpdate(ctx context.Context, req Request) (*Result, error) {
	if req.CampaignID != "" {
		current, err := m.api.Singlesend(ctx, req.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to get campaign %s: %w", req.CampaignID, err)
		}
		if current.Status != "draft" {
			return nil, &InvalidStateError{CampaignID: req.CampaignID, Status: current.Status}
		}
	} else {
		existing, err := m.findBySubject(ctx, req.Subject)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &ConflictError{Existing: *existing}
		}
	}

	receivers, err := ParseReceiversFile(req.ReceiversFilePath)
	if err != nil {
		return nil, err
	}

	htmlBody, err := os.ReadFile(req.HTMLBodyFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read html body file: %w", err)
	}
	slog.Debug("html content preview", "preview", truncate(string(htmlBody), htmlPreviewLength))

	senderID, err := m.senderID(ctx, req.Sender)
	if err != nil {
		return nil, err
	}

	sendAt, err := ParseScheduleTime(req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	groupID, err := m.defaultSuppressionGroup(ctx)
	if err != nil {
		return nil, err
	}

	listName := fmt.Sprintf("List for %s%s%s", req.Subject, listNameSeparator, m.now().Format("20060102_150405"))
	listID, err := m.ensureContactsList(ctx, listName, receivers)
	if err != nil {
		return nil, err
	}

	payload := &sendgrid.SinglesendRequest{
		Name: req.Subject,
		EmailConfig: sendgrid.EmailConfig{
			Subject:            req.Subject,
			HTMLContent:        string(htmlBody),
			SenderID:           senderID,
			SuppressionGroupID: groupID,
			TrackingSettings:   sendgrid.DisabledTracking(),
		},
		SendTo: sendgrid.SendTo{ListIDs: []string{listID}},
	}

	var campaignID string
	kind := KindCreated
	if req.CampaignID != "" {
		if _, err := m.api.UpdateSinglesend(ctx, req.CampaignID, payload); err != nil {
			return nil, fmt.Errorf("failed to update campaign %s: %w", req.CampaignID, err)
		}
		campaignID = req.CampaignID
		kind = KindUpdated
		slog.Info("updated existing campaign", "campaign_id", campaignID)
	} else {
		created, err := m.api.CreateSinglesend(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create campaign: %w", err)
		}
		if created.ID == "" {
			return nil, fmt.Errorf("no campaign ID in create response")
		}
		campaignID = created.ID
		slog.Info("created new campaign", "campaign_id", campaignID)
	}

	if err := m.api.ScheduleSinglesend(ctx, campaignID, sendAt); err != nil {
		slog.Warn("campaign saved but scheduling failed",
			"campaign_id", campaignID,
			"send_at", sendAt,
			"error", err,
		)
	} else {
		slog.Info("scheduled campaign", "campaign_id", campaignID, "send_at", sendAt)
	}

	result := &Result{Kind: kind, CampaignID: campaignID}

	// Confirmation fetch only; the campaign is already committed remotely.
	final, err := m.Details(ctx, campaignID)
	if err != nil {
		slog.Warn("failed to fetch final campaign details",
			"campaign_id", campaignID,
			"error", err,
		)
		return result, nil
	}
	result.Campaign = final
	return result, nil
}

// findBySubject returns the first campaign whose subject matches exactly, or
// nil when no campaign matches.
func (m *Manager) findBySubject(ctx context.Context, subject string) (*Summary, error) {
	campaigns, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].Subject == subject {
			return &campaigns[i], nil
		}
	}
	return nil, nil
}

// senderID resolves a sender email against the account's verified senders.
func (m *Manager) senderID(ctx context.Context, senderEmail string) (int64, error) {
	senders, err := m.api.Senders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list senders: %w", err)
	}
	for _, s := range senders {
		if s.From.Email == senderEmail {
			return s.ID, nil
		}
	}
	return 0, &NotFoundError{Resource: "verified sender", Key: senderEmail}
}

// defaultSuppressionGroup reuses the first existing suppression group, or
// creates the fixed default group when the account has none.
func (m *Manager) defaultSuppressionGroup(ctx context.Context) (int64, error) {
	groups, err := m.api.SuppressionGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list suppression groups: %w", err)
	}
	if len(groups) > 0 {
		return groups[0].ID, nil
	}

	created, err := m.api.CreateSuppressionGroup(ctx, sendgrid.SuppressionGroupRequest{
		Name:        defaultSuppressionGroupName,
		Description: defaultSuppressionGroupDescription,
		IsDefault:   true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create suppression group: %w", err)
	}
	slog.Info("created default suppression group", "group_id", created.ID)
	return created.ID, nil
}

// ensureContactsList reuses an existing list whose name shares the prefix
// before the first " - " separator, preferring the most recent match, or
// creates a new list. All receivers are then upserted into it in one batch.
func (m *Manager) ensureContactsList(ctx context.Context, listName string, receivers []string) (string, error) {
	prefix := strings.SplitN(listName, listNameSeparator, 2)[0]

	lists, err := m.api.Lists(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list contact lists: %w", err)
	}

	var best *sendgrid.List
	for i := range lists {
		if !strings.HasPrefix(lists[i].Name, prefix) {
			continue
		}
		// The timestamp suffix makes lexicographic order chronological.
		if best == nil || lists[i].Name > best.Name {
			best = &lists[i]
		}
	}

	var listID string
	if best != nil {
		listID = best.ID
		slog.Info("reusing existing contacts list", "list_id", listID, "name", best.Name)
	} else {
		created, err := m.api.CreateList(ctx, listName)
		if err != nil {
			return "", fmt.Errorf("failed to create contacts list: %w", err)
		}
		if created.ID == "" {
			return "", fmt.Errorf("no list ID in create response")
		}
		listID = created.ID
		slog.Info("created new contacts list", "list_id", listID, "name", listName)
	}

	if err := m.api.UpsertContacts(ctx, listID, receivers); err != nil {
		return "", fmt.Errorf("failed to upsert contacts: %w", err)
	}
	slog.Info("upserted contacts", "list_id", listID, "count", len(receivers))

	return listID, nil
}

// statsFor fetches the stats snapshot for a campaign; failures are logged
// and yield empty stats rather than failing the surrounding operation.
func (m *Manager) statsFor(ctx context.Context, campaignID string) map[string]any {
	stats, err := m.api.SinglesendStats(ctx, campaignID)
	if err != nil {
		slog.Warn("failed to get campaign stats", "campaign_id", campaignID, "error", err)
		return map[string]any{}
	}
	return stats
}

// senderEmails maps verified sender IDs to their from addresses.
func (m *Manager) senderEmails(ctx context.Context) (map[int64]string, error) {
	senders, err := m.api.Senders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}
	emails := make(map[int64]string, len(senders))
	for _, s := range senders {
		emails[s.ID] = s.From.Email
	}
	return emails, nil
}

// senderEmailFor resolves a campaign's sender email, defaulting to Unknown
// when the campaign carries no sender or the sender is not in the map.
func senderEmailFor(send *sendgrid.Singlesend, senders map[int64]string) string {
	if send.EmailConfig == nil {
		return "Unknown"
	}
	if email, ok := senders[send.EmailConfig.SenderID]; ok && email != "" {
		return email
	}
	return "Unknown"
}

// truncate shortens s to at most n characters, appending an ellipsis marker
// when content was cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
